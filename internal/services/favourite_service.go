package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultSavedToursPageSize = 5

type FavouriteService struct {
	favourites models.FavouriteRepo
	tours      models.TourRepo
	logger     *slog.Logger
	now        func() time.Time
}

func NewFavouriteService(favourites models.FavouriteRepo, tours models.TourRepo, logger *slog.Logger) *FavouriteService {
	return &FavouriteService{
		favourites: favourites,
		tours:      tours,
		logger:     logger,
		now:        time.Now,
	}
}

func parseSavedTourID(id helpers.Identity, tourID string) (primitive.ObjectID, error) {
	if !id.Authenticated() {
		return primitive.NilObjectID, ErrUnauthorized
	}
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(tourID))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid tour ID", ErrInvalidInput)
	}
	return oid, nil
}

// SaveTour adds a live tour to the caller's saved list. Saving it again only
// moves it to the top.
func (fs *FavouriteService) SaveTour(ctx context.Context, id helpers.Identity, tourID string) (*models.Favourite, error) {
	oid, err := parseSavedTourID(id, tourID)
	if err != nil {
		return nil, err
	}
	tour, err := fs.tours.GetTourByID(ctx, oid)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("tour: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load tour: %w", err)
	}
	if !tour.IsActive {
		return nil, fmt.Errorf("tour: %w", ErrNotFound)
	}

	fav, err := fs.favourites.AddToFavourites(ctx, id.UserID, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to save tour: %w", err)
	}
	return fav, nil
}

func (fs *FavouriteService) RemoveSavedTour(ctx context.Context, id helpers.Identity, tourID string) error {
	oid, err := parseSavedTourID(id, tourID)
	if err != nil {
		return err
	}
	if err := fs.favourites.RemoveFromFavourites(ctx, id.UserID, oid); err != nil {
		return fmt.Errorf("failed to remove saved tour: %w", err)
	}
	return nil
}

// ListSavedTours pages through the caller's saved tours, newest first.
// Tours deleted since they were saved are skipped.
func (fs *FavouriteService) ListSavedTours(ctx context.Context, id helpers.Identity, page, limit int) ([]*models.Tour, int64, error) {
	if !id.Authenticated() {
		return nil, 0, ErrUnauthorized
	}
	if limit < 1 {
		limit = defaultSavedToursPageSize
	}
	page, limit = normalizePage(page, limit)

	fav, err := fs.favourites.GetFavouritesByUserID(ctx, id.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load saved tours: %w", err)
	}
	ids := fav.TourIDs()
	found, err := fs.tours.ListActiveToursByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load saved tours: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.Tour, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	live := make([]*models.Tour, 0, len(found))
	for _, oid := range ids {
		if t, ok := byID[oid]; ok {
			live = append(live, t)
		}
	}
	if skipped := len(ids) - len(live); skipped > 0 {
		fs.logger.Debug("saved tours no longer listed", "user_id", id.UserID, "count", skipped)
	}

	total := int64(len(live))
	start := (page - 1) * limit
	if start >= len(live) {
		return []*models.Tour{}, total, nil
	}
	end := start + limit
	if end > len(live) {
		end = len(live)
	}
	now := fs.now()
	out := live[start:end]
	for _, t := range out {
		t.Availability = t.FutureAvailability(now)
	}
	return out, total, nil
}

func (fs *FavouriteService) IsTourSaved(ctx context.Context, id helpers.Identity, tourID string) (bool, error) {
	oid, err := parseSavedTourID(id, tourID)
	if err != nil {
		return false, err
	}
	fav, err := fs.favourites.GetFavouritesByUserID(ctx, id.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to load saved tours: %w", err)
	}
	return fav.Has(oid), nil
}
