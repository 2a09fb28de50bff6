package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultHighlightLimit = 4

// ImageUploader stores tour images and returns their public URLs.
type ImageUploader interface {
	UploadImages(ctx context.Context, images []string, folder string) ([]string, error)
}

type TourService struct {
	tours    models.TourRepo
	ratings  models.RatingRepo
	uploader ImageUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewTourService(tours models.TourRepo, ratings models.RatingRepo, uploader ImageUploader, logger *slog.Logger) *TourService {
	return &TourService{
		tours:    tours,
		ratings:  ratings,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

// TourInput carries a guide's edit. Nil fields are left unchanged; Version
// must match the stored tour.
type TourInput struct {
	Version         int64            `json:"version"`
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	Location        *models.Location `json:"location"`
	DurationMinutes *int             `json:"durationMinutes"`
	Category        []string         `json:"category"`
	Pricing         *float64         `json:"pricing"`
	Images          []string         `json:"images"`
	Itinerary       *string          `json:"itinerary"`
	// Availability replaces the set of offered dates. Booked state always comes
	// from storage, so only dates are accepted.
	Availability []string `json:"availability"`
}

func (ts *TourService) CreateTour(ctx context.Context, id helpers.Identity, tour *models.Tour) (*models.Tour, error) {
	if !id.IsGuide() {
		return nil, ErrUnauthorized
	}
	tour.GuideID = id.UserID
	tour.Title = strings.TrimSpace(tour.Title)
	tour.BeforeCreate(ts.now())

	if err := models.Validate.Struct(tour); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := tour.ValidateAvailability(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if len(tour.Images) > 0 && ts.uploader != nil {
		urls, err := ts.uploader.UploadImages(ctx, tour.Images, helpers.ToursFolder)
		if err != nil {
			return nil, fmt.Errorf("failed to upload tour images: %w", err)
		}
		tour.Images = urls
	}

	created, err := ts.tours.CreateTour(ctx, tour)
	if err != nil {
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}
	ts.logger.Info("tour created", "tour_id", created.ID.Hex(), "guide_id", id.UserID)
	return created, nil
}

// GetTour returns an active tour with only today's and later dates.
func (ts *TourService) GetTour(ctx context.Context, tourID string) (*models.Tour, error) {
	oid, err := parseObjectID(tourID, "tour")
	if err != nil {
		return nil, err
	}
	tour, err := ts.tours.GetTourByID(ctx, oid)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("tour: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	if !tour.IsActive {
		return nil, fmt.Errorf("tour: %w", ErrNotFound)
	}
	tour.Availability = tour.FutureAvailability(ts.now())
	return tour, nil
}

func (ts *TourService) ListTours(ctx context.Context, filter models.TourFilter) ([]*models.Tour, int64, models.TourFilter, error) {
	filter.Normalize()
	tours, total, err := ts.tours.ListTours(ctx, filter)
	if err != nil {
		return nil, 0, filter, fmt.Errorf("failed to list tours: %w", err)
	}
	now := ts.now()
	for _, t := range tours {
		t.Availability = t.FutureAvailability(now)
	}
	return tours, total, filter, nil
}

func (ts *TourService) ListToursByGuide(ctx context.Context, guideID string, page, limit int) ([]*models.Tour, int64, error) {
	gid, err := uuid.Parse(strings.TrimSpace(guideID))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid guide ID", ErrInvalidInput)
	}
	page, limit = normalizePage(page, limit)
	tours, total, err := ts.tours.ListToursByGuide(ctx, gid, true, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list guide tours: %w", err)
	}
	return tours, total, nil
}

func (ts *TourService) ListDeletedTours(ctx context.Context, id helpers.Identity) ([]*models.Tour, error) {
	if !id.IsGuide() {
		return nil, ErrUnauthorized
	}
	tours, _, err := ts.tours.ListToursByGuide(ctx, id.UserID, false, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted tours: %w", err)
	}
	return tours, nil
}

// UpdateTour applies a guide edit. The write only lands if the tour is still
// at input.Version, so an edit never overwrites a claim made after it was read.
func (ts *TourService) UpdateTour(ctx context.Context, id helpers.Identity, tourID string, input TourInput) (*models.Tour, error) {
	oid, err := parseObjectID(tourID, "tour")
	if err != nil {
		return nil, err
	}
	tour, err := ts.tours.GetTourByID(ctx, oid)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("tour: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	if !tour.IsActive {
		return nil, fmt.Errorf("tour: %w", ErrNotFound)
	}
	if !id.IsOwner(tour.GuideID) {
		return nil, ErrUnauthorized
	}
	if input.Version != tour.Version {
		return nil, fmt.Errorf("%w: tour is at version %d", ErrConflict, tour.Version)
	}

	if input.Title != nil {
		tour.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		tour.Description = *input.Description
	}
	if input.Location != nil {
		tour.Location = *input.Location
	}
	if input.DurationMinutes != nil {
		tour.DurationMinutes = *input.DurationMinutes
	}
	if input.Category != nil {
		tour.Category = input.Category
	}
	if input.Pricing != nil {
		tour.Pricing = *input.Pricing
	}
	if input.Itinerary != nil {
		tour.Itinerary = *input.Itinerary
	}
	if input.Availability != nil {
		next, err := tour.ReplaceAvailability(input.Availability)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		tour.Availability = next
	}
	if err := models.Validate.Struct(tour); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.Images != nil {
		images := input.Images
		if ts.uploader != nil {
			if images, err = ts.uploader.UploadImages(ctx, input.Images, helpers.ToursFolder); err != nil {
				return nil, fmt.Errorf("failed to upload tour images: %w", err)
			}
		}
		tour.Images = images
	}
	tour.UpdatedAt = ts.now()

	updated, err := ts.tours.UpdateTourContent(ctx, tour, input.Version)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("%w: tour changed while editing", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	return updated, nil
}

// DeleteTour soft deletes a tour that has no booked date.
func (ts *TourService) DeleteTour(ctx context.Context, id helpers.Identity, tourID string) (*models.Tour, error) {
	oid, err := parseObjectID(tourID, "tour")
	if err != nil {
		return nil, err
	}
	if !id.IsGuide() {
		return nil, ErrUnauthorized
	}
	deleted, err := ts.tours.SoftDeleteTour(ctx, oid, id.UserID, ts.now())
	if err == nil {
		ts.logger.Info("tour deleted", "tour_id", oid.Hex(), "guide_id", id.UserID)
		return deleted, nil
	}
	if !errors.Is(err, models.ErrNoMatch) {
		return nil, fmt.Errorf("failed to delete tour: %w", err)
	}

	// work out which condition failed
	tour, getErr := ts.tours.GetTourByID(ctx, oid)
	switch {
	case errors.Is(getErr, models.ErrNoMatch):
		return nil, fmt.Errorf("tour: %w", ErrNotFound)
	case getErr != nil:
		return nil, fmt.Errorf("failed to get tour: %w", getErr)
	case !id.IsOwner(tour.GuideID):
		return nil, ErrUnauthorized
	case !tour.IsActive:
		return nil, fmt.Errorf("tour: %w", ErrNotFound)
	case tour.HasBookedSlot():
		return nil, ErrTourHasBookings
	}
	return nil, fmt.Errorf("%w: tour changed while deleting", ErrConflict)
}

func (ts *TourService) RestoreTour(ctx context.Context, id helpers.Identity, tourID string) (*models.Tour, error) {
	oid, err := parseObjectID(tourID, "tour")
	if err != nil {
		return nil, err
	}
	if !id.IsGuide() {
		return nil, ErrUnauthorized
	}
	restored, err := ts.tours.RestoreTour(ctx, oid, id.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("deleted tour: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to restore tour: %w", err)
	}
	return restored, nil
}

func (ts *TourService) HighlightTours(ctx context.Context, limit int) ([]*models.TourHighlight, error) {
	if limit <= 0 || limit > 20 {
		limit = defaultHighlightLimit
	}
	out, err := ts.tours.HighlightTours(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get highlighted tours: %w", err)
	}
	return out, nil
}

// RateTour records one rating per user per tour and refreshes the tour's average.
func (ts *TourService) RateTour(ctx context.Context, id helpers.Identity, tourID string, count int, text string) (*models.Rating, error) {
	if !id.IsTraveler() {
		return nil, ErrUnauthorized
	}
	oid, err := parseObjectID(tourID, "tour")
	if err != nil {
		return nil, err
	}
	tour, err := ts.tours.GetTourByID(ctx, oid)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("tour: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	if !tour.IsActive {
		return nil, fmt.Errorf("tour: %w", ErrNotFound)
	}

	rating := &models.Rating{TourID: oid, UserID: id.UserID, Count: count, Text: text}
	rating.BeforeCreate(ts.now())
	if err := rating.ValidateRating(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	created, err := ts.ratings.CreateRating(ctx, rating)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("%w: you have already rated this tour", ErrConflict)
		}
		return nil, fmt.Errorf("failed to rate tour: %w", err)
	}

	stats, err := ts.ratings.RatingStatsForTours(ctx, []primitive.ObjectID{oid})
	if err != nil {
		ts.logger.Error("failed to recompute tour rating", "tour_id", oid.Hex(), "error", err)
		return created, nil
	}
	if err := ts.tours.SetTourRating(ctx, oid, roundTenth(stats.Average), stats.Count); err != nil {
		ts.logger.Error("failed to store tour rating", "tour_id", oid.Hex(), "error", err)
	}
	return created, nil
}

func parseObjectID(raw, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid %s ID", ErrInvalidInput, what)
	}
	return oid, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
