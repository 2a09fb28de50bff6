package services

import (
	"context"
	"fmt"
	"time"

	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type GuideService struct {
	tours    models.TourRepo
	bookings models.BookingRepo
	ratings  models.RatingRepo
	now      func() time.Time
}

func NewGuideService(tours models.TourRepo, bookings models.BookingRepo, ratings models.RatingRepo) *GuideService {
	return &GuideService{tours: tours, bookings: bookings, ratings: ratings, now: time.Now}
}

type GuideDashboard struct {
	TotalBookings   int64   `json:"totalBookings"`
	AverageRating   float64 `json:"averageRating"`
	MonthlyEarnings float64 `json:"monthlyEarnings"`
	WorkingRequests int64   `json:"workingRequests"`
	TotalTours      int64   `json:"totalTours"`
}

// Dashboard summarises the guide's active tours. Bookings count while they
// hold a slot; earnings are this calendar month's confirmed bookings.
func (gs *GuideService) Dashboard(ctx context.Context, id helpers.Identity) (*GuideDashboard, error) {
	if !id.IsGuide() {
		return nil, ErrUnauthorized
	}

	tours, total, err := gs.tours.ListToursByGuide(ctx, id.UserID, true, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load guide tours: %w", err)
	}
	dash := &GuideDashboard{TotalTours: total}
	if len(tours) == 0 {
		return dash, nil
	}
	tourIDs := make([]primitive.ObjectID, 0, len(tours))
	for _, t := range tours {
		tourIDs = append(tourIDs, t.ID)
	}

	now := gs.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := gs.bookings.CountBookings(gctx, models.BookingFilter{
			TourIDs:  tourIDs,
			Statuses: []models.BookingStatus{models.BookingPending, models.BookingConfirmed},
		})
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		dash.TotalBookings = n
		return nil
	})
	g.Go(func() error {
		n, err := gs.bookings.CountBookings(gctx, models.BookingFilter{
			TourIDs:  tourIDs,
			Statuses: []models.BookingStatus{models.BookingPending},
		})
		if err != nil {
			return fmt.Errorf("count pending bookings: %w", err)
		}
		dash.WorkingRequests = n
		return nil
	})
	g.Go(func() error {
		sum, err := gs.bookings.SumBookingPricing(gctx, models.BookingFilter{
			TourIDs:    tourIDs,
			Statuses:   []models.BookingStatus{models.BookingConfirmed},
			BookedFrom: monthStart,
			BookedTo:   monthStart.AddDate(0, 1, 0),
		})
		if err != nil {
			return fmt.Errorf("sum earnings: %w", err)
		}
		dash.MonthlyEarnings = sum
		return nil
	})
	g.Go(func() error {
		stats, err := gs.ratings.RatingStatsForTours(gctx, tourIDs)
		if err != nil {
			return fmt.Errorf("rating stats: %w", err)
		}
		dash.AverageRating = roundTenth(stats.Average)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return dash, nil
}
