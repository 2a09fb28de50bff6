package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/helpers"
)

func newFavouriteFixture(store *memStore) *FavouriteService {
	fs := NewFavouriteService(store, store, discardLogger())
	fs.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	return fs
}

func TestSavedTours(t *testing.T) {
	store := newMemStore()
	g := uuid.New()
	walk := store.seedTour(g, 40, "2025-05-30", "2025-06-10")
	kayak := store.seedTour(g, 75, "2025-06-11")
	market := store.seedTour(g, 20, "2025-06-12")
	fs := newFavouriteFixture(store)
	ctx := context.Background()
	user := traveler()

	for _, tour := range []string{walk.ID.Hex(), kayak.ID.Hex(), market.ID.Hex()} {
		if _, err := fs.SaveTour(ctx, user, tour); err != nil {
			t.Fatalf("SaveTour(%s): %v", tour, err)
		}
	}
	// saving again moves the tour to the top instead of duplicating it
	fav, err := fs.SaveTour(ctx, user, walk.ID.Hex())
	if err != nil {
		t.Fatalf("SaveTour again: %v", err)
	}
	if len(fav.Items) != 3 {
		t.Errorf("expected 3 saved tours, got %d", len(fav.Items))
	}

	tours, total, err := fs.ListSavedTours(ctx, user, 1, 2)
	if err != nil {
		t.Fatalf("ListSavedTours: %v", err)
	}
	if total != 3 || len(tours) != 2 {
		t.Fatalf("expected page of 2 out of 3, got %d of %d", len(tours), total)
	}
	if tours[0].ID != walk.ID || tours[1].ID != market.ID {
		t.Errorf("expected newest saves first, got %s, %s", tours[0].ID.Hex(), tours[1].ID.Hex())
	}
	if len(tours[0].Availability) != 1 || tours[0].Availability[0].Date != "2025-06-10" {
		t.Errorf("past dates should be hidden, got %v", tours[0].Availability)
	}

	tours, _, err = fs.ListSavedTours(ctx, user, 2, 2)
	if err != nil {
		t.Fatalf("ListSavedTours page 2: %v", err)
	}
	if len(tours) != 1 || tours[0].ID != kayak.ID {
		t.Errorf("expected the oldest save on page 2, got %d tours", len(tours))
	}

	saved, err := fs.IsTourSaved(ctx, user, kayak.ID.Hex())
	if err != nil || !saved {
		t.Errorf("kayak should be saved: %v %v", saved, err)
	}
	if err := fs.RemoveSavedTour(ctx, user, kayak.ID.Hex()); err != nil {
		t.Fatalf("RemoveSavedTour: %v", err)
	}
	if saved, _ := fs.IsTourSaved(ctx, user, kayak.ID.Hex()); saved {
		t.Error("kayak should no longer be saved")
	}
	if saved, _ := fs.IsTourSaved(ctx, traveler(), walk.ID.Hex()); saved {
		t.Error("saved lists are per user")
	}
}

func TestSavedToursSkipDeletedTours(t *testing.T) {
	store := newMemStore()
	g := uuid.New()
	keep := store.seedTour(g, 40, "2025-06-10")
	gone := store.seedTour(g, 40, "2025-06-10")
	fs := newFavouriteFixture(store)
	ctx := context.Background()
	user := traveler()

	for _, tour := range []string{keep.ID.Hex(), gone.ID.Hex()} {
		if _, err := fs.SaveTour(ctx, user, tour); err != nil {
			t.Fatalf("SaveTour: %v", err)
		}
	}
	if _, err := store.SoftDeleteTour(ctx, gone.ID, g, time.Now()); err != nil {
		t.Fatalf("SoftDeleteTour: %v", err)
	}

	tours, total, err := fs.ListSavedTours(ctx, user, 1, 0)
	if err != nil {
		t.Fatalf("ListSavedTours: %v", err)
	}
	if total != 1 || len(tours) != 1 || tours[0].ID != keep.ID {
		t.Errorf("deleted tours should drop out of the list, got %d of %d", len(tours), total)
	}

	if _, err := fs.SaveTour(ctx, user, gone.ID.Hex()); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted tours cannot be saved, got %v", err)
	}
}

func TestSaveTourRejects(t *testing.T) {
	store := newMemStore()
	tour := store.seedTour(uuid.New(), 40, "2025-06-10")
	fs := newFavouriteFixture(store)
	ctx := context.Background()

	if _, err := fs.SaveTour(ctx, helpers.Identity{}, tour.ID.Hex()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous callers cannot save tours, got %v", err)
	}
	if _, err := fs.SaveTour(ctx, traveler(), "nope"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := fs.SaveTour(ctx, traveler(), "64b7f0c2a1b2c3d4e5f60718"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := fs.ListSavedTours(ctx, helpers.Identity{}, 1, 5); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous callers have no saved list, got %v", err)
	}

	tours, total, err := fs.ListSavedTours(ctx, traveler(), 1, 5)
	if err != nil || total != 0 || len(tours) != 0 {
		t.Errorf("a new user has an empty list, got %d tours, %v", total, err)
	}
}
