package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBookingTransitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		allowed  bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingConfirmed, false},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingCancelled, false},
		{BookingCancelled, BookingPending, false},
		{BookingPending, BookingPending, false},
	}
	for _, tc := range tests {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
	if TransitionSources(BookingPending) != nil {
		t.Error("nothing may move back to pending")
	}
}

func TestBookingStatusHolds(t *testing.T) {
	if !BookingPending.Holds() || !BookingConfirmed.Holds() {
		t.Error("pending and confirmed bookings hold their slot")
	}
	if BookingCancelled.Holds() {
		t.Error("cancelled bookings do not hold a slot")
	}
	if BookingStatus("archived").Valid() {
		t.Error("unknown status reported valid")
	}
	live := LiveStatuses()
	if len(live) != 2 || live[0] != BookingPending || live[1] != BookingConfirmed {
		t.Errorf("unexpected live statuses: %v", live)
	}
}

func TestNewBookingSnapshotsTour(t *testing.T) {
	tour := &Tour{ID: primitive.NewObjectID(), GuideID: uuid.New(), Title: "Old Quarter Walk", Pricing: 100}
	user := uuid.New()
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	b := NewBooking(tour, user, "2025-09-01", now)
	tour.Pricing = 300

	if b.Pricing != 100 || b.TourTitle != "Old Quarter Walk" {
		t.Errorf("booking should keep the values it was created with: %+v", b)
	}
	if b.Status != BookingPending || b.GuideID != tour.GuideID || b.UserID != user {
		t.Errorf("unexpected booking: %+v", b)
	}
	if !b.BookingDate.Equal(now) {
		t.Errorf("booking date = %v, want %v", b.BookingDate, now)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("new booking should validate: %v", err)
	}
}

func TestBookingFilterQuery(t *testing.T) {
	user := uuid.New()
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	ids := []primitive.ObjectID{primitive.NewObjectID()}

	q := BookingFilter{
		UserID:     user,
		TourIDs:    ids,
		Statuses:   []BookingStatus{BookingPending, BookingConfirmed},
		TourDate:   " 2025-09-01 ",
		BookedFrom: from,
		BookedTo:   from.AddDate(0, 1, 0),
	}.Query()

	if q["userId"] != user {
		t.Errorf("userId = %v", q["userId"])
	}
	if _, ok := q["guideId"]; ok {
		t.Error("zero guide ID must not constrain")
	}
	if in := q["tourId"].(bson.M)["$in"]; len(in.([]primitive.ObjectID)) != 1 {
		t.Errorf("unexpected tourId: %v", q["tourId"])
	}
	if in := q["status"].(bson.M)["$in"].([]BookingStatus); len(in) != 2 {
		t.Errorf("unexpected status: %v", q["status"])
	}
	if q["tourDate"] != "2025-09-01" {
		t.Errorf("tourDate = %v", q["tourDate"])
	}
	window := q["bookingDate"].(bson.M)
	if window["$gte"] != from || window["$lt"] != from.AddDate(0, 1, 0) {
		t.Errorf("unexpected window: %v", window)
	}

	single := BookingFilter{Statuses: []BookingStatus{BookingCancelled}}.Query()
	if single["status"] != BookingCancelled {
		t.Errorf("a single status should match directly, got %v", single["status"])
	}
	if len(BookingFilter{}.Query()) != 0 {
		t.Error("empty filter should match everything")
	}
}

func TestSanitizeProfileUpdate(t *testing.T) {
	out := SanitizeProfileUpdate(map[string]interface{}{
		"bio":        "hi",
		"username":   "kofi",
		"role":       RoleAdmin,
		"is_active":  true,
		"email":      "x@example.com",
		"created_at": "now",
	})
	if len(out) != 2 || out["bio"] != "hi" || out["username"] != "kofi" {
		t.Errorf("unexpected sanitized update: %v", out)
	}
}
