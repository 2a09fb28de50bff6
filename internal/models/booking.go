package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// TransitionSources lists the states a booking may move to next from.
// Nothing moves back to pending.
func TransitionSources(next BookingStatus) []BookingStatus {
	switch next {
	case BookingConfirmed:
		return []BookingStatus{BookingPending}
	case BookingCancelled:
		return []BookingStatus{BookingPending, BookingConfirmed}
	}
	return nil
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, from := range TransitionSources(next) {
		if from == s {
			return true
		}
	}
	return false
}

// Holds reports whether a booking in this state keeps its ledger slot claimed.
func (s BookingStatus) Holds() bool {
	return s == BookingPending || s == BookingConfirmed
}

// LiveStatuses lists the states that hold a slot.
func LiveStatuses() []BookingStatus {
	var out []BookingStatus
	for _, s := range []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled} {
		if s.Holds() {
			out = append(out, s)
		}
	}
	return out
}

type Booking struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TourID  primitive.ObjectID `bson:"tourId" json:"tourId" validate:"required"`
	UserID  uuid.UUID          `bson:"userId" json:"userId" validate:"required"`
	GuideID uuid.UUID          `bson:"guideId" json:"guideId" validate:"required"`
	// TourTitle is copied from the tour at reservation time for listings and receipts.
	TourTitle   string        `bson:"tourTitle" json:"tourTitle"`
	TourDate    string        `bson:"tourDate" json:"tourDate" validate:"required"`
	Pricing     float64       `bson:"pricing" json:"pricing" validate:"gte=0"`
	Status      BookingStatus `bson:"status" json:"status" validate:"required,oneof=pending confirmed cancelled"`
	BookingDate time.Time     `bson:"bookingDate" json:"bookingDate"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
	// CalendarURL is filled for confirmed bookings when they are listed to the traveler.
	CalendarURL string `bson:"-" json:"calendarUrl,omitempty"`
}

// NewBooking snapshots the claimed tour into a pending booking.
func NewBooking(tour *Tour, userID uuid.UUID, date string, now time.Time) *Booking {
	return &Booking{
		ID:          primitive.NewObjectID(),
		TourID:      tour.ID,
		UserID:      userID,
		GuideID:     tour.GuideID,
		TourTitle:   tour.Title,
		TourDate:    date,
		Pricing:     tour.Pricing,
		Status:      BookingPending,
		BookingDate: now,
		UpdatedAt:   now,
	}
}

func (b *Booking) Validate() error {
	return Validate.Struct(b)
}
