package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TourDateLayout is the calendar-day representation shared by ledger slots and bookings.
const TourDateLayout = "2006-01-02"

var (
	ErrInvalidTourDate   = errors.New("tour date must be formatted as YYYY-MM-DD")
	ErrDuplicateSlotDate = errors.New("availability contains the same date twice")
	ErrBookedSlotRemoved = errors.New("a booked availability date cannot be removed")
)

type Coordinates struct {
	Latitude  float64 `bson:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `bson:"lng" json:"lng" validate:"gte=-180,lte=180"`
}

type Location struct {
	Address     string      `bson:"address" json:"address" validate:"required"`
	City        string      `bson:"city" json:"city" validate:"required"`
	Coordinates Coordinates `bson:"coordinates" json:"coordinates"`
	PlaceID     string      `bson:"placeId,omitempty" json:"placeId,omitempty"`
}

// AvailabilitySlot is one bookable calendar day of a tour.
type AvailabilitySlot struct {
	Date     string `bson:"date" json:"date"`
	IsBooked bool   `bson:"isBooked" json:"isBooked"`
}

type Tour struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GuideID         uuid.UUID          `bson:"guideId" json:"guideId"`
	Title           string             `bson:"title" json:"title" validate:"required,max=200"`
	Description     string             `bson:"description" json:"description" validate:"required"`
	Location        Location           `bson:"location" json:"location"`
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes" validate:"required,gt=0"`
	Category        []string           `bson:"category" json:"category" validate:"required,min=1"`
	Pricing         float64            `bson:"pricing" json:"pricing" validate:"gte=0"`
	Images          []string           `bson:"images" json:"images"`
	Availability    []AvailabilitySlot `bson:"availability" json:"availability"`
	Itinerary       string             `bson:"itinerary" json:"itinerary"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	DeletedAt       *time.Time         `bson:"deletedAt" json:"deletedAt,omitempty"`
	AverageRating   float64            `bson:"averageRating" json:"averageRating"`
	RatingCount     int64              `bson:"ratingCount" json:"ratingCount"`
	BookingCount    int64              `bson:"bookingCount" json:"bookingCount"`
	// Version is bumped by every ledger claim and every guide edit.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TourHighlight is a tour ranked by how many of its dates are booked.
type TourHighlight struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Title      string             `bson:"title" json:"title"`
	Location   Location           `bson:"location" json:"location"`
	Images     []string           `bson:"images" json:"images"`
	Pricing    float64            `bson:"pricing" json:"pricing"`
	BookedDays int                `bson:"bookedDays" json:"bookedDays"`
}

func ParseTourDate(s string) (time.Time, error) {
	t, err := time.Parse(TourDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTourDate, s)
	}
	return t, nil
}

func (t *Tour) BeforeCreate(now time.Time) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	for i := range t.Availability {
		t.Availability[i].Date = strings.TrimSpace(t.Availability[i].Date)
		t.Availability[i].IsBooked = false
	}
	sortSlots(t.Availability)
	t.IsActive = true
	t.DeletedAt = nil
	t.Version = 0
	t.BookingCount = 0
	t.AverageRating = 0
	t.RatingCount = 0
	t.CreatedAt = now
	t.UpdatedAt = now
}

// ValidateAvailability checks every slot date is well formed and unique.
func (t *Tour) ValidateAvailability() error {
	seen := make(map[string]struct{}, len(t.Availability))
	for _, slot := range t.Availability {
		if _, err := ParseTourDate(slot.Date); err != nil {
			return err
		}
		if _, dup := seen[slot.Date]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSlotDate, slot.Date)
		}
		seen[slot.Date] = struct{}{}
	}
	return nil
}

// Slot returns the ledger entry for date, matched by exact string equality.
func (t *Tour) Slot(date string) (AvailabilitySlot, bool) {
	for _, slot := range t.Availability {
		if slot.Date == date {
			return slot, true
		}
	}
	return AvailabilitySlot{}, false
}

func (t *Tour) HasBookedSlot() bool {
	for _, slot := range t.Availability {
		if slot.IsBooked {
			return true
		}
	}
	return false
}

// FutureAvailability returns the slots whose calendar day is today or later,
// compared at day granularity in now's location. Unparseable dates are dropped.
func (t *Tour) FutureAvailability(now time.Time) []AvailabilitySlot {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]AvailabilitySlot, 0, len(t.Availability))
	for _, slot := range t.Availability {
		day, err := time.ParseInLocation(TourDateLayout, slot.Date, now.Location())
		if err != nil {
			continue
		}
		if !day.Before(today) {
			out = append(out, slot)
		}
	}
	return out
}

// ReplaceAvailability builds the ledger a guide edit asks for. Booked state
// always comes from the current ledger, and a booked date cannot be dropped.
func (t *Tour) ReplaceAvailability(dates []string) ([]AvailabilitySlot, error) {
	requested := make(map[string]struct{}, len(dates))
	next := make([]AvailabilitySlot, 0, len(dates))
	for _, raw := range dates {
		date := strings.TrimSpace(raw)
		if _, err := ParseTourDate(date); err != nil {
			return nil, err
		}
		if _, dup := requested[date]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlotDate, date)
		}
		requested[date] = struct{}{}
		current, _ := t.Slot(date)
		next = append(next, AvailabilitySlot{Date: date, IsBooked: current.IsBooked})
	}
	for _, slot := range t.Availability {
		if !slot.IsBooked {
			continue
		}
		if _, kept := requested[slot.Date]; !kept {
			return nil, fmt.Errorf("%w: %s", ErrBookedSlotRemoved, slot.Date)
		}
	}
	sortSlots(next)
	return next, nil
}

func sortSlots(slots []AvailabilitySlot) {
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Date < slots[j].Date })
}
