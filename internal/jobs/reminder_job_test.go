package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubLister struct {
	filter   models.BookingFilter
	bookings []*models.Booking
	err      error
}

func (s *stubLister) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, int64, error) {
	s.filter = filter
	return s.bookings, int64(len(s.bookings)), s.err
}

type sent struct {
	user    uuid.UUID
	message string
}

type recordingNotifier struct {
	sent []sent
}

func (r *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, kind, message string, meta map[string]string) {
	r.sent = append(r.sent, sent{user: userID, message: message})
}

func newTestJob(lister bookingLister, n *recordingNotifier) *ReminderJob {
	j := NewReminderJob(lister, n, slog.New(slog.NewTextHandler(io.Discard, nil)))
	j.now = func() time.Time { return time.Date(2025, 8, 31, 8, 0, 0, 0, time.UTC) }
	return j
}

func TestReminderJobRun(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	lister := &stubLister{bookings: []*models.Booking{
		{ID: primitive.NewObjectID(), UserID: a, TourTitle: "Old Quarter Walk", TourDate: "2025-09-01", Status: models.BookingConfirmed},
		{ID: primitive.NewObjectID(), UserID: b, TourTitle: "Harbour Kayak", TourDate: "2025-09-01", Status: models.BookingConfirmed},
	}}
	n := &recordingNotifier{}

	count, err := newTestJob(lister, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 2 || len(n.sent) != 2 {
		t.Fatalf("expected 2 reminders, got %d (%d sent)", count, len(n.sent))
	}
	if n.sent[0].user != a || n.sent[1].user != b {
		t.Errorf("reminders went to the wrong users")
	}
	if lister.filter.TourDate != "2025-09-01" {
		t.Errorf("expected tomorrow's date in the filter, got %q", lister.filter.TourDate)
	}
	if len(lister.filter.Statuses) != 1 || lister.filter.Statuses[0] != models.BookingConfirmed {
		t.Errorf("only confirmed bookings get reminders, filter was %v", lister.filter.Statuses)
	}
}

func TestReminderJobListError(t *testing.T) {
	n := &recordingNotifier{}
	_, err := newTestJob(&stubLister{err: errors.New("connection reset")}, n).Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(n.sent) != 0 {
		t.Errorf("nothing should be sent on error")
	}
}

func TestReminderJobSchedule(t *testing.T) {
	j := newTestJob(&stubLister{}, &recordingNotifier{})
	c := cron.New()

	if _, err := j.Schedule(c, ""); err != nil {
		t.Fatalf("default schedule: %v", err)
	}
	if _, err := j.Schedule(c, "not a schedule"); err == nil {
		t.Error("expected an error for a bad schedule")
	}
	if len(c.Entries()) != 1 {
		t.Errorf("expected 1 entry, got %d", len(c.Entries()))
	}
}
