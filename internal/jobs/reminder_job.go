package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/joshua-takyi/tourly/internal/services"
	"github.com/robfig/cron/v3"
)

const DefaultReminderSchedule = "0 8 * * *"

type bookingLister interface {
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, int64, error)
}

// ReminderJob tells travelers about their confirmed tours the day before.
type ReminderJob struct {
	bookings bookingLister
	notifier services.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewReminderJob(bookings bookingLister, notifier services.Notifier, logger *slog.Logger) *ReminderJob {
	return &ReminderJob{bookings: bookings, notifier: notifier, logger: logger, now: time.Now}
}

// Run sends one reminder per confirmed booking dated tomorrow and returns how many were sent.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	tomorrow := j.now().AddDate(0, 0, 1).Format(models.TourDateLayout)
	bookings, _, err := j.bookings.ListBookings(ctx, models.BookingFilter{
		Statuses: []models.BookingStatus{models.BookingConfirmed},
		TourDate: tomorrow,
		SortAsc:  true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list bookings for reminders: %w", err)
	}
	for _, b := range bookings {
		j.notifier.Notify(ctx, b.UserID, models.NotificationBooking,
			fmt.Sprintf("Reminder: %s is tomorrow (%s)", b.TourTitle, b.TourDate),
			map[string]string{"bookingId": b.ID.Hex()},
		)
	}
	return len(bookings), nil
}

// Schedule registers the job on c. The schedule uses the standard five-field cron syntax.
func (j *ReminderJob) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultReminderSchedule
	}
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		sent, err := j.Run(ctx)
		if err != nil {
			j.logger.Error("reminder job failed", "error", err)
			return
		}
		j.logger.Info("reminder job finished", "sent", sent)
	})
}
