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

const DefaultReservationTimeout = 10 * time.Second

// errClaimMissed marks a transaction aborted because the ledger had no free
// entry for the requested date.
var errClaimMissed = errors.New("availability claim matched nothing")

type BookingService struct {
	tours    models.TourRepo
	bookings models.BookingRepo
	uow      models.UnitOfWork
	idem     models.IdempotencyStore
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewBookingService(
	tours models.TourRepo,
	bookings models.BookingRepo,
	uow models.UnitOfWork,
	idem models.IdempotencyStore,
	notifier Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) *BookingService {
	if timeout <= 0 {
		timeout = DefaultReservationTimeout
	}
	if idem == nil {
		idem = models.NoopIdempotencyStore{}
	}
	return &BookingService{
		tours:    tours,
		bookings: bookings,
		uow:      uow,
		idem:     idem,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Reserve claims the ledger entry for date and records a pending booking for
// the caller. Both writes commit together or not at all.
func (bs *BookingService) Reserve(ctx context.Context, id helpers.Identity, tourID, date string) (*models.Booking, error) {
	if !id.Authenticated() {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(tourID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tour ID", ErrInvalidInput)
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, fmt.Errorf("%w: missing tourDate", ErrInvalidInput)
	}
	if _, err := models.ParseTourDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	txCtx, cancel := context.WithTimeout(ctx, bs.timeout)
	defer cancel()

	var booking *models.Booking
	err = bs.uow.WithinTransaction(txCtx, func(ctx context.Context) error {
		booking = nil
		tour, err := bs.tours.ClaimSlot(ctx, oid, date)
		if err != nil {
			if errors.Is(err, models.ErrNoMatch) {
				return errClaimMissed
			}
			return err
		}
		b := models.NewBooking(tour, id.UserID, date, bs.now())
		if err := bs.bookings.InsertBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errClaimMissed):
			bs.logClaimMiss(ctx, oid, date, id)
			return nil, ErrSlotUnavailable
		case errors.Is(err, models.ErrDuplicate), models.IsWriteConflict(err):
			bs.logger.Info("reservation lost a concurrent claim",
				"tour_id", oid.Hex(),
				"date", date,
				"user_id", id.UserID,
				"error", err,
			)
			return nil, ErrSlotUnavailable
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("reservation timed out: %w", err)
		}
		return nil, fmt.Errorf("failed to reserve slot: %w", err)
	}

	bs.notifier.Notify(ctx, booking.GuideID, models.NotificationBooking,
		fmt.Sprintf("New booking request for %s on %s", booking.TourTitle, booking.TourDate),
		map[string]string{"bookingId": booking.ID.Hex(), "tourId": booking.TourID.Hex()},
	)
	return booking, nil
}

// logClaimMiss records why a claim found nothing. The reason stays in the logs.
func (bs *BookingService) logClaimMiss(ctx context.Context, tourID primitive.ObjectID, date string, id helpers.Identity) {
	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	reason := "date already booked"
	tour, err := bs.tours.GetTourByID(lookupCtx, tourID)
	switch {
	case errors.Is(err, models.ErrNoMatch):
		reason = "tour not found"
	case err != nil:
		reason = "tour lookup failed: " + err.Error()
	case !tour.IsActive:
		reason = "tour is deleted"
	default:
		if _, ok := tour.Slot(date); !ok {
			reason = "date not offered"
		}
	}
	bs.logger.Info("slot unavailable",
		"tour_id", tourID.Hex(),
		"date", date,
		"user_id", id.UserID,
		"reason", reason,
	)
}

// ReserveIdempotent behaves like Reserve, but a retry carrying the same key
// returns the booking produced by the first successful attempt. Reusing a
// finished key for another tour or date is a conflict.
func (bs *BookingService) ReserveIdempotent(ctx context.Context, id helpers.Identity, tourID, date, key string) (*models.Booking, error) {
	key = strings.TrimSpace(key)
	if key == "" || !id.Authenticated() {
		return bs.Reserve(ctx, id, tourID, date)
	}
	scoped := id.UserID.String() + ":" + key

	stored, acquired, err := bs.idem.Acquire(ctx, scoped)
	if err != nil {
		bs.logger.Warn("idempotency store unavailable, reserving without it", "error", err)
		return bs.Reserve(ctx, id, tourID, date)
	}
	if !acquired {
		if stored == "" {
			return nil, fmt.Errorf("%w: request with this idempotency key is in progress", ErrConflict)
		}
		oid, err := primitive.ObjectIDFromHex(stored)
		if err != nil {
			return nil, fmt.Errorf("corrupt idempotency record: %w", err)
		}
		booking, err := bs.bookings.GetBookingByID(ctx, oid)
		if err != nil {
			return nil, fmt.Errorf("failed to load idempotent booking: %w", err)
		}
		if !sameReservation(booking, tourID, date) {
			return nil, fmt.Errorf("%w: idempotency key was used for a different reservation", ErrConflict)
		}
		return booking, nil
	}

	booking, err := bs.Reserve(ctx, id, tourID, date)
	if err != nil {
		if relErr := bs.idem.Release(context.WithoutCancel(ctx), scoped); relErr != nil {
			bs.logger.Warn("failed to release idempotency key", "error", relErr)
		}
		return nil, err
	}
	if err := bs.idem.Complete(context.WithoutCancel(ctx), scoped, booking.ID.Hex()); err != nil {
		bs.logger.Warn("failed to store idempotency result", "booking_id", booking.ID.Hex(), "error", err)
	}
	return booking, nil
}

// sameReservation reports whether b answers a request for tourID on date.
func sameReservation(b *models.Booking, tourID, date string) bool {
	return strings.EqualFold(b.TourID.Hex(), strings.TrimSpace(tourID)) &&
		b.TourDate == strings.TrimSpace(date)
}

func (bs *BookingService) Approve(ctx context.Context, id helpers.Identity, bookingID string) (*models.Booking, error) {
	return bs.transition(ctx, id, bookingID, models.BookingConfirmed)
}

func (bs *BookingService) Cancel(ctx context.Context, id helpers.Identity, bookingID string) (*models.Booking, error) {
	return bs.transition(ctx, id, bookingID, models.BookingCancelled)
}

// UpdateStatus dispatches a requested status to the matching transition.
func (bs *BookingService) UpdateStatus(ctx context.Context, id helpers.Identity, bookingID, status string) (*models.Booking, error) {
	switch models.BookingStatus(strings.ToLower(strings.TrimSpace(status))) {
	case models.BookingConfirmed:
		return bs.Approve(ctx, id, bookingID)
	case models.BookingCancelled:
		return bs.Cancel(ctx, id, bookingID)
	case models.BookingPending:
		return nil, fmt.Errorf("%w: a booking cannot return to pending", ErrInvalidTransition)
	}
	return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
}

func (bs *BookingService) transition(ctx context.Context, id helpers.Identity, bookingID string, next models.BookingStatus) (*models.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(bookingID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID", ErrInvalidInput)
	}
	current, err := bs.bookings.GetBookingByID(ctx, oid)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("booking: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if !id.IsAdmin() && !id.IsOwner(current.GuideID) {
		return nil, ErrUnauthorized
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: booking is already %s", ErrInvalidTransition, current.Status)
	}

	updated, err := bs.bookings.UpdateBookingStatus(ctx, oid, models.TransitionSources(next), next)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			// someone else moved it between the read and the write
			return nil, fmt.Errorf("%w: booking status changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	bs.logger.Info("booking status changed",
		"booking_id", oid.Hex(),
		"from", current.Status,
		"to", next,
		"by", id.UserID,
	)
	bs.notifier.Notify(ctx, updated.UserID, models.NotificationBooking,
		statusMessage(updated),
		map[string]string{"bookingId": updated.ID.Hex(), "status": string(updated.Status)},
	)
	return updated, nil
}

func statusMessage(b *models.Booking) string {
	switch b.Status {
	case models.BookingConfirmed:
		return fmt.Sprintf("Your booking for %s on %s is confirmed", b.TourTitle, b.TourDate)
	case models.BookingCancelled:
		return fmt.Sprintf("Your booking for %s on %s was cancelled", b.TourTitle, b.TourDate)
	}
	return fmt.Sprintf("Your booking for %s is %s", b.TourTitle, b.Status)
}

func (bs *BookingService) GetBooking(ctx context.Context, id helpers.Identity, bookingID string) (*models.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(bookingID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID", ErrInvalidInput)
	}
	booking, err := bs.bookings.GetBookingByID(ctx, oid)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("booking: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if !id.IsAdmin() && !id.IsOwner(booking.UserID) && !id.IsOwner(booking.GuideID) {
		return nil, ErrUnauthorized
	}
	return booking, nil
}

// ListBookingsByUser returns the caller's bookings, newest first. Confirmed
// bookings carry an add-to-calendar link.
func (bs *BookingService) ListBookingsByUser(ctx context.Context, id helpers.Identity) ([]*models.Booking, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	bookings, _, err := bs.bookings.ListBookings(ctx, models.BookingFilter{UserID: id.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	for _, b := range bookings {
		if b.Status != models.BookingConfirmed {
			continue
		}
		link, err := helpers.GoogleCalendarURL(b.TourTitle, b.TourDate, "Your booking for "+b.TourTitle, "")
		if err != nil {
			bs.logger.Warn("skipping calendar link", "booking_id", b.ID.Hex(), "error", err)
			continue
		}
		b.CalendarURL = link
	}
	return bookings, nil
}

func (bs *BookingService) ListBookingsByGuide(ctx context.Context, id helpers.Identity, page, limit int) ([]*models.Booking, int64, error) {
	if !id.IsGuide() && !id.IsAdmin() {
		return nil, 0, ErrUnauthorized
	}
	page, limit = normalizePage(page, limit)
	filter := models.BookingFilter{
		GuideID: id.UserID,
		Offset:  int64((page - 1) * limit),
		Limit:   int64(limit),
	}
	bookings, total, err := bs.bookings.ListBookings(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list guide bookings: %w", err)
	}
	return bookings, total, nil
}

// ListBookings is the admin view over every booking.
func (bs *BookingService) ListBookings(ctx context.Context, id helpers.Identity, filter models.BookingFilter) ([]*models.Booking, int64, error) {
	if !id.IsAdmin() {
		return nil, 0, ErrUnauthorized
	}
	for _, s := range filter.Statuses {
		if !s.Valid() {
			return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
		}
	}
	bookings, total, err := bs.bookings.ListBookings(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return page, limit
}
