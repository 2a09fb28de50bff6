package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the mongo repositories. Its writes use
// the same conditional semantics as the real filters. WithinTransaction does
// not serialize units: each one journals its writes and undoes them on error,
// so concurrent units race on the conditional writes alone.
type memStore struct {
	mu sync.Mutex

	tours         map[primitive.ObjectID]*models.Tour
	bookings      map[primitive.ObjectID]*models.Booking
	ratings       []*models.Rating
	notifications []*models.Notification
	favourites    map[uuid.UUID]*models.Favourite
	lastSave      time.Time

	insertBookingErr error
	claimErr         error
	claimDelay       time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		tours:      map[primitive.ObjectID]*models.Tour{},
		bookings:   map[primitive.ObjectID]*models.Booking{},
		favourites: map[uuid.UUID]*models.Favourite{},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cloneTour(t *models.Tour) *models.Tour {
	c := *t
	c.Availability = append([]models.AvailabilitySlot(nil), t.Availability...)
	c.Category = append([]string(nil), t.Category...)
	c.Images = append([]string(nil), t.Images...)
	return &c
}

func cloneBooking(b *models.Booking) *models.Booking {
	c := *b
	return &c
}

type memTxKey struct{}

// memTx collects undo steps for the writes made inside one unit of work.
type memTx struct {
	undo []func()
}

// journal records fn to run if the surrounding unit of work fails. Callers
// hold s.mu.
func (s *memStore) journal(ctx context.Context, fn func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, fn)
	}
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// seedTour stores a tour owned by guide with the given dates, all unbooked.
func (s *memStore) seedTour(guide uuid.UUID, price float64, dates ...string) *models.Tour {
	t := &models.Tour{
		GuideID:         guide,
		Title:           "Old Quarter Walk",
		Description:     "Street food and temples",
		Location:        models.Location{Address: "1 Hang Bac", City: "Hanoi"},
		DurationMinutes: 180,
		Category:        []string{"food"},
		Pricing:         price,
	}
	for _, d := range dates {
		t.Availability = append(t.Availability, models.AvailabilitySlot{Date: d})
	}
	t.BeforeCreate(time.Now())
	s.mu.Lock()
	s.tours[t.ID] = cloneTour(t)
	s.mu.Unlock()
	return t
}

func (s *memStore) tour(id primitive.ObjectID) *models.Tour {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTour(s.tours[id])
}

func (s *memStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *memStore) notificationsFor(userID uuid.UUID) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// TourRepo

func (s *memStore) CreateTour(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tours[tour.ID] = cloneTour(tour)
	return tour, nil
}

func (s *memStore) GetTourByID(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tours[id]
	if !ok {
		return nil, fmt.Errorf("find tour: %w", models.ErrNoMatch)
	}
	return cloneTour(t), nil
}

func (s *memStore) ListActiveToursByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Tour{}
	for _, id := range ids {
		if t, ok := s.tours[id]; ok && t.IsActive {
			out = append(out, cloneTour(t))
		}
	}
	return out, nil
}

func (s *memStore) ListTours(ctx context.Context, filter models.TourFilter) ([]*models.Tour, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Tour{}
	for _, t := range s.tours {
		if t.IsActive {
			out = append(out, cloneTour(t))
		}
	}
	return out, int64(len(out)), nil
}

func (s *memStore) ListToursByGuide(ctx context.Context, guideID uuid.UUID, active bool, offset, limit int64) ([]*models.Tour, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Tour{}
	for _, t := range s.tours {
		if t.GuideID == guideID && t.IsActive == active {
			out = append(out, cloneTour(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset > 0 && offset < total {
		out = out[offset:]
	} else if offset >= total && offset > 0 {
		out = []*models.Tour{}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *memStore) UpdateTourContent(ctx context.Context, tour *models.Tour, expectedVersion int64) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tours[tour.ID]
	if !ok || cur.GuideID != tour.GuideID || cur.Version != expectedVersion {
		return nil, fmt.Errorf("update tour: %w", models.ErrNoMatch)
	}
	next := cloneTour(tour)
	next.Version = cur.Version + 1
	next.BookingCount = cur.BookingCount
	next.IsActive = cur.IsActive
	s.tours[tour.ID] = next
	return cloneTour(next), nil
}

func (s *memStore) SoftDeleteTour(ctx context.Context, id primitive.ObjectID, guideID uuid.UUID, at time.Time) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tours[id]
	if !ok || t.GuideID != guideID || !t.IsActive || t.HasBookedSlot() {
		return nil, fmt.Errorf("soft delete tour: %w", models.ErrNoMatch)
	}
	t.IsActive = false
	t.DeletedAt = &at
	t.Version++
	return cloneTour(t), nil
}

func (s *memStore) RestoreTour(ctx context.Context, id primitive.ObjectID, guideID uuid.UUID) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tours[id]
	if !ok || t.GuideID != guideID || t.IsActive {
		return nil, fmt.Errorf("restore tour: %w", models.ErrNoMatch)
	}
	t.IsActive = true
	t.DeletedAt = nil
	t.Version++
	return cloneTour(t), nil
}

func (s *memStore) HighlightTours(ctx context.Context, limit int) ([]*models.TourHighlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.TourHighlight{}
	for _, t := range s.tours {
		if !t.IsActive {
			continue
		}
		booked := 0
		for _, slot := range t.Availability {
			if slot.IsBooked {
				booked++
			}
		}
		out = append(out, &models.TourHighlight{ID: t.ID, Title: t.Title, BookedDays: booked})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedDays > out[j].BookedDays })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ClaimSlot(ctx context.Context, id primitive.ObjectID, date string) (*models.Tour, error) {
	if s.claimDelay > 0 {
		time.Sleep(s.claimDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	t, ok := s.tours[id]
	if !ok || !t.IsActive {
		return nil, fmt.Errorf("claim availability slot: %w", models.ErrNoMatch)
	}
	for i := range t.Availability {
		if t.Availability[i].Date == date && !t.Availability[i].IsBooked {
			t.Availability[i].IsBooked = true
			t.Version++
			t.BookingCount++
			s.journal(ctx, func() {
				cur := s.tours[id]
				for j := range cur.Availability {
					if cur.Availability[j].Date == date {
						cur.Availability[j].IsBooked = false
					}
				}
				cur.Version--
				cur.BookingCount--
			})
			return cloneTour(t), nil
		}
	}
	return nil, fmt.Errorf("claim availability slot: %w", models.ErrNoMatch)
}

func (s *memStore) SetTourRating(ctx context.Context, id primitive.ObjectID, average float64, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tours[id]
	if !ok {
		return fmt.Errorf("update tour rating: %w", models.ErrNoMatch)
	}
	t.AverageRating = average
	t.RatingCount = count
	return nil
}

// BookingRepo

func (s *memStore) InsertBooking(ctx context.Context, booking *models.Booking) error {
	if err := booking.Validate(); err != nil {
		return fmt.Errorf("invalid booking data: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertBookingErr != nil {
		return s.insertBookingErr
	}
	for _, b := range s.bookings {
		if b.TourID == booking.TourID && b.TourDate == booking.TourDate && b.Status.Holds() {
			return fmt.Errorf("insert booking: %w", models.ErrDuplicate)
		}
	}
	s.bookings[booking.ID] = cloneBooking(booking)
	s.journal(ctx, func() { delete(s.bookings, booking.ID) })
	return nil
}

func (s *memStore) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("find booking: %w", models.ErrNoMatch)
	}
	return cloneBooking(b), nil
}

func matchesBooking(f models.BookingFilter, b *models.Booking) bool {
	if f.UserID != uuid.Nil && b.UserID != f.UserID {
		return false
	}
	if f.GuideID != uuid.Nil && b.GuideID != f.GuideID {
		return false
	}
	if !f.TourID.IsZero() && b.TourID != f.TourID {
		return false
	}
	if f.TourID.IsZero() && f.TourIDs != nil {
		found := false
		for _, id := range f.TourIDs {
			if id == b.TourID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if st == b.Status {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.TourDate != "" && b.TourDate != f.TourDate {
		return false
	}
	if !f.BookedFrom.IsZero() && b.BookingDate.Before(f.BookedFrom) {
		return false
	}
	if !f.BookedTo.IsZero() && !b.BookingDate.Before(f.BookedTo) {
		return false
	}
	return true
}

func (s *memStore) filterBookings(f models.BookingFilter) []*models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Booking{}
	for _, b := range s.bookings {
		if matchesBooking(f, b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if f.SortAsc {
			return out[i].BookingDate.Before(out[j].BookingDate)
		}
		return out[i].BookingDate.After(out[j].BookingDate)
	})
	return out
}

func (s *memStore) ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, int64, error) {
	out := s.filterBookings(f)
	total := int64(len(out))
	if f.Offset >= total {
		out = []*models.Booking{}
	} else if f.Offset > 0 {
		out = out[f.Offset:]
	}
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (s *memStore) CountBookings(ctx context.Context, f models.BookingFilter) (int64, error) {
	return int64(len(s.filterBookings(f))), nil
}

func (s *memStore) SumBookingPricing(ctx context.Context, f models.BookingFilter) (float64, error) {
	var sum float64
	for _, b := range s.filterBookings(f) {
		sum += b.Pricing
	}
	return sum, nil
}

func (s *memStore) UpdateBookingStatus(ctx context.Context, id primitive.ObjectID, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("update booking status: %w", models.ErrNoMatch)
	}
	for _, st := range from {
		if b.Status == st {
			b.Status = to
			b.UpdatedAt = time.Now()
			return cloneBooking(b), nil
		}
	}
	return nil, fmt.Errorf("update booking status: %w", models.ErrNoMatch)
}

// RatingRepo

func (s *memStore) CreateRating(ctx context.Context, rating *models.Rating) (*models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.ratings {
		if r.TourID == rating.TourID && r.UserID == rating.UserID {
			return nil, fmt.Errorf("insert rating: %w", models.ErrDuplicate)
		}
	}
	c := *rating
	s.ratings = append(s.ratings, &c)
	return rating, nil
}

func (s *memStore) RatingStatsForTours(ctx context.Context, tourIDs []primitive.ObjectID) (*models.RatingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &models.RatingStats{}
	var sum int
	for _, r := range s.ratings {
		for _, id := range tourIDs {
			if r.TourID == id {
				sum += r.Count
				stats.Count++
			}
		}
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

// NotificationRepo

func (s *memStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *n
	s.notifications = append(s.notifications, &c)
	return nil
}

func (s *memStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int64) ([]*models.Notification, error) {
	out := s.notificationsFor(userID)
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, x := range s.notificationsFor(userID) {
		if !x.Read {
			n++
		}
	}
	return n, nil
}

func (s *memStore) MarkNotificationRead(ctx context.Context, userID uuid.UUID, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return fmt.Errorf("mark notification read: %w", models.ErrNoMatch)
}

func (s *memStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, x := range s.notifications {
		if x.UserID == userID && !x.Read {
			x.Read = true
			n++
		}
	}
	return n, nil
}

// FavouriteRepo

func (s *memStore) AddToFavourites(ctx context.Context, userID uuid.UUID, tourID primitive.ObjectID) (*models.Favourite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// saves stay strictly ordered even within one clock tick
	now := time.Now()
	if !now.After(s.lastSave) {
		now = s.lastSave.Add(time.Nanosecond)
	}
	s.lastSave = now
	fav, ok := s.favourites[userID]
	if !ok {
		fav = &models.Favourite{ID: primitive.NewObjectID(), UserID: userID, Items: map[string]models.FavouriteItem{}, CreatedAt: now}
		s.favourites[userID] = fav
	}
	fav.Items[tourID.Hex()] = models.FavouriteItem{TourID: tourID, AddedAt: now}
	fav.UpdatedAt = now
	return cloneFavourite(fav), nil
}

func (s *memStore) RemoveFromFavourites(ctx context.Context, userID uuid.UUID, tourID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fav, ok := s.favourites[userID]; ok {
		delete(fav.Items, tourID.Hex())
	}
	return nil
}

func (s *memStore) GetFavouritesByUserID(ctx context.Context, userID uuid.UUID) (*models.Favourite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fav, ok := s.favourites[userID]
	if !ok {
		return &models.Favourite{UserID: userID, Items: map[string]models.FavouriteItem{}}, nil
	}
	return cloneFavourite(fav), nil
}

func cloneFavourite(f *models.Favourite) *models.Favourite {
	c := *f
	c.Items = make(map[string]models.FavouriteItem, len(f.Items))
	for k, v := range f.Items {
		c.Items[k] = v
	}
	return &c
}

// memIdempotency mirrors the redis store's SETNX semantics.
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: map[string]string{}}
}

func (m *memIdempotency) Acquire(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[key]
	if !ok {
		m.keys[key] = "pending"
		return "", true, nil
	}
	if v == "pending" {
		return "", false, nil
	}
	return v, false, nil
}

func (m *memIdempotency) Complete(ctx context.Context, key, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = result
	return nil
}

func (m *memIdempotency) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func traveler() helpers.Identity {
	return helpers.NewIdentity(uuid.New(), "traveler@example.com", models.RoleUser)
}

func guide() helpers.Identity {
	return helpers.NewIdentity(uuid.New(), "guide@example.com", models.RoleTourGuide)
}

func admin() helpers.Identity {
	return helpers.NewIdentity(uuid.New(), "admin@example.com", models.RoleAdmin)
}

func newBookingFixture(store *memStore) (*BookingService, *NotificationService) {
	notes := NewNotificationService(store, discardLogger())
	bs := NewBookingService(store, store, store, newMemIdempotency(), notes, discardLogger(), time.Second)
	return bs, notes
}
