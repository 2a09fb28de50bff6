package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepo interface {
	InsertBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]*Booking, int64, error)
	CountBookings(ctx context.Context, filter BookingFilter) (int64, error)
	SumBookingPricing(ctx context.Context, filter BookingFilter) (float64, error)
	UpdateBookingStatus(ctx context.Context, id primitive.ObjectID, from []BookingStatus, to BookingStatus) (*Booking, error)
}

// BookingFilter scopes booking queries. Zero values mean "no constraint".
type BookingFilter struct {
	UserID     uuid.UUID
	GuideID    uuid.UUID
	TourID     primitive.ObjectID
	TourIDs    []primitive.ObjectID
	Statuses   []BookingStatus
	TourDate   string
	BookedFrom time.Time
	BookedTo   time.Time
	// SortAsc orders by bookingDate oldest first; default is newest first.
	SortAsc bool
	Offset  int64
	Limit   int64
}

func (f BookingFilter) Query() bson.M {
	query := bson.M{}
	if f.UserID != uuid.Nil {
		query["userId"] = f.UserID
	}
	if f.GuideID != uuid.Nil {
		query["guideId"] = f.GuideID
	}
	if !f.TourID.IsZero() {
		query["tourId"] = f.TourID
	} else if f.TourIDs != nil {
		query["tourId"] = bson.M{"$in": f.TourIDs}
	}
	if len(f.Statuses) == 1 {
		query["status"] = f.Statuses[0]
	} else if len(f.Statuses) > 1 {
		query["status"] = bson.M{"$in": f.Statuses}
	}
	if d := strings.TrimSpace(f.TourDate); d != "" {
		query["tourDate"] = d
	}
	if !f.BookedFrom.IsZero() || !f.BookedTo.IsZero() {
		window := bson.M{}
		if !f.BookedFrom.IsZero() {
			window["$gte"] = f.BookedFrom
		}
		if !f.BookedTo.IsZero() {
			window["$lt"] = f.BookedTo
		}
		query["bookingDate"] = window
	}
	return query
}

func (f BookingFilter) sort() bson.D {
	dir := -1
	if f.SortAsc {
		dir = 1
	}
	return bson.D{{Key: "bookingDate", Value: dir}, {Key: "_id", Value: dir}}
}

func (mdb *MongodbRepo) InsertBooking(ctx context.Context, booking *Booking) error {
	if err := booking.Validate(); err != nil {
		return fmt.Errorf("invalid booking data: %w", err)
	}
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.InsertOne(ctx, booking); err != nil {
		return wrapWriteError("insert booking", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	var booking Booking
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return nil, wrapWriteError("find booking", err)
	}
	return &booking, nil
}

func (mdb *MongodbRepo) ListBookings(ctx context.Context, filter BookingFilter) ([]*Booking, int64, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}

	query := filter.Query()
	findOpts := options.Find().SetSort(filter.sort()).SetSkip(filter.Offset)
	if filter.Limit > 0 {
		findOpts.SetLimit(filter.Limit)
	}

	cursor, err := col.Find(ctx, query, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("error decoding bookings: %w", err)
	}

	total := int64(len(bookings))
	if filter.Limit > 0 || filter.Offset > 0 {
		if total, err = col.CountDocuments(ctx, query); err != nil {
			return nil, 0, fmt.Errorf("error counting bookings: %w", err)
		}
	}
	return bookings, total, nil
}

func (mdb *MongodbRepo) CountBookings(ctx context.Context, filter BookingFilter) (int64, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}
	n, err := col.CountDocuments(ctx, filter.Query())
	if err != nil {
		return 0, fmt.Errorf("error counting bookings: %w", err)
	}
	return n, nil
}

func (mdb *MongodbRepo) SumBookingPricing(ctx context.Context, filter BookingFilter) (float64, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.Query()}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$pricing"}}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("error aggregating booking totals: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("error decoding booking totals: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// UpdateBookingStatus moves a booking to `to` only while it is still in one of `from`.
func (mdb *MongodbRepo) UpdateBookingStatus(ctx context.Context, id primitive.ObjectID, from []BookingStatus, to BookingStatus) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking Booking
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking); err != nil {
		return nil, wrapWriteError("update booking status", err)
	}
	return &booking, nil
}
