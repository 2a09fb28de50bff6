package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

type TourRepo interface {
	CreateTour(ctx context.Context, tour *Tour) (*Tour, error)
	GetTourByID(ctx context.Context, id primitive.ObjectID) (*Tour, error)
	ListActiveToursByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Tour, error)
	ListTours(ctx context.Context, filter TourFilter) ([]*Tour, int64, error)
	ListToursByGuide(ctx context.Context, guideID uuid.UUID, active bool, offset, limit int64) ([]*Tour, int64, error)
	UpdateTourContent(ctx context.Context, tour *Tour, expectedVersion int64) (*Tour, error)
	SoftDeleteTour(ctx context.Context, id primitive.ObjectID, guideID uuid.UUID, at time.Time) (*Tour, error)
	RestoreTour(ctx context.Context, id primitive.ObjectID, guideID uuid.UUID) (*Tour, error)
	HighlightTours(ctx context.Context, limit int) ([]*TourHighlight, error)
	ClaimSlot(ctx context.Context, id primitive.ObjectID, date string) (*Tour, error)
	SetTourRating(ctx context.Context, id primitive.ObjectID, average float64, count int64) error
}

// claimSlotFilter matches the tour only while the requested date is present and unbooked.
// $elemMatch keeps both conditions on the same array element so the positional
// operator in claimSlotUpdate points at that element.
func claimSlotFilter(id primitive.ObjectID, date string) bson.M {
	return bson.M{
		"_id":      id,
		"isActive": true,
		"availability": bson.M{
			"$elemMatch": bson.M{"date": date, "isBooked": false},
		},
	}
}

func claimSlotUpdate(now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"availability.$.isBooked": true,
			"updatedAt":               now,
		},
		"$inc": bson.M{"version": 1, "bookingCount": 1},
	}
}

// softDeleteFilter refuses tours that still hold any booked slot.
func softDeleteFilter(id primitive.ObjectID, guideID uuid.UUID) bson.M {
	return bson.M{
		"_id":                   id,
		"guideId":               guideID,
		"isActive":              true,
		"availability.isBooked": bson.M{"$ne": true},
	}
}

// ClaimSlot flips one ledger entry from unbooked to booked in a single
// compare-and-set and returns the tour as it is after the claim.
func (mdb *MongodbRepo) ClaimSlot(ctx context.Context, id primitive.ObjectID, date string) (*Tour, error) {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var tour Tour
	err = col.FindOneAndUpdate(ctx, claimSlotFilter(id, date), claimSlotUpdate(time.Now()), opts).Decode(&tour)
	if err != nil {
		return nil, wrapWriteError("claim availability slot", err)
	}
	return &tour, nil
}

func (mdb *MongodbRepo) CreateTour(ctx context.Context, tour *Tour) (*Tour, error) {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.InsertOne(ctx, tour); err != nil {
		return nil, wrapWriteError("insert tour", err)
	}
	return tour, nil
}

func (mdb *MongodbRepo) GetTourByID(ctx context.Context, id primitive.ObjectID) (*Tour, error) {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	var tour Tour
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&tour); err != nil {
		return nil, wrapWriteError("find tour", err)
	}
	return &tour, nil
}

// ListActiveToursByIDs loads the live tours among ids in no particular order.
func (mdb *MongodbRepo) ListActiveToursByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Tour, error) {
	if len(ids) == 0 {
		return []*Tour{}, nil
	}
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	cursor, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "isActive": true})
	if err != nil {
		return nil, fmt.Errorf("error finding tours: %w", err)
	}
	defer cursor.Close(ctx)

	tours := []*Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("error decoding tours: %w", err)
	}
	return tours, nil
}

func (mdb *MongodbRepo) ListTours(ctx context.Context, filter TourFilter) ([]*Tour, int64, error) {
	filter.Normalize()
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}

	query := filter.Query()
	findOpts := options.Find().
		SetSort(filter.Sort()).
		SetSkip(filter.Offset()).
		SetLimit(int64(filter.Limit))

	var (
		tours []*Tour
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cursor, err := col.Find(gctx, query, findOpts)
		if err != nil {
			return fmt.Errorf("error finding tours: %w", err)
		}
		defer cursor.Close(gctx)
		if err := cursor.All(gctx, &tours); err != nil {
			return fmt.Errorf("error decoding tours: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n, err := col.CountDocuments(gctx, query)
		if err != nil {
			return fmt.Errorf("error counting tours: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if tours == nil {
		tours = []*Tour{}
	}
	return tours, total, nil
}

func (mdb *MongodbRepo) ListToursByGuide(ctx context.Context, guideID uuid.UUID, active bool, offset, limit int64) ([]*Tour, int64, error) {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}

	query := bson.M{"guideId": guideID, "isActive": active}
	sortKey := "createdAt"
	if !active {
		sortKey = "deletedAt"
	}
	findOpts := options.Find().SetSort(bson.D{{Key: sortKey, Value: -1}}).SetSkip(offset)
	if limit > 0 {
		findOpts.SetLimit(limit)
	}

	cursor, err := col.Find(ctx, query, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding guide tours: %w", err)
	}
	defer cursor.Close(ctx)

	tours := []*Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, 0, fmt.Errorf("error decoding guide tours: %w", err)
	}

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting guide tours: %w", err)
	}
	return tours, total, nil
}

// UpdateTourContent writes a guide edit only if nobody (guide or reservation)
// changed the tour since expectedVersion was read.
func (mdb *MongodbRepo) UpdateTourContent(ctx context.Context, tour *Tour, expectedVersion int64) (*Tour, error) {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": tour.ID, "guideId": tour.GuideID, "version": expectedVersion}
	update := bson.M{
		"$set": bson.M{
			"title":           tour.Title,
			"description":     tour.Description,
			"location":        tour.Location,
			"durationMinutes": tour.DurationMinutes,
			"category":        tour.Category,
			"pricing":         tour.Pricing,
			"images":          tour.Images,
			"availability":    tour.Availability,
			"itinerary":       tour.Itinerary,
			"updatedAt":       tour.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Tour
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, wrapWriteError("update tour", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) SoftDeleteTour(ctx context.Context, id primitive.ObjectID, guideID uuid.UUID, at time.Time) (*Tour, error) {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	update := bson.M{
		"$set": bson.M{"isActive": false, "deletedAt": at, "updatedAt": at},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var deleted Tour
	if err := col.FindOneAndUpdate(ctx, softDeleteFilter(id, guideID), update, opts).Decode(&deleted); err != nil {
		return nil, wrapWriteError("soft delete tour", err)
	}
	return &deleted, nil
}

func (mdb *MongodbRepo) RestoreTour(ctx context.Context, id primitive.ObjectID, guideID uuid.UUID) (*Tour, error) {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": id, "guideId": guideID, "isActive": false}
	update := bson.M{
		"$set": bson.M{"isActive": true, "deletedAt": nil, "updatedAt": time.Now()},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var restored Tour
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&restored); err != nil {
		return nil, wrapWriteError("restore tour", err)
	}
	return &restored, nil
}

func (mdb *MongodbRepo) HighlightTours(ctx context.Context, limit int) ([]*TourHighlight, error) {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$addFields", Value: bson.M{
			"bookedDays": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$availability",
				"as":    "day",
				"cond":  bson.M{"$eq": bson.A{"$$day.isBooked", true}},
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "bookedDays", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating highlighted tours: %w", err)
	}
	defer cursor.Close(ctx)

	highlights := []*TourHighlight{}
	if err := cursor.All(ctx, &highlights); err != nil {
		return nil, fmt.Errorf("error decoding highlighted tours: %w", err)
	}
	return highlights, nil
}

func (mdb *MongodbRepo) SetTourRating(ctx context.Context, id primitive.ObjectID, average float64, count int64) error {
	col, err := mdb.GetCollection(ctx, ToursColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"averageRating": average, "ratingCount": count},
	})
	if err != nil {
		return fmt.Errorf("error updating tour rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update tour rating: %w", ErrNoMatch)
	}
	return nil
}
