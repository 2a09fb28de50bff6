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
)

type Rating struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TourID    primitive.ObjectID `bson:"tourId" json:"tourId"`
	UserID    uuid.UUID          `bson:"userId" json:"userId"`
	Count     int                `bson:"count" json:"count" validate:"required,min=1,max=5"`
	Text      string             `bson:"text" json:"text" validate:"max=2000"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type RatingStats struct {
	Average float64 `bson:"average" json:"average"`
	Count   int64   `bson:"count" json:"count"`
}

type RatingRepo interface {
	CreateRating(ctx context.Context, rating *Rating) (*Rating, error)
	RatingStatsForTours(ctx context.Context, tourIDs []primitive.ObjectID) (*RatingStats, error)
}

func (r *Rating) BeforeCreate(now time.Time) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.Text = strings.TrimSpace(r.Text)
	r.CreatedAt = now
}

func (r Rating) ValidateRating() error {
	if err := Validate.Struct(r); err != nil {
		return err
	}
	if r.UserID == uuid.Nil {
		return fmt.Errorf("invalid user ID")
	}
	if r.TourID.IsZero() {
		return fmt.Errorf("invalid tour ID")
	}
	return nil
}

// CreateRating relies on the unique (tourId, userId) index to allow one rating per user.
func (mdb *MongodbRepo) CreateRating(ctx context.Context, rating *Rating) (*Rating, error) {
	if err := rating.ValidateRating(); err != nil {
		return nil, fmt.Errorf("invalid rating data: %w", err)
	}
	col, err := mdb.GetCollection(ctx, RatingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.InsertOne(ctx, rating); err != nil {
		return nil, wrapWriteError("insert rating", err)
	}
	return rating, nil
}

func (mdb *MongodbRepo) RatingStatsForTours(ctx context.Context, tourIDs []primitive.ObjectID) (*RatingStats, error) {
	stats := &RatingStats{}
	if len(tourIDs) == 0 {
		return stats, nil
	}
	col, err := mdb.GetCollection(ctx, RatingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tourId": bson.M{"$in": tourIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$count"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []RatingStats
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding ratings: %w", err)
	}
	if len(rows) > 0 {
		stats = &rows[0]
	}
	return stats, nil
}
