package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes every collection relies on. Safe to run on each start.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	plan := map[string][]mongo.IndexModel{
		ToursColName: {
			{
				Keys:    bson.D{{Key: "guideId", Value: 1}, {Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("guide_active_created_idx"),
			},
			{
				Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "location.city", Value: 1}},
				Options: options.Index().SetName("active_city_idx"),
			},
		},
		BookingsColName: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "bookingDate", Value: -1}},
				Options: options.Index().SetName("user_booking_date_idx"),
			},
			{
				Keys:    bson.D{{Key: "guideId", Value: 1}, {Key: "bookingDate", Value: -1}},
				Options: options.Index().SetName("guide_booking_date_idx"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "tourDate", Value: 1}},
				Options: options.Index().SetName("status_tour_date_idx"),
			},
			// one live booking per tour date; partial $in filters need MongoDB 6.0+
			{
				Keys: bson.D{{Key: "tourId", Value: 1}, {Key: "tourDate", Value: 1}},
				Options: options.Index().
					SetName("tour_date_live_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": bson.M{"$in": LiveStatuses()}}),
			},
		},
		RatingsColName: {
			{
				Keys:    bson.D{{Key: "tourId", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("tour_user_unique"),
			},
		},
		FavouritesColName: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("user_unique"),
			},
		},
		NotificationsColName: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("user_created_idx"),
			},
		},
	}

	for colName, indexes := range plan {
		col, err := mdb.GetCollection(ctx, colName)
		if err != nil {
			return fmt.Errorf("error getting collection: %w", err)
		}
		if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("error creating indexes on %s: %w", colName, err)
		}
	}
	return nil
}
