package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	NotificationBooking = "booking"
	NotificationAccount = "account"
	NotificationSystem  = "system"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    uuid.UUID          `bson:"userId" json:"userId"`
	Type      string             `bson:"type" json:"type" validate:"required,oneof=booking account system"`
	Message   string             `bson:"message" json:"message" validate:"required"`
	Read      bool               `bson:"read" json:"read"`
	Meta      map[string]string  `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type NotificationRepo interface {
	InsertNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int64) ([]*Notification, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkNotificationRead(ctx context.Context, userID uuid.UUID, id primitive.ObjectID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (mdb *MongodbRepo) InsertNotification(ctx context.Context, n *Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if err := Validate.Struct(n); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.InsertOne(ctx, n); err != nil {
		return wrapWriteError("insert notification", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListNotifications(ctx context.Context, userID uuid.UUID, limit int64) ([]*Notification, error) {
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding notifications: %w", err)
	}
	defer cursor.Close(ctx)

	out := []*Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding notifications: %w", err)
	}
	return out, nil
}

func (mdb *MongodbRepo) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}
	n, err := col.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("error counting notifications: %w", err)
	}
	return n, nil
}

func (mdb *MongodbRepo) MarkNotificationRead(ctx context.Context, userID uuid.UUID, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("error updating notification: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mark notification read: %w", ErrNoMatch)
	}
	return nil
}

func (mdb *MongodbRepo) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}
	res, err := col.UpdateMany(ctx, bson.M{"userId": userID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("error updating notifications: %w", err)
	}
	return res.ModifiedCount, nil
}
