package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FavouriteItem struct {
	TourID  primitive.ObjectID `bson:"tourId" json:"tourId"`
	AddedAt time.Time          `bson:"addedAt" json:"addedAt"`
}

// Favourite is a traveler's saved-tours list. Items are keyed by tour hex ID
// so saving the same tour twice only refreshes AddedAt.
type Favourite struct {
	ID        primitive.ObjectID       `bson:"_id,omitempty" json:"id"`
	UserID    uuid.UUID                `bson:"userId" json:"userId" validate:"required"`
	Items     map[string]FavouriteItem `bson:"items" json:"items"`
	CreatedAt time.Time                `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time                `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

type FavouriteRepo interface {
	AddToFavourites(ctx context.Context, userID uuid.UUID, tourID primitive.ObjectID) (*Favourite, error)
	RemoveFromFavourites(ctx context.Context, userID uuid.UUID, tourID primitive.ObjectID) error
	GetFavouritesByUserID(ctx context.Context, userID uuid.UUID) (*Favourite, error)
}

// TourIDs returns the saved tour IDs, most recently saved first.
func (f *Favourite) TourIDs() []primitive.ObjectID {
	items := make([]FavouriteItem, 0, len(f.Items))
	for _, item := range f.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].TourID.Hex() < items[j].TourID.Hex()
		}
		return items[i].AddedAt.After(items[j].AddedAt)
	})
	ids := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		ids[i] = item.TourID
	}
	return ids
}

func (f *Favourite) Has(tourID primitive.ObjectID) bool {
	_, ok := f.Items[tourID.Hex()]
	return ok
}

func favouriteItemKey(tourID primitive.ObjectID) string {
	return "items." + tourID.Hex()
}

func (mdb *MongodbRepo) AddToFavourites(ctx context.Context, userID uuid.UUID, tourID primitive.ObjectID) (*Favourite, error) {
	col, err := mdb.GetCollection(ctx, FavouritesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"updatedAt":              now,
			favouriteItemKey(tourID): FavouriteItem{TourID: tourID, AddedAt: now},
		},
		"$setOnInsert": bson.M{
			"userId":    userID,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result Favourite
	if err := col.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&result); err != nil {
		return nil, wrapWriteError("save tour", err)
	}
	return &result, nil
}

func (mdb *MongodbRepo) RemoveFromFavourites(ctx context.Context, userID uuid.UUID, tourID primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, FavouritesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	update := bson.M{
		"$unset": bson.M{favouriteItemKey(tourID): ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}
	if _, err := col.UpdateOne(ctx, bson.M{"userId": userID}, update); err != nil {
		return wrapWriteError("remove saved tour", err)
	}
	return nil
}

// GetFavouritesByUserID returns an empty list for users who never saved a tour.
func (mdb *MongodbRepo) GetFavouritesByUserID(ctx context.Context, userID uuid.UUID) (*Favourite, error) {
	col, err := mdb.GetCollection(ctx, FavouritesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	var fav Favourite
	err = col.FindOne(ctx, bson.M{"userId": userID}).Decode(&fav)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &Favourite{UserID: userID, Items: map[string]FavouriteItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding saved tours: %w", err)
	}
	if fav.Items == nil {
		fav.Items = map[string]FavouriteItem{}
	}
	return &fav, nil
}
