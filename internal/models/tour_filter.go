package models

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultTourPageSize = 9
	MaxTourPageSize     = 50
)

var allowedTourSortFields = map[string]bool{
	"pricing":      true,
	"bookingCount": true,
	"createdAt":    true,
}

// TourFilter carries the public catalogue query. Zero values mean "no constraint".
type TourFilter struct {
	Search      string   `form:"search"`
	City        string   `form:"city"`
	Category    []string `form:"category"`
	MinPrice    *float64 `form:"minPrice"`
	MaxPrice    *float64 `form:"maxPrice"`
	MinDuration *int     `form:"minDuration"`
	MaxDuration *int     `form:"maxDuration"`
	MinRating   *float64 `form:"rating"`
	SortBy      string   `form:"sortBy"`
	SortOrder   string   `form:"sortOrder"`
	Page        int      `form:"page"`
	Limit       int      `form:"limit"`
}

// Normalize clamps paging to sane bounds.
func (f *TourFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultTourPageSize
	}
	if f.Limit > MaxTourPageSize {
		f.Limit = MaxTourPageSize
	}
}

func (f TourFilter) Offset() int64 {
	return int64((f.Page - 1) * f.Limit)
}

// Query builds the mongo filter for active tours matching f.
func (f TourFilter) Query() bson.M {
	query := bson.M{"isActive": true}

	if s := strings.TrimSpace(f.Search); s != "" {
		rx := primitiveRegex(s)
		query["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"location.city": rx},
			bson.M{"location.address": rx},
			bson.M{"location.placeId": rx},
		}
	}
	if c := strings.TrimSpace(f.City); c != "" {
		query["location.city"] = primitiveRegex(c)
	}
	if len(f.Category) > 0 {
		query["category"] = bson.M{"$in": f.Category}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		query["pricing"] = price
	}
	if f.MinDuration != nil || f.MaxDuration != nil {
		duration := bson.M{}
		if f.MinDuration != nil {
			duration["$gte"] = *f.MinDuration
		}
		if f.MaxDuration != nil {
			duration["$lte"] = *f.MaxDuration
		}
		query["durationMinutes"] = duration
	}
	if f.MinRating != nil {
		query["averageRating"] = bson.M{"$gte": *f.MinRating}
	}
	return query
}

// Sort returns the requested ordering, newest first when none is allowed.
func (f TourFilter) Sort() bson.D {
	if !allowedTourSortFields[f.SortBy] {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	dir := 1
	if strings.EqualFold(f.SortOrder, "desc") {
		dir = -1
	}
	return bson.D{{Key: f.SortBy, Value: dir}, {Key: "_id", Value: 1}}
}

// primitiveRegex builds a case-insensitive literal match; user input is never a pattern.
func primitiveRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
