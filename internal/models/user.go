package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleTourGuide = "tourguide"
	RoleAdmin     = "admin"
)

type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Username    string    `db:"username" json:"username" validate:"required,min=3,max=40"`
	FullName    string    `db:"fullname" json:"fullname"`
	Email       string    `db:"email" json:"email" validate:"required,email"`
	Password    string    `db:"password" json:"password,omitempty" validate:"required,min=8"`
	Bio         string    `db:"bio" json:"bio"`
	Role        string    `db:"role" json:"role" validate:"omitempty,oneof=user tourguide"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// profileUpdatable lists the profile columns a user may change about themselves.
var profileUpdatable = map[string]struct{}{
	"username":     {},
	"fullname":     {},
	"bio":          {},
	"phone_number": {},
	"avatar_url":   {},
}

// SanitizeProfileUpdate drops every key a user is not allowed to write, role
// and is_active included.
func SanitizeProfileUpdate(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		if _, ok := profileUpdatable[k]; ok {
			out[k] = v
		}
	}
	return out
}
