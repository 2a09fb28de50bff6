package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*types.SignupResponse, error)
	AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error)
	UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*User, error)
}

func (su *SupabaseRepo) CreateUser(ctx context.Context, user *User) (*types.SignupResponse, error) {
	role := user.Role
	if role == "" {
		role = RoleUser
	}
	req := types.SignupRequest{
		Email:    user.Email,
		Password: user.Password,
		// picked up by the profiles trigger
		Data: map[string]interface{}{
			"username": user.Username,
			"fullname": user.FullName,
			"role":     role,
		},
	}

	res, err := su.supabaseClient.Auth.Signup(req)
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errMsg, "already registered"):
			return nil, fmt.Errorf("email already in use: %w", ErrDuplicate)
		case strings.Contains(errMsg, "unique constraint"):
			return nil, fmt.Errorf("user already exists: %w", ErrDuplicate)
		case strings.Contains(errMsg, "null value in column"):
			return nil, fmt.Errorf("required field is missing")
		case strings.Contains(errMsg, "invalid input syntax"):
			return nil, fmt.Errorf("invalid input format")
		}
		return nil, fmt.Errorf("failed to create user")
	}
	return res, nil
}

func (su *SupabaseRepo) clientFor(accessToken string) (*supabase.Client, error) {
	if accessToken == "" {
		return su.supabaseClient, nil
	}
	client, err := su.GetAuthenticatedClient(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %w", err)
	}
	return client, nil
}

func (su *SupabaseRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, status, err := client.From(ProfileTable).
		Select(profileSelectedFields, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%w", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	// postgrest returns an array even for a single row
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user rows: %w", err)
	}
	switch len(users) {
	case 0:
		return nil, fmt.Errorf("user %s: %w", id, ErrNoMatch)
	case 1:
		return &users[0], nil
	default:
		return nil, fmt.Errorf("multiple users found for ID %s", id)
	}
}

func (su *SupabaseRepo) UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, count, err := client.From(ProfileTable).
		Update(fields, "representation", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("update user %s: %w", id, ErrNoMatch)
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no user data returned after update")
	}
	return &users[0], nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}
