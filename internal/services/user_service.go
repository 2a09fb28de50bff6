package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

type UserService struct {
	userRepo models.UserRepo
}

func NewUserService(userRepo models.UserRepo) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

func (us *UserService) CreateUser(ctx context.Context, user *models.User) (*types.SignupResponse, error) {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	if err := models.Validate.Struct(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !helpers.IsPasswordStrong(user.Password) {
		return nil, fmt.Errorf("%w: password is not strong enough", ErrInvalidInput)
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	res, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, err
	}
	return res, nil
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return nil, fmt.Errorf("%w: invalid password format", ErrInvalidInput)
	}
	response, err := us.userRepo.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return response, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}
	response, err := us.userRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return response, nil
}

func (us *UserService) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	user, err := us.userRepo.GetUser(ctx, id, accessToken)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile writes the caller's own editable profile fields.
func (us *UserService) UpdateProfile(ctx context.Context, id helpers.Identity, fields map[string]interface{}, accessToken string) (*models.User, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	clean := models.SanitizeProfileUpdate(fields)
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no editable fields", ErrInvalidInput)
	}
	clean["updated_at"] = time.Now()

	updated, err := us.userRepo.UpdateUser(ctx, clean, id.UserID, accessToken)
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}
