package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/golang-jwt/jwt/v5"
)

const ToursFolder = "tours"

var (
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasNumber  = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[@$!%*?&]`)
)

// TokenValidator verifies Supabase access tokens against the project's JWKS.
// The key set is fetched once and refreshed in the background.
type TokenValidator struct {
	jwks *keyfunc.JWKS
}

func NewTokenValidator(ctx context.Context, supabaseURL string, logger *slog.Logger) (*TokenValidator, error) {
	if supabaseURL == "" {
		return nil, errors.New("SUPABASE_URL not set")
	}
	jwksURL := fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(supabaseURL, "/"))

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwks refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load jwks: %w", err)
	}
	return &TokenValidator{jwks: jwks}, nil
}

// NewTokenValidatorFromJWKS wraps an already built key set.
func NewTokenValidatorFromJWKS(jwks *keyfunc.JWKS) *TokenValidator {
	return &TokenValidator{jwks: jwks}
}

func (v *TokenValidator) ValidateToken(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.jwks.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

func (v *TokenValidator) Close() {
	v.jwks.EndBackground()
}

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return hasLower.MatchString(password) &&
		hasUpper.MatchString(password) &&
		hasNumber.MatchString(password) &&
		hasSpecial.MatchString(password)
}

// CloudinaryUploader pushes remote or data-URI images to Cloudinary.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld}
}

func (u *CloudinaryUploader) UploadImages(ctx context.Context, images []string, folder string) ([]string, error) {
	urls := make([]string, 0, len(images))
	for _, src := range images {
		if strings.TrimSpace(src) == "" {
			continue
		}
		res, err := u.cld.Upload.Upload(ctx, src, uploader.UploadParams{
			Folder: folder,
			Tags:   []string{"tourly"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		urls = append(urls, res.SecureURL)
	}
	return urls, nil
}

// GoogleCalendarURL builds an all-day "add to calendar" link for a YYYY-MM-DD date.
func GoogleCalendarURL(title, date, details, location string) (string, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid calendar date %q: %w", date, err)
	}
	// all-day events end on the following day, exclusive
	dates := day.Format("20060102") + "/" + day.AddDate(0, 0, 1).Format("20060102")

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", title)
	q.Set("dates", dates)
	q.Set("details", details)
	q.Set("location", location)
	return "https://calendar.google.com/calendar/render?" + q.Encode(), nil
}
