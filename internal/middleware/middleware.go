package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/joshua-takyi/tourly/internal/services"
	"github.com/supabase-community/gotrue-go/types"
)

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	ValidateToken(token string) (*helpers.CustomClaims, error)
}

// ProfileSource loads the caller's profile and renews expired sessions.
type ProfileSource interface {
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id, ok := helpers.IdentityFromContext(c); ok {
			attrs = append(attrs, "user_id", id.UserID)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler provides centralized error handling
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get("request_id")

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if c.Writer.Written() {
			return
		}
		// Don't return error details in production
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"error":      "Internal server error",
			"request_id": requestID,
		})
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse(msg))
}

func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessTokenCookie); err == nil && token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// AuthMiddleware resolves the caller once per request: it verifies the access
// token (refreshing it from the refresh cookie when needed), loads the profile
// role and stores an immutable helpers.Identity in the context.
func AuthMiddleware(verifier TokenVerifier, profiles ProfileSource, logger *slog.Logger, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "access token not found")
			return
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			refreshToken, refreshErr := c.Cookie(helpers.RefreshTokenCookie)
			if refreshErr != nil || refreshToken == "" {
				unauthorized(c, "invalid or expired token")
				return
			}

			tokens, refreshErr := profiles.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil || tokens == nil || tokens.AccessToken == "" {
				logger.Warn("Token refresh failed", "error", refreshErr)
				unauthorized(c, "token expired and refresh failed")
				return
			}
			helpers.SetAuthCookies(c, tokens, secureCookies)
			token = tokens.AccessToken

			claims, err = verifier.ValidateToken(token)
			if err != nil {
				unauthorized(c, "refreshed token validation failed")
				return
			}
			logger.Info("Token refreshed", "user_id", claims.Subject)
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			logger.Warn("Invalid user ID in token", "subject", claims.Subject, "error", err)
			unauthorized(c, "invalid token subject")
			return
		}

		role := models.RoleUser
		profile, err := profiles.GetUser(c.Request.Context(), userID, token)
		switch {
		case err == nil:
			if !profile.IsActive {
				c.AbortWithStatusJSON(http.StatusForbidden, helpers.ErrorResponse("account is deactivated"))
				return
			}
			if profile.Role != "" {
				role = profile.Role
			}
		case errors.Is(err, services.ErrNotFound):
			logger.Info("Profile not found, using default role", "user_id", userID)
		default:
			logger.Error("Profile lookup failed", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, helpers.ErrorResponse("failed to load profile"))
			return
		}

		helpers.SetIdentity(c, helpers.NewIdentity(userID, claims.Email, role))
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := helpers.IdentityFromContext(c)
		if !ok {
			unauthorized(c, "unauthorized")
			return
		}
		if !id.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, helpers.ErrorResponse("access denied"))
			return
		}
		c.Next()
	}
}
