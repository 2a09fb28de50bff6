package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	refreshTokenMaxAge = 3600 * 24 * 30
)

// SetAuthCookies stores a fresh token pair as http-only cookies.
func SetAuthCookies(c *gin.Context, tokens *types.TokenResponse, secure bool) {
	c.SetCookie(AccessTokenCookie, tokens.AccessToken, tokens.ExpiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, tokens.RefreshToken, refreshTokenMaxAge, "/", "", secure, true)
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}
