package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/joshua-takyi/tourly/internal/services"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func CreateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		if user.Role == models.RoleAdmin {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid role"))
			return
		}

		res, err := u.CreateUser(c.Request.Context(), &user)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(gin.H{"id": res.ID, "email": res.Email}, "account created"))
	}
}

// AuthenticateUser signs in with email and password and sets the token cookies.
func AuthenticateUser(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		tokens, err := u.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
		if err != nil || tokens == nil || tokens.AccessToken == "" {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid email or password"))
			return
		}

		helpers.SetAuthCookies(c, tokens, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"user": tokens.User}, "logged in"))
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.ClearAuthCookies(c, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Logged out successfully"))
	}
}
