package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/services"
)

func GetProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		accessToken, _ := c.Cookie(helpers.AccessTokenCookie)
		user, err := u.GetUser(c.Request.Context(), id.UserID, accessToken)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"profile":  user,
			"identity": id,
		}, ""))
	}
}

func UpdateProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		accessToken, _ := c.Cookie(helpers.AccessTokenCookie)
		user, err := u.UpdateProfile(c.Request.Context(), id, fields, accessToken)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, "profile updated"))
	}
}
