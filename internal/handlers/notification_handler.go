package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/services"
)

func ListNotifications(ns *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		inbox, err := ns.ListNotifications(c.Request.Context(), id, int64(queryInt(c, "limit", 0)))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(inbox, ""))
	}
}

func MarkNotificationRead(ns *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		if err := ns.MarkRead(c.Request.Context(), id, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "notification marked as read"))
	}
}

func MarkAllNotificationsRead(ns *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		n, err := ns.MarkAllRead(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"updated": n}, "notifications marked as read"))
	}
}
