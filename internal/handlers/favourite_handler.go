package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/services"
)

func SaveTour(fs *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		fav, err := fs.SaveTour(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(fav, "tour saved"))
	}
}

func RemoveSavedTour(fs *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		if err := fs.RemoveSavedTour(c.Request.Context(), id, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "tour removed from saved list"))
	}
}

func ListSavedTours(fs *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 5)
		tours, total, err := fs.ListSavedTours(c.Request.Context(), id, page, limit)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(tours, page, limit, total))
	}
}

func CheckSavedTour(fs *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		saved, err := fs.IsTourSaved(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"isSaved": saved}, ""))
	}
}
