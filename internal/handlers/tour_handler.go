package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/joshua-takyi/tourly/internal/services"
)

type rateTourRequest struct {
	Count int    `json:"count" binding:"required,min=1,max=5"`
	Text  string `json:"text" binding:"max=2000"`
}

func CreateTour(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var tour models.Tour
		if err := c.ShouldBindJSON(&tour); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		created, err := ts.CreateTour(c.Request.Context(), id, &tour)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(created, "tour created"))
	}
}

func ListTours(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.TourFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		tours, total, applied, err := ts.ListTours(c.Request.Context(), filter)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(tours, applied.Page, applied.Limit, total))
	}
}

func GetTour(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tour, err := ts.GetTour(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(tour, ""))
	}
}

func HighlightTours(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tours, err := ts.HighlightTours(c.Request.Context(), queryInt(c, "limit", 0))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(tours, ""))
	}
}

func ListToursByGuide(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 10)
		tours, total, err := ts.ListToursByGuide(c.Request.Context(), c.Param("id"), page, limit)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(tours, page, limit, total))
	}
}

func ListDeletedTours(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		tours, err := ts.ListDeletedTours(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(tours, ""))
	}
}

func UpdateTour(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var input services.TourInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		tour, err := ts.UpdateTour(c.Request.Context(), id, c.Param("id"), input)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(tour, "tour updated"))
	}
}

func DeleteTour(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		tour, err := ts.DeleteTour(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(tour, "tour deleted"))
	}
}

func RestoreTour(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		tour, err := ts.RestoreTour(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(tour, "tour restored"))
	}
}

func RateTour(ts *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var req rateTourRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		rating, err := ts.RateTour(c.Request.Context(), id, c.Param("id"), req.Count, req.Text)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(rating, "rating saved"))
	}
}

func GuideDashboard(gs *services.GuideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		dash, err := gs.Dashboard(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(dash, ""))
	}
}
