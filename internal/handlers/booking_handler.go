package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/joshua-takyi/tourly/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const bookingsByUserPath = "/api/v1/getBookingsByUser"

type createBookingRequest struct {
	TourDate string `json:"tourDate" form:"tourDate" binding:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" form:"status" binding:"required,oneof=confirmed cancelled pending"`
}

// CreateBooking reserves a tour date for the caller. Browsers are redirected
// to their bookings; JSON clients get the booking back.
func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var req createBookingRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("tourDate is required"))
			return
		}

		booking, err := bs.ReserveIdempotent(c.Request.Context(), id, c.Param("tourID"), req.TourDate, c.GetHeader("Idempotency-Key"))
		if err != nil {
			failBadRequest(c, err)
			return
		}

		if strings.Contains(c.GetHeader("Accept"), "application/json") {
			c.JSON(http.StatusCreated, helpers.SuccessResponse(booking, "booking created"))
			return
		}
		c.Redirect(http.StatusSeeOther, bookingsByUserPath)
	}
}

func UpdateBookingStatus(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var req updateStatusRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("status must be one of confirmed, cancelled, pending"))
			return
		}
		booking, err := bs.UpdateStatus(c.Request.Context(), id, c.Param("id"), req.Status)
		if err != nil {
			failBadRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, "booking status updated"))
	}
}

func ApproveBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		booking, err := bs.Approve(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, "booking confirmed"))
	}
}

func CancelBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		booking, err := bs.Cancel(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, "booking cancelled"))
	}
}

func GetBookingByID(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		booking, err := bs.GetBooking(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, ""))
	}
}

func GetBookingsByUser(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		bookings, err := bs.ListBookingsByUser(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(bookings, ""))
	}
}

func GetBookingsByGuide(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 10)
		bookings, total, err := bs.ListBookingsByGuide(c.Request.Context(), id, page, limit)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(bookings, page, limit, total))
	}
}

// GetAllBookings is the admin listing. Supported query params: status (repeatable
// or comma separated), tourId, guideId, userId, sort=asc|desc, page, limit.
func GetAllBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 20)
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}
		filter := models.BookingFilter{
			SortAsc: strings.EqualFold(c.Query("sort"), "asc"),
			Offset:  int64((page - 1) * limit),
			Limit:   int64(limit),
		}
		for _, raw := range c.QueryArray("status") {
			for _, s := range strings.Split(raw, ",") {
				if s = strings.TrimSpace(s); s != "" {
					filter.Statuses = append(filter.Statuses, models.BookingStatus(s))
				}
			}
		}
		if v := c.Query("tourId"); v != "" {
			oid, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid tourId"))
				return
			}
			filter.TourID = oid
		}
		for key, dst := range map[string]*uuid.UUID{"guideId": &filter.GuideID, "userId": &filter.UserID} {
			if v := c.Query(key); v != "" {
				parsed, err := uuid.Parse(v)
				if err != nil {
					c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid "+key))
					return
				}
				*dst = parsed
			}
		}

		bookings, total, err := bs.ListBookings(c.Request.Context(), id, filter)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(bookings, page, limit, total))
	}
}

func GetBookingReceipt(rs *services.ReceiptService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		booking, pdf, err := rs.Receipt(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="receipt-`+booking.ID.Hex()+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}
