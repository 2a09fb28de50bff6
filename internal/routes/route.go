package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourly/internal/container"
	"github.com/joshua-takyi/tourly/internal/handlers"
	"github.com/joshua-takyi/tourly/internal/middleware"
	"github.com/joshua-takyi/tourly/internal/models"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := container.Config.IsProduction()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	ts := container.TourService
	bs := container.BookingService
	ns := container.NotificationService
	fs := container.FavouriteService

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "tourly-api",
			})
		})

		v1.POST("/signup", handlers.CreateUser(container.UserService))
		v1.POST("/login", handlers.AuthenticateUser(container.UserService, secure))
		v1.POST("/logout", handlers.Logout(secure))

		v1.GET("/tours", handlers.ListTours(ts))
		v1.GET("/tours/highlights", handlers.HighlightTours(ts))
		v1.GET("/tours/:id", handlers.GetTour(ts))
		v1.GET("/guides/:id/tours", handlers.ListToursByGuide(ts))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.TokenVerifier, container.UserService, container.Logger, secure))
	{
		protected.GET("/profile", handlers.GetProfile(container.UserService))
		protected.PATCH("/profile", handlers.UpdateProfile(container.UserService))

		protected.GET("/getBookingsByUser", handlers.GetBookingsByUser(bs))
		protected.GET("/getBookingById/:id", handlers.GetBookingByID(bs))
		protected.GET("/bookings/:id/receipt", handlers.GetBookingReceipt(container.ReceiptService))

		protected.GET("/notifications", handlers.ListNotifications(ns))
		protected.PATCH("/notifications/read-all", handlers.MarkAllNotificationsRead(ns))
		protected.PATCH("/notifications/:id/read", handlers.MarkNotificationRead(ns))
	}

	travelers := protected.Group("/")
	travelers.Use(middleware.RequireRole(models.RoleUser))
	{
		travelers.POST("/createBooking/:tourID", handlers.CreateBooking(bs))
		travelers.POST("/tours/:id/rating", handlers.RateTour(ts))
		travelers.GET("/saved-tours", handlers.ListSavedTours(fs))
		travelers.GET("/saved-tours/:id", handlers.CheckSavedTour(fs))
		travelers.POST("/saved-tours/:id", handlers.SaveTour(fs))
		travelers.DELETE("/saved-tours/:id", handlers.RemoveSavedTour(fs))
	}

	guides := protected.Group("/")
	guides.Use(middleware.RequireRole(models.RoleTourGuide))
	{
		guides.POST("/tours", handlers.CreateTour(ts))
		guides.PATCH("/tours/:id", handlers.UpdateTour(ts))
		guides.PUT("/tours/:id/delete", handlers.DeleteTour(ts))
		guides.PUT("/tours/:id/restore", handlers.RestoreTour(ts))
		guides.GET("/tours/deleted", handlers.ListDeletedTours(ts))
		guides.GET("/getBookingsByGuide", handlers.GetBookingsByGuide(bs))
		guides.GET("/guide/dashboard", handlers.GuideDashboard(container.GuideService))
		guides.POST("/guide/booking/:id/approved", handlers.ApproveBooking(bs))
		guides.POST("/guide/booking/:id/cancel", handlers.CancelBooking(bs))
	}

	staff := protected.Group("/")
	staff.Use(middleware.RequireRole(models.RoleTourGuide, models.RoleAdmin))
	{
		staff.PATCH("/updateBookingStatus/:id", handlers.UpdateBookingStatus(bs))
	}

	admins := protected.Group("/")
	admins.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admins.GET("/getAllBookings", handlers.GetAllBookings(bs))
	}

	return r
}
