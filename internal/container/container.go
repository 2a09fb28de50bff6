package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-redis/redis/v8"
	"github.com/joshua-takyi/tourly/internal/config"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/jobs"
	"github.com/joshua-takyi/tourly/internal/middleware"
	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/joshua-takyi/tourly/internal/services"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	TokenVerifier middleware.TokenVerifier
	Mongo         *models.MongodbRepo

	UserService         *services.UserService
	TourService         *services.TourService
	BookingService      *services.BookingService
	GuideService        *services.GuideService
	NotificationService *services.NotificationService
	FavouriteService    *services.FavouriteService
	ReceiptService      *services.ReceiptService
	ReminderJob         *jobs.ReminderJob
}

// NewContainer creates a new dependency injection container. cld and
// redisClient are optional.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	verifier middleware.TokenVerifier,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	cld *cloudinary.Cloudinary,
	redisClient *redis.Client,
) *Container {
	supa := models.SupabaseNewRepo(supabaseClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	mdb := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)
	uow := models.NewMongoUnitOfWork(mongoDBClient)

	var idem models.IdempotencyStore = models.NoopIdempotencyStore{}
	if redisClient != nil {
		idem = models.NewRedisIdempotencyStore(redisClient, "idem:reserve")
	}
	var uploader services.ImageUploader
	if cld != nil {
		uploader = helpers.NewCloudinaryUploader(cld)
	}

	notifications := services.NewNotificationService(mdb, logger)
	bookings := services.NewBookingService(mdb, mdb, uow, idem, notifications, logger, cfg.ReservationTimeout)

	return &Container{
		Config:              cfg,
		Logger:              logger,
		TokenVerifier:       verifier,
		Mongo:               mdb,
		UserService:         services.NewUserService(supa),
		TourService:         services.NewTourService(mdb, mdb, uploader, logger),
		BookingService:      bookings,
		GuideService:        services.NewGuideService(mdb, mdb, mdb),
		NotificationService: notifications,
		FavouriteService:    services.NewFavouriteService(mdb, mdb, logger),
		ReceiptService:      services.NewReceiptService(bookings, cfg.PublicBaseURL),
		ReminderJob:         jobs.NewReminderJob(mdb, notifications, logger),
	}
}
