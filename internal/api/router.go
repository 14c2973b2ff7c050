package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"dwellhub/backend/internal/api/handlers"
	"dwellhub/backend/internal/api/middleware"
	"dwellhub/backend/internal/auth"
	"dwellhub/backend/internal/config"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
	"dwellhub/backend/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, notify handlers.InquiryNotifier, logger *zap.Logger) *gin.Engine {
	userService := services.NewUserService(db)
	propertyService := services.NewPropertyService(db)
	inquiryService := services.NewInquiryService(db)

	mediaStorage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	googleVerifier := auth.NewGoogleVerifier(cfg.GoogleClientID)

	authHandler := handlers.NewAuthHandler(cfg, userService, googleVerifier)
	propertyHandler := handlers.NewPropertyHandler(cfg, propertyService, rdb, logger)
	inquiryHandler := handlers.NewInquiryHandler(inquiryService, notify, logger)
	wishlistHandler := handlers.NewWishlistHandler(userService)
	uploadHandler := handlers.NewUploadHandler(cfg, mediaStorage, propertyService, logger)

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.ClientURL))

	authRequired := middleware.AuthMiddleware(userService, cfg.JwtAccessSecret)
	agentOnly := middleware.RequireRoles(models.RoleAgent, models.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/google", authHandler.GoogleLogin)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)

			account := authGroup.Group("", authRequired)
			{
				account.GET("/me", authHandler.Me)
				account.PUT("/profile", authHandler.UpdateProfile)
				account.POST("/upgrade-agent", authHandler.UpgradeToAgent)
			}
		}

		propertyGroup := api.Group("/properties")
		{
			propertyGroup.GET("", propertyHandler.Search)
			propertyGroup.GET("/:idOrSlug", propertyHandler.Get)

			// Group path must be empty so POST "" registers /api/properties
			// itself rather than the trailing-slash variant.
			manage := propertyGroup.Group("", authRequired, agentOnly)
			{
				manage.POST("", propertyHandler.Create)
				manage.POST("/upload", uploadHandler.Upload)
				manage.GET("/agent/my-listings", propertyHandler.MyListings)
				manage.PUT("/id/:id", propertyHandler.Update)
				manage.DELETE("/id/:id", propertyHandler.Delete)
				manage.POST("/id/:id/publish", propertyHandler.Publish)
				manage.GET("/id/:id/stats", propertyHandler.Stats)
			}
		}

		inquiryGroup := api.Group("/inquiries", authRequired)
		{
			inquiryGroup.POST("", inquiryHandler.Create)
			inquiryGroup.GET("/my", inquiryHandler.My)

			agentInquiries := inquiryGroup.Group("", agentOnly)
			{
				agentInquiries.GET("/agent", inquiryHandler.Received)
				agentInquiries.PUT("/:id", inquiryHandler.UpdateStatus)
			}
		}

		userGroup := api.Group("/users", authRequired)
		{
			userGroup.GET("/wishlist", wishlistHandler.Get)
			userGroup.PUT("/wishlist/:propertyId", wishlistHandler.Toggle)
		}
	}

	return r
}
