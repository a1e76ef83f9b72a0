package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"profile-extract-go/pkg/api/handlers"
	"profile-extract-go/pkg/api/middleware"
	"profile-extract-go/pkg/config"
	"profile-extract-go/pkg/services"
)

func NewRouter(batchService *services.BatchService, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	// Middleware
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	{
		v1.POST("/validate", handlers.ValidateURL())

		batches := v1.Group("/batches")
		{
			batches.GET("", handlers.ListBatches(batchService))
			batches.POST("", handlers.CreateBatch(batchService))
			batches.POST("/upload", handlers.UploadBatch(batchService))
			batches.GET("/:id", handlers.GetBatch(batchService))
			batches.DELETE("/:id", handlers.DeleteBatch(batchService))
			batches.POST("/:id/items", handlers.AddItem(batchService))
			batches.DELETE("/:id/items/:itemId", handlers.RemoveItem(batchService))
			batches.POST("/:id/run", handlers.RunBatch(batchService))
			batches.POST("/:id/cancel", handlers.CancelBatch(batchService))
			batches.GET("/:id/result", handlers.GetResult(batchService))
			batches.GET("/:id/export", handlers.ExportBatch(batchService))
		}
	}

	return router
}
