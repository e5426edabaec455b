package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procure-finance-sync/internal/api_gateway/handler"
	"github.com/procure-finance-sync/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the trigger surface
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	transferHandler *handler.TransferHandler,
	closureHandler *handler.ClosureHandler,
	orderHandler *handler.OrderHandler,
	robotHandler *handler.RobotHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Attachment transfer operations
		transfers := v1.Group("/transfers")
		{
			transfers.POST("", transferHandler.Create)
			transfers.POST("/process-pending", transferHandler.ProcessPending)
			transfers.GET("", transferHandler.List)
			transfers.GET("/:id", transferHandler.GetByID)
		}

		// Order closure operations
		closures := v1.Group("/closures")
		{
			closures.POST("", closureHandler.Create)
			closures.POST("/retry-failed", closureHandler.RetryFailed)
			closures.GET("", closureHandler.List)
			closures.GET("/:id", closureHandler.GetByID)
		}

		// Purchase-order full flow
		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.Create)
			orders.POST("/:id/advance", orderHandler.Advance)
		}

		// Reconciliation robot
		v1.POST("/robot/scan", robotHandler.Scan)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
