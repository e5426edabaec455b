package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/procure-finance-sync/internal/api_gateway/middleware"
	"github.com/procure-finance-sync/internal/api_gateway/service"
)

// RobotHandler handles HTTP requests triggering reconciliation scans
type RobotHandler struct {
	robotService service.RobotService
	logger       *slog.Logger
}

// NewRobotHandler creates a new robot handler
func NewRobotHandler(logger *slog.Logger, robotService service.RobotService) *RobotHandler {
	return &RobotHandler{
		robotService: robotService,
		logger:       logger,
	}
}

// Scan dispatches a reconciliation scan task and answers with 202
func (h *RobotHandler) Scan(c *gin.Context) {
	taskID, err := h.robotService.TriggerScan(c.Request.Context(), middleware.GetCorrelationID(c))
	if err != nil {
		h.logger.Error("Failed to trigger scan", "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{"task_id": taskID, "status": "ENQUEUED"})
}
