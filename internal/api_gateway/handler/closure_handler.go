package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/api_gateway/service"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// ClosureHandler handles HTTP requests for order closure operations
type ClosureHandler struct {
	closureService service.ClosureService
	logger         *slog.Logger
}

// NewClosureHandler creates a new closure handler
func NewClosureHandler(logger *slog.Logger, closureService service.ClosureService) *ClosureHandler {
	return &ClosureHandler{
		closureService: closureService,
		logger:         logger,
	}
}

// Create submits an order closure. Async requests are dispatched and answered
// with 202; synchronous ones run the closure and return the record, whose
// status carries the outcome.
func (h *ClosureHandler) Create(c *gin.Context) {
	var req CreateClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.closureService.SubmitClosure(
		c.Request.Context(),
		req.OrderNumber,
		req.OrderItem,
		req.InvoiceNumber,
		req.InvoiceID,
		req.Async,
	)
	if err != nil {
		h.logger.Error("Failed to submit closure", "order_number", req.OrderNumber, "error", err)
		RespondInternalError(c)
		return
	}

	if req.Async {
		RespondAccepted(c, mapClosureRecordToResponse(record))
		return
	}
	RespondOK(c, mapClosureRecordToResponse(record))
}

// RetryFailed sweeps retry-eligible closure records and reports the outcome
func (h *ClosureHandler) RetryFailed(c *gin.Context) {
	var params SweepParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid sweep parameters", "error", err)
		RespondBadRequest(c, "Invalid sweep parameters")
		return
	}

	report, err := h.closureService.RetryFailed(c.Request.Context(), params.Limit)
	if err != nil {
		h.logger.Error("Failed to retry closures", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, report)
}

// GetByID retrieves a closure record by its ID, returns 404 if not found
func (h *ClosureHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid closure record ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid closure record ID")
		return
	}

	record, err := h.closureService.GetClosureByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get closure record", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	if record == nil {
		RespondNotFound(c, "Closure record not found")
		return
	}

	RespondOK(c, mapClosureRecordToResponse(record))
}

// List retrieves closure records filtered by status with pagination
func (h *ClosureHandler) List(c *gin.Context) {
	var params ListRecordsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid list parameters", "error", err)
		RespondBadRequest(c, "Invalid list parameters")
		return
	}

	records, err := h.closureService.ListClosures(c.Request.Context(), shared.RecordStatus(params.Status), params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list closure records", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]ClosureRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapClosureRecordToResponse(record))
	}

	RespondWithList(c, responses, params.Page, params.PerPage, len(responses))
}

// mapClosureRecordToResponse maps a closure record to its response DTO
func mapClosureRecordToResponse(record *closure.Record) ClosureRecordResponse {
	response := ClosureRecordResponse{
		ID:            record.ID.String(),
		OrderNumber:   record.OrderNumber,
		OrderItem:     record.OrderItem,
		InvoiceNumber: record.InvoiceNumber,
		InvoiceID:     record.InvoiceID,
		Status:        string(record.Status),
		AttemptCount:  record.AttemptCount,
		MaxAttempts:   record.MaxAttempts,
		ErrorMessage:  record.ErrorMessage,
		Details:       record.Details,
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     record.UpdatedAt.Format(time.RFC3339),
	}

	if record.CompletedAt != nil {
		response.CompletedAt = record.CompletedAt.Format(time.RFC3339)
	}

	return response
}
