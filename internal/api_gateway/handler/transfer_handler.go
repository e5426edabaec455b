package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/api_gateway/service"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
)

// TransferHandler handles HTTP requests for attachment transfer operations
type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, transferService service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Create registers an attachment transfer. Async requests are dispatched and
// answered with 202; synchronous requests run the transfer and return the
// finished record.
func (h *TransferHandler) Create(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pair := transfer.Pair{
		SourceTable: req.SourceTable,
		SourceID:    req.SourceID,
		DestTable:   req.DestTable,
		DestID:      req.DestID,
	}

	registration, err := h.transferService.StartTransfer(c.Request.Context(), pair, req.InvoiceNumber, req.Async)
	if err != nil {
		h.logger.Error("Failed to start transfer", "pair", pair.String(), "error", err)
		RespondInternalError(c)
		return
	}

	response := gin.H{
		"record":     mapTransferRecordToResponse(registration.Record),
		"created":    registration.Created,
		"dispatched": registration.Dispatched,
	}

	if req.Async {
		RespondAccepted(c, response)
		return
	}
	RespondOK(c, response)
}

// ProcessPending sweeps retry-eligible transfer records and reports the outcome
func (h *TransferHandler) ProcessPending(c *gin.Context) {
	var params SweepParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid sweep parameters", "error", err)
		RespondBadRequest(c, "Invalid sweep parameters")
		return
	}

	report, err := h.transferService.ProcessPending(c.Request.Context(), params.Limit)
	if err != nil {
		h.logger.Error("Failed to process pending transfers", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, report)
}

// GetByID retrieves a transfer record by its ID, returns 404 if not found
func (h *TransferHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transfer record ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transfer record ID")
		return
	}

	record, err := h.transferService.GetTransferByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get transfer record", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	if record == nil {
		RespondNotFound(c, "Transfer record not found")
		return
	}

	RespondOK(c, mapTransferRecordToResponse(record))
}

// List retrieves transfer records filtered by status with pagination
func (h *TransferHandler) List(c *gin.Context) {
	var params ListRecordsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid list parameters", "error", err)
		RespondBadRequest(c, "Invalid list parameters")
		return
	}

	records, err := h.transferService.ListTransfers(c.Request.Context(), shared.RecordStatus(params.Status), params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list transfer records", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransferRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapTransferRecordToResponse(record))
	}

	RespondWithList(c, responses, params.Page, params.PerPage, len(responses))
}

// mapTransferRecordToResponse maps a transfer record to its response DTO
func mapTransferRecordToResponse(record *transfer.Record) TransferRecordResponse {
	response := TransferRecordResponse{
		ID:             record.ID.String(),
		SourceTable:    record.Pair.SourceTable,
		SourceID:       record.Pair.SourceID,
		DestTable:      record.Pair.DestTable,
		DestID:         record.Pair.DestID,
		Status:         string(record.Status),
		AttemptCount:   record.AttemptCount,
		MaxAttempts:    record.MaxAttempts,
		TotalItems:     record.TotalItems,
		SucceededItems: record.SucceededItems,
		ErrorMessage:   record.ErrorMessage,
		Details:        record.Details,
		CreatedAt:      record.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      record.UpdatedAt.Format(time.RFC3339),
	}

	for _, item := range record.TransferredItems {
		response.TransferredItems = append(response.TransferredItems, TransferItemResponse{
			Name:      item.Name,
			SourceRef: item.SourceRef,
			Size:      item.Size,
		})
	}

	if record.CompletedAt != nil {
		response.CompletedAt = record.CompletedAt.Format(time.RFC3339)
	}

	return response
}
