package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/api_gateway/middleware"
	"github.com/procure-finance-sync/internal/api_gateway/service"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/engine"
	"github.com/procure-finance-sync/internal/platform/remote"
)

// OrderHandler handles HTTP requests for the purchase-order full flow
type OrderHandler struct {
	orderService service.OrderService
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(logger *slog.Logger, orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// Create creates the order remotely, records its integration and attaches the
// supplied documents. Remote business faults map to 502.
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input := engine.CreateOrderInput{
		IntegrationCode: req.IntegrationCode,
		Payload:         req.Payload,
	}
	for _, a := range req.Attachments {
		input.Attachments = append(input.Attachments, engine.AttachmentInput{
			Name:        a.Name,
			ContentB64:  a.ContentB64,
			Description: a.Description,
		})
	}

	integration, err := h.orderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		var fault *remote.Fault
		if errors.As(err, &fault) {
			h.logger.Error("Remote fault creating order", "error", err)
			RespondBadGateway(c, fault.Message)
			return
		}
		h.logger.Error("Failed to create order", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapOrderIntegrationToResponse(integration))
}

// Advance advances a terminal order into finance. ?async=true dispatches an
// orders.advance task instead of running inline. Non-terminal orders map to
// 422, unknown orders to 404.
func (h *OrderHandler) Advance(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid order integration ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid order integration ID")
		return
	}

	async := c.Query("async") == "true"

	fm, taskID, err := h.orderService.AdvanceOrder(c.Request.Context(), id, async, middleware.GetCorrelationID(c))
	if err != nil {
		var notFound order.ErrIntegrationNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Order integration not found")
		case errors.Is(err, engine.ErrOrderNotTerminal):
			RespondUnprocessable(c, err.Error())
		default:
			var fault *remote.Fault
			if errors.As(err, &fault) {
				h.logger.Error("Remote fault advancing order", "id", idParam, "error", err)
				RespondBadGateway(c, fault.Message)
				return
			}
			h.logger.Error("Failed to advance order", "id", idParam, "error", err)
			RespondInternalError(c)
		}
		return
	}

	if async {
		RespondAccepted(c, gin.H{"task_id": taskID, "order_integration_id": id.String()})
		return
	}
	RespondOK(c, mapFinanceMapToResponse(fm))
}

// mapOrderIntegrationToResponse maps an order integration to its response DTO
func mapOrderIntegrationToResponse(oi *order.Integration) OrderIntegrationResponse {
	return OrderIntegrationResponse{
		ID:              oi.ID.String(),
		RemoteOrderID:   oi.RemoteOrderID,
		IntegrationCode: oi.IntegrationCode,
		Origin:          string(oi.Origin),
		CreationMethod:  string(oi.CreationMethod),
		CreatedAt:       oi.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       oi.UpdatedAt.Format(time.RFC3339),
	}
}

// mapFinanceMapToResponse maps a finance map to its response DTO
func mapFinanceMapToResponse(fm *order.FinanceMap) FinanceMapResponse {
	return FinanceMapResponse{
		ID:                 fm.ID.String(),
		OrderIntegrationID: fm.OrderIntegrationID.String(),
		RemotePayableID:    fm.RemotePayableID,
		CreationMethod:     string(fm.CreationMethod),
		AttachmentsSynced:  fm.AttachmentsSynced,
		LastError:          fm.LastError,
		CreatedAt:          fm.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          fm.UpdatedAt.Format(time.RFC3339),
	}
}
