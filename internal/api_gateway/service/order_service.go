package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/engine"
	"github.com/procure-finance-sync/internal/platform/messaging/producers"
)

// OrderServiceImpl implements the OrderService interface
type OrderServiceImpl struct {
	orchestrator engine.OrderOrchestrator
	producer     producers.MessagePublisher
	logger       *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(logger *slog.Logger, orchestrator engine.OrderOrchestrator, producer producers.MessagePublisher) OrderService {
	return &OrderServiceImpl{
		orchestrator: orchestrator,
		producer:     producer,
		logger:       logger,
	}
}

// CreateOrder runs the full-flow order creation inline. The remote call is the
// slow part and its result decides the response, so there is no async variant.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, input engine.CreateOrderInput) (*order.Integration, error) {
	return s.orchestrator.CreateOrderWithAttachments(ctx, input)
}

// AdvanceOrder advances a terminal order into finance, inline or via task
func (s *OrderServiceImpl) AdvanceOrder(ctx context.Context, orderIntegrationID uuid.UUID, async bool, correlationID string) (*order.FinanceMap, string, error) {
	if !async {
		fm, err := s.orchestrator.AdvanceToFinance(ctx, orderIntegrationID)
		if err != nil {
			return nil, "", err
		}
		return fm, "", nil
	}

	task, err := shared.NewTaskRequest(shared.OperationOrdersAdvance, shared.AdvanceArgs{OrderIntegrationID: orderIntegrationID}, correlationID)
	if err != nil {
		return nil, "", err
	}

	if err := s.producer.Publish(ctx, task.TaskID.String(), task); err != nil {
		s.logger.Error("Failed to publish advance task",
			"order_integration_id", orderIntegrationID.String(),
			"error", err,
		)
		return nil, "", err
	}

	s.logger.Info("Advance task published",
		"task_id", task.TaskID.String(),
		"order_integration_id", orderIntegrationID.String(),
	)
	return nil, task.TaskID.String(), nil
}
