// Package service exposes the gateway-facing application services. They sit
// between the HTTP handlers and the engines, deciding between inline execution
// and task dispatch.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/engine"
)

// TransferService exposes transfer registration, execution and read access
type TransferService interface {
	// StartTransfer registers the pair and either dispatches a transfer.run
	// task (async) or runs the transfer inline (sync).
	StartTransfer(ctx context.Context, pair transfer.Pair, invoiceNumber string, async bool) (*engine.Registration, error)

	// ProcessPending sweeps retry-eligible transfer records inline.
	ProcessPending(ctx context.Context, limit int) (*engine.ProcessReport, error)

	// GetTransferByID returns nil when no record exists for the id.
	GetTransferByID(ctx context.Context, id uuid.UUID) (*transfer.Record, error)

	// ListTransfers returns records filtered by status (all when empty).
	ListTransfers(ctx context.Context, status shared.RecordStatus, page, perPage int) ([]*transfer.Record, error)
}

// ClosureService exposes closure submission, retries and read access
type ClosureService interface {
	// SubmitClosure records the closure request and either dispatches a
	// closure.run task (async) or executes the closure inline (sync).
	SubmitClosure(ctx context.Context, orderNumber, orderItem, invoiceNumber string, invoiceID int64, async bool) (*closure.Record, error)

	// RetryFailed sweeps retry-eligible closure records inline.
	RetryFailed(ctx context.Context, limit int) (*engine.ProcessReport, error)

	// GetClosureByID returns nil when no record exists for the id.
	GetClosureByID(ctx context.Context, id uuid.UUID) (*closure.Record, error)

	// ListClosures returns records filtered by status (all when empty).
	ListClosures(ctx context.Context, status shared.RecordStatus, page, perPage int) ([]*closure.Record, error)
}

// OrderService exposes the purchase-order full flow
type OrderService interface {
	// CreateOrder creates the order remotely and attaches its documents.
	CreateOrder(ctx context.Context, input engine.CreateOrderInput) (*order.Integration, error)

	// AdvanceOrder advances a terminal order into finance. Async requests
	// dispatch an orders.advance task and return its task ID with a nil map.
	AdvanceOrder(ctx context.Context, orderIntegrationID uuid.UUID, async bool, correlationID string) (*order.FinanceMap, string, error)
}

// RobotService triggers reconciliation scans
type RobotService interface {
	// TriggerScan dispatches a robot.scan task and returns its task ID.
	TriggerScan(ctx context.Context, correlationID string) (string, error)
}
