// Package engine implements the synchronization engines: attachment transfer,
// order closure, the purchase-order full flow and the reconciliation robot.
package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
)

// ErrNotClaimable signals that a record could not be claimed for processing:
// it was claimed concurrently, already finished, or exhausted its retry budget.
var ErrNotClaimable = errors.New("record is not claimable")

// ErrOrderNotTerminal signals that an order has not reached a terminal remote
// status yet and cannot be advanced to finance.
var ErrOrderNotTerminal = errors.New("order has not reached a terminal status")

// Entity table names used on the remote wire
const (
	TableGoodsReceipt = "recebimento-nfe"
	TableOrder        = "pedido-compra"
	TablePayable      = "conta-pagar"
)

// Registration is the result of registering a transfer mapping
type Registration struct {
	Record     *transfer.Record `json:"record"`
	Created    bool             `json:"created"`
	Dispatched bool             `json:"dispatched"`
}

// ProcessReport summarizes one batch reprocessing sweep
type ProcessReport struct {
	Examined  int `json:"examined"`
	Executed  int `json:"executed"`
	Skipped   int `json:"skipped"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// TransferEngine copies attachment sets between entities with deduplication
// and durable retry bookkeeping.
type TransferEngine interface {
	// RegisterMapping ensures an integration map exists for the pair, then
	// resolves or creates its transfer record. An existing successful record
	// is returned as-is; an existing pending or failed record is reused.
	// When dispatch is true a transfer.run task is published for new or
	// reused records.
	RegisterMapping(ctx context.Context, pair transfer.Pair, invoiceNumber string, dispatch bool) (*Registration, error)

	// Run executes one transfer attempt against a claimed record. Returns
	// ErrNotClaimable when the record cannot be claimed. Business failures
	// are recorded on the record and do not surface as errors.
	Run(ctx context.Context, record *transfer.Record, method shared.SyncMethod) error

	// RunPair resolves the record for a pair and runs it. An already
	// successful pair is a no-op returning the successful record.
	RunPair(ctx context.Context, pair transfer.Pair, method shared.SyncMethod) (*transfer.Record, error)

	// ProcessPending sweeps retry-eligible records and runs each inline.
	ProcessPending(ctx context.Context, limit int) (*ProcessReport, error)
}

// ClosureEngine drives remote purchase-order closure triggered by invoices
type ClosureEngine interface {
	// Submit records a closure request; when dispatch is true a closure.run
	// task is published for asynchronous execution.
	Submit(ctx context.Context, orderNumber, orderItem, invoiceNumber string, invoiceID int64, dispatch bool) (*closure.Record, error)

	// Run executes one closure attempt against a claimed record.
	Run(ctx context.Context, record *closure.Record) error

	// RunByID loads and runs a closure record.
	RunByID(ctx context.Context, id uuid.UUID) error

	// RetryFailed sweeps retry-eligible closure records.
	RetryFailed(ctx context.Context, limit int) (*ProcessReport, error)
}

// OrderOrchestrator implements the purchase-order full flow: create the order
// remotely, attach documents, and advance finished orders into finance.
type OrderOrchestrator interface {
	CreateOrderWithAttachments(ctx context.Context, input CreateOrderInput) (*order.Integration, error)

	// AdvanceToFinance creates the payable for a terminal order and
	// replicates its attachments. Idempotent: an order that already owns a
	// finance map returns it unchanged. Returns ErrOrderNotTerminal while
	// the order is still open.
	AdvanceToFinance(ctx context.Context, orderIntegrationID uuid.UUID) (*order.FinanceMap, error)

	// ProcessPendingOrders sweeps internal orders without a finance map and
	// advances those that reached a terminal status.
	ProcessPendingOrders(ctx context.Context, limit int) (*ProcessReport, error)
}

// ReconciliationRobot scans the source system for entities that slipped past
// the event-driven flow and backfills their payables and attachments.
type ReconciliationRobot interface {
	ScanAndBackfill(ctx context.Context) (*ScanReport, error)
}
