package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/config"
	"github.com/procure-finance-sync/internal/domain/integration"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/synclog"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/platform/remote"
)

// AttachmentInput is one document attached during order creation
type AttachmentInput struct {
	Name        string `json:"name"`
	ContentB64  string `json:"content_b64"`
	Description string `json:"description,omitempty"`
}

// CreateOrderInput carries the remote order payload and its documents
type CreateOrderInput struct {
	IntegrationCode string                 `json:"integration_code"`
	Payload         map[string]interface{} `json:"payload"`
	Attachments     []AttachmentInput      `json:"attachments,omitempty"`
}

type orderOrchestrator struct {
	orders      order.Repository
	financeMaps order.FinanceMapRepository
	maps        integration.Repository
	transfers   TransferEngine
	client      remote.Client
	syncLog     synclog.Repository
	remoteCfg   *config.RemoteConfig
	logger      *slog.Logger
}

// NewOrderOrchestrator creates the purchase-order full-flow orchestrator
func NewOrderOrchestrator(
	logger *slog.Logger,
	orders order.Repository,
	financeMaps order.FinanceMapRepository,
	maps integration.Repository,
	transfers TransferEngine,
	client remote.Client,
	syncLog synclog.Repository,
	remoteCfg *config.RemoteConfig,
) OrderOrchestrator {
	return &orderOrchestrator{
		orders:      orders,
		financeMaps: financeMaps,
		maps:        maps,
		transfers:   transfers,
		client:      client,
		syncLog:     syncLog,
		remoteCfg:   remoteCfg,
		logger:      logger,
	}
}

// CreateOrderWithAttachments creates the order remotely, records its
// integration and attaches the supplied documents. Attachment failures do not
// undo order creation; they are retried through the transfer machinery later.
func (o *orderOrchestrator) CreateOrderWithAttachments(ctx context.Context, input CreateOrderInput) (*order.Integration, error) {
	remoteOrderID, err := o.client.CreateOrder(ctx, input.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote order: %w", err)
	}

	oi := order.NewIntegration(remoteOrderID, input.IntegrationCode, shared.OrderOriginInternal, shared.CreationMethodAutomated)
	if err := o.orders.Create(ctx, oi); err != nil {
		var dup order.ErrDuplicateRemoteOrder
		if errors.As(err, &dup) {
			// The remote call was retried upstream; adopt the existing row.
			existing, getErr := o.orders.GetByRemoteOrderID(ctx, remoteOrderID)
			if getErr != nil {
				return nil, getErr
			}
			oi = existing
		} else {
			return nil, err
		}
	}

	logger := o.logger.With("order_integration_id", oi.ID.String(), "remote_order_id", remoteOrderID)
	logger.Info("Order created", "attachments", len(input.Attachments))

	attachFailures := 0
	for _, att := range input.Attachments {
		outcome, errMsg := shared.SyncOutcomeSuccess, ""
		if err := o.client.AddAttachment(ctx, TableOrder, remoteOrderID, att.Name, att.ContentB64, att.Description); err != nil {
			attachFailures++
			outcome, errMsg = shared.SyncOutcomeFailed, err.Error()
			logger.Warn("Failed to attach document to order", "file", att.Name, "error", err)
		}
		entry := synclog.NewEntry("", 0, TableOrder, remoteOrderID, shared.SyncMethodAutomated, att.Name, outcome, errMsg)
		if err := o.syncLog.Create(ctx, entry); err != nil {
			logger.Warn("Failed to write sync log entry", "file", att.Name, "error", err)
		}
	}
	if attachFailures > 0 {
		logger.Warn("Order created with attachment failures", "failed", attachFailures, "total", len(input.Attachments))
	}

	return oi, nil
}

// AdvanceToFinance creates the payable for a terminal order and replicates
// its attachments. The finance map's unique constraint makes concurrent
// advancement converge on a single payable.
func (o *orderOrchestrator) AdvanceToFinance(ctx context.Context, orderIntegrationID uuid.UUID) (*order.FinanceMap, error) {
	oi, err := o.orders.GetByID(ctx, orderIntegrationID)
	if err != nil {
		return nil, err
	}

	existing, err := o.financeMaps.GetByOrderIntegrationID(ctx, oi.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		o.logger.Debug("Order already advanced to finance", "order_integration_id", oi.ID.String())
		if !existing.AttachmentsSynced {
			o.replicateAttachments(ctx, oi, existing, shared.SyncMethodAutomated)
		}
		return existing, nil
	}

	info, err := o.client.QueryOrder(ctx, oi.RemoteOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order %d: %w", oi.RemoteOrderID, err)
	}
	if !o.remoteCfg.IsTerminalStatus(info.Status) {
		return nil, fmt.Errorf("%w: order %d is %q", ErrOrderNotTerminal, oi.RemoteOrderID, info.Status)
	}

	integrationCode := oi.IntegrationCode
	if integrationCode == "" {
		integrationCode = fmt.Sprintf("ORD-%d", oi.RemoteOrderID)
	}

	payableID, err := o.client.CreatePayable(ctx, remote.PayablePayload{
		IntegrationCode: integrationCode,
		VendorRef:       info.VendorRef,
		Amount:          info.TotalAmount,
		DueDate:         info.DueDate,
		DocumentNumber:  info.OrderNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payable for order %d: %w", oi.RemoteOrderID, err)
	}

	fm := order.NewFinanceMap(oi.ID, payableID, shared.CreationMethodAutomated)
	if err := o.financeMaps.Create(ctx, fm); err != nil {
		var dup order.ErrDuplicateFinanceMap
		if errors.As(err, &dup) {
			// A concurrent advancement won. The payable created here is
			// orphaned remotely; surface it in the logs for cleanup.
			o.logger.Warn("Concurrent advancement created a duplicate payable",
				"order_integration_id", oi.ID.String(),
				"orphaned_payable_id", payableID,
			)
			return o.financeMaps.GetByOrderIntegrationID(ctx, oi.ID)
		}
		return nil, err
	}

	if _, err := o.maps.GetOrCreate(ctx, oi.RemoteOrderID, payableID, info.OrderNumber); err != nil {
		o.logger.Warn("Failed to record integration map", "remote_order_id", oi.RemoteOrderID, "error", err)
	}

	o.logger.Info("Order advanced to finance",
		"order_integration_id", oi.ID.String(),
		"remote_order_id", oi.RemoteOrderID,
		"payable_id", payableID,
	)

	o.replicateAttachments(ctx, oi, fm, shared.SyncMethodAutomated)
	return fm, nil
}

// ProcessPendingOrders sweeps internal orders without a finance map
func (o *orderOrchestrator) ProcessPendingOrders(ctx context.Context, limit int) (*ProcessReport, error) {
	pending, err := o.orders.ListWithoutFinanceMap(ctx, shared.OrderOriginInternal, limit)
	if err != nil {
		return nil, err
	}

	report := &ProcessReport{Examined: len(pending)}
	for _, oi := range pending {
		_, err := o.AdvanceToFinance(ctx, oi.ID)
		switch {
		case errors.Is(err, ErrOrderNotTerminal):
			report.Skipped++
		case err != nil:
			report.Failed++
			o.logger.Error("Failed to advance order", "order_integration_id", oi.ID.String(), "error", err)
		default:
			report.Executed++
			report.Succeeded++
		}
	}

	o.logger.Info("Pending order sweep finished",
		"examined", report.Examined,
		"executed", report.Executed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// replicateAttachments copies the order's attachments onto its payable and
// records the result on the finance map. Failures stay on the map for the
// next sweep.
func (o *orderOrchestrator) replicateAttachments(ctx context.Context, oi *order.Integration, fm *order.FinanceMap, method shared.SyncMethod) {
	pair := transfer.Pair{
		SourceTable: TableOrder,
		SourceID:    oi.RemoteOrderID,
		DestTable:   TablePayable,
		DestID:      fm.RemotePayableID,
	}

	record, err := o.transfers.RunPair(ctx, pair, method)
	if err != nil {
		fm.LastError = err.Error()
	} else {
		fm.AttachmentsSynced = record.Status == shared.RecordStatusSuccess
		fm.LastError = record.ErrorMessage
	}

	if err := o.financeMaps.UpdateSyncState(ctx, fm); err != nil {
		o.logger.Error("Failed to update finance map sync state", "finance_map_id", fm.ID.String(), "error", err)
	}
}
