package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/engine"
)

// EngineTaskExecutor dispatches task requests to the matching engine
type EngineTaskExecutor struct {
	transfers engine.TransferEngine
	closures  engine.ClosureEngine
	orders    engine.OrderOrchestrator
	robot     engine.ReconciliationRobot
	logger    *slog.Logger
}

// NewEngineTaskExecutor creates a new task executor
func NewEngineTaskExecutor(
	logger *slog.Logger,
	transfers engine.TransferEngine,
	closures engine.ClosureEngine,
	orders engine.OrderOrchestrator,
	robot engine.ReconciliationRobot,
) *EngineTaskExecutor {
	return &EngineTaskExecutor{
		transfers: transfers,
		closures:  closures,
		orders:    orders,
		robot:     robot,
		logger:    logger,
	}
}

// Execute runs one task. Business outcomes (lost claims, orders not yet
// terminal) are logged and swallowed so the message commits; only errors
// worth a redelivery surface.
func (e *EngineTaskExecutor) Execute(ctx context.Context, task *shared.TaskRequest) error {
	logger := e.logger.With("task_id", task.TaskID.String(), "operation", task.Operation)
	if task.CorrelationID != "" {
		logger = logger.With("correlation_id", task.CorrelationID)
	}

	switch task.Operation {
	case shared.OperationTransferRun:
		var args shared.TransferArgs
		if err := json.Unmarshal(task.Args, &args); err != nil {
			return fmt.Errorf("decoding transfer args: %w", err)
		}
		pair := transfer.Pair{
			SourceTable: args.SourceTable,
			SourceID:    args.SourceID,
			DestTable:   args.DestTable,
			DestID:      args.DestID,
		}
		record, err := e.transfers.RunPair(ctx, pair, shared.SyncMethodAutomated)
		if err != nil {
			return fmt.Errorf("running transfer for %s: %w", pair.String(), err)
		}
		logger.Info("Transfer task finished",
			"record_id", record.ID.String(),
			"status", string(record.Status),
		)
		return nil

	case shared.OperationClosureRun:
		var args shared.ClosureArgs
		if err := json.Unmarshal(task.Args, &args); err != nil {
			return fmt.Errorf("decoding closure args: %w", err)
		}
		if err := e.closures.RunByID(ctx, args.RecordID); err != nil {
			if errors.Is(err, engine.ErrNotClaimable) {
				logger.Info("Closure record not claimable, skipping", "record_id", args.RecordID.String())
				return nil
			}
			return fmt.Errorf("running closure %s: %w", args.RecordID.String(), err)
		}
		logger.Info("Closure task finished", "record_id", args.RecordID.String())
		return nil

	case shared.OperationOrdersAdvance:
		var args shared.AdvanceArgs
		if err := json.Unmarshal(task.Args, &args); err != nil {
			return fmt.Errorf("decoding advance args: %w", err)
		}
		fm, err := e.orders.AdvanceToFinance(ctx, args.OrderIntegrationID)
		if err != nil {
			if errors.Is(err, engine.ErrOrderNotTerminal) {
				// The order poller picks it up once the order finishes.
				logger.Info("Order not terminal yet, deferring to poller",
					"order_integration_id", args.OrderIntegrationID.String(),
				)
				return nil
			}
			return fmt.Errorf("advancing order %s: %w", args.OrderIntegrationID.String(), err)
		}
		logger.Info("Advance task finished",
			"order_integration_id", args.OrderIntegrationID.String(),
			"remote_payable_id", fm.RemotePayableID,
		)
		return nil

	case shared.OperationRobotScan:
		report, err := e.robot.ScanAndBackfill(ctx)
		if err != nil {
			return fmt.Errorf("running reconciliation scan: %w", err)
		}
		logger.Info("Scan task finished",
			"pages_scanned", report.PagesScanned,
			"entities_seen", report.EntitiesSeen,
			"payables_created", report.PayablesCreated,
			"errors", len(report.Errors),
		)
		return nil

	default:
		return fmt.Errorf("%w: %s", shared.ErrUnknownOperation, task.Operation)
	}
}
