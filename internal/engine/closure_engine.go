package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/config"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/platform/messaging/producers"
	"github.com/procure-finance-sync/internal/platform/remote"
)

type closureEngine struct {
	records    closure.Repository
	client     remote.Client
	remoteCfg  *config.RemoteConfig
	dispatcher producers.MessagePublisher // nil when async dispatch is disabled
	logger     *slog.Logger
}

// NewClosureEngine creates the order closure engine
func NewClosureEngine(
	logger *slog.Logger,
	records closure.Repository,
	client remote.Client,
	remoteCfg *config.RemoteConfig,
	dispatcher producers.MessagePublisher,
) ClosureEngine {
	return &closureEngine{
		records:    records,
		client:     client,
		remoteCfg:  remoteCfg,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Submit records a closure request and optionally dispatches its execution
func (e *closureEngine) Submit(ctx context.Context, orderNumber, orderItem, invoiceNumber string, invoiceID int64, dispatch bool) (*closure.Record, error) {
	record := closure.NewRecord(orderNumber, orderItem, invoiceNumber, invoiceID)
	if err := e.records.Create(ctx, record); err != nil {
		return nil, err
	}

	e.logger.Info("Closure request recorded",
		"record_id", record.ID.String(),
		"order_number", orderNumber,
		"invoice_number", invoiceNumber,
	)

	if dispatch && e.dispatcher != nil {
		task, err := shared.NewTaskRequest(shared.OperationClosureRun, shared.ClosureArgs{
			RecordID:      record.ID,
			OrderNumber:   orderNumber,
			OrderItem:     orderItem,
			InvoiceNumber: invoiceNumber,
			InvoiceID:     invoiceID,
		}, "")
		if err != nil {
			return nil, fmt.Errorf("failed to build closure task: %w", err)
		}
		if err := e.dispatcher.Publish(ctx, task.TaskID.String(), task); err != nil {
			// The record exists and will be swept by the retry poller.
			e.logger.Error("Failed to dispatch closure task", "record_id", record.ID.String(), "error", err)
		}
	}

	return record, nil
}

// Run executes one closure attempt. An order already at a terminal status is
// a successful no-op; the remote state is the source of truth.
func (e *closureEngine) Run(ctx context.Context, record *closure.Record) error {
	claimed, err := e.records.ClaimProcessing(ctx, record)
	if err != nil {
		return err
	}
	if !claimed {
		e.logger.Debug("Closure record not claimable", "record_id", record.ID.String())
		return ErrNotClaimable
	}

	logger := e.logger.With("record_id", record.ID.String(), "order_number", record.OrderNumber, "attempt", record.AttemptCount)
	logger.Info("Running order closure")

	info, err := e.client.QueryOrderByNumber(ctx, record.OrderNumber)
	if err != nil {
		return e.fail(ctx, record, fmt.Sprintf("failed to query order: %v", err))
	}

	statusBefore := info.Status
	if e.remoteCfg.IsTerminalStatus(statusBefore) {
		logger.Info("Order already at a terminal status", "status", statusBefore)
		record.MarkSuccess(map[string]interface{}{
			closure.DetailMessage:      "order already closed",
			closure.DetailStatusBefore: statusBefore,
			closure.DetailStatusAfter:  statusBefore,
		})
		return e.records.SaveOutcome(ctx, record)
	}

	if err := e.client.CloseOrder(ctx, record.OrderNumber, record.OrderItem); err != nil {
		return e.fail(ctx, record, fmt.Sprintf("failed to close order: %v", err))
	}

	// Best-effort re-query for the resulting status.
	statusAfter := e.remoteCfg.CloseStatus
	if after, err := e.client.QueryOrderByNumber(ctx, record.OrderNumber); err == nil {
		statusAfter = after.Status
	} else {
		logger.Warn("Failed to re-query order after close", "error", err)
	}

	record.MarkSuccess(map[string]interface{}{
		closure.DetailMessage:      "order closed",
		closure.DetailStatusBefore: statusBefore,
		closure.DetailStatusAfter:  statusAfter,
	})
	if err := e.records.SaveOutcome(ctx, record); err != nil {
		return err
	}

	logger.Info("Order closure finished", "status_before", statusBefore, "status_after", statusAfter)
	return nil
}

// RunByID loads and runs a closure record
func (e *closureEngine) RunByID(ctx context.Context, id uuid.UUID) error {
	record, err := e.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return e.Run(ctx, record)
}

// RetryFailed sweeps retry-eligible closure records
func (e *closureEngine) RetryFailed(ctx context.Context, limit int) (*ProcessReport, error) {
	records, err := e.records.ListRetryable(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &ProcessReport{Examined: len(records)}
	for _, record := range records {
		err := e.Run(ctx, record)
		switch {
		case errors.Is(err, ErrNotClaimable):
			report.Skipped++
		case err != nil:
			report.Failed++
			e.logger.Error("Failed to reprocess closure record", "record_id", record.ID.String(), "error", err)
		default:
			report.Executed++
			if record.Status == shared.RecordStatusSuccess {
				report.Succeeded++
			} else {
				report.Failed++
			}
		}
	}

	e.logger.Info("Closure reprocessing sweep finished",
		"examined", report.Examined,
		"executed", report.Executed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (e *closureEngine) fail(ctx context.Context, record *closure.Record, msg string) error {
	e.logger.Error("Order closure failed", "record_id", record.ID.String(), "order_number", record.OrderNumber, "reason", msg)
	record.MarkFailed(msg)
	return e.records.SaveOutcome(ctx, record)
}
