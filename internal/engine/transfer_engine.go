package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/procure-finance-sync/internal/domain/integration"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/synclog"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/platform/messaging/producers"
	"github.com/procure-finance-sync/internal/platform/remote"
)

type transferEngine struct {
	records    transfer.Repository
	syncLog    synclog.Repository
	maps       integration.Repository
	client     remote.Client
	dispatcher producers.MessagePublisher // nil when async dispatch is disabled
	logger     *slog.Logger
}

// NewTransferEngine creates the attachment transfer engine. dispatcher may be
// nil, in which case RegisterMapping never publishes tasks.
func NewTransferEngine(
	logger *slog.Logger,
	records transfer.Repository,
	syncLog synclog.Repository,
	maps integration.Repository,
	client remote.Client,
	dispatcher producers.MessagePublisher,
) TransferEngine {
	return &transferEngine{
		records:    records,
		syncLog:    syncLog,
		maps:       maps,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterMapping ensures the durable integration map for the pair and
// resolves or creates its transfer record.
func (e *transferEngine) RegisterMapping(ctx context.Context, pair transfer.Pair, invoiceNumber string, dispatch bool) (*Registration, error) {
	if _, err := e.maps.GetOrCreate(ctx, pair.SourceID, pair.DestID, invoiceNumber); err != nil {
		return nil, fmt.Errorf("failed to ensure integration map for %s: %w", pair.String(), err)
	}

	successful, err := e.records.GetSuccessfulByPair(ctx, pair)
	if err != nil {
		return nil, err
	}
	if successful != nil {
		e.logger.Debug("Transfer already completed for pair", "pair", pair.String())
		return &Registration{Record: successful}, nil
	}

	record, err := e.records.GetReusableByPair(ctx, pair)
	if err != nil {
		return nil, err
	}

	created := false
	if record == nil {
		record = transfer.NewRecord(pair)
		if err := e.records.Create(ctx, record); err != nil {
			return nil, err
		}
		created = true
		e.logger.Info("Registered transfer mapping", "pair", pair.String(), "record_id", record.ID.String())
	} else {
		e.logger.Debug("Reusing existing transfer record", "pair", pair.String(), "record_id", record.ID.String())
	}

	dispatched := false
	if dispatch && e.dispatcher != nil {
		task, err := shared.NewTaskRequest(shared.OperationTransferRun, shared.TransferArgs{
			SourceTable: pair.SourceTable,
			SourceID:    pair.SourceID,
			DestTable:   pair.DestTable,
			DestID:      pair.DestID,
		}, "")
		if err != nil {
			return nil, fmt.Errorf("failed to build transfer task: %w", err)
		}
		if err := e.dispatcher.Publish(ctx, task.TaskID.String(), task); err != nil {
			// The record exists and will be swept by the retry poller.
			e.logger.Error("Failed to dispatch transfer task", "pair", pair.String(), "error", err)
		} else {
			dispatched = true
		}
	}

	return &Registration{Record: record, Created: created, Dispatched: dispatched}, nil
}

// Run executes one transfer attempt against the record. Remote failures are
// captured on the record; only persistence failures surface as errors so the
// caller's delivery layer can retry them.
func (e *transferEngine) Run(ctx context.Context, record *transfer.Record, method shared.SyncMethod) error {
	claimed, err := e.records.ClaimProcessing(ctx, record)
	if err != nil {
		return err
	}
	if !claimed {
		e.logger.Debug("Transfer record not claimable", "record_id", record.ID.String(), "pair", record.Pair.String())
		return ErrNotClaimable
	}

	logger := e.logger.With("record_id", record.ID.String(), "pair", record.Pair.String(), "attempt", record.AttemptCount)
	logger.Info("Running attachment transfer")
	start := time.Now()

	source, err := e.client.ListAttachments(ctx, record.Pair.SourceTable, record.Pair.SourceID)
	if err != nil {
		return e.fail(ctx, record, fmt.Sprintf("failed to list source attachments: %v", err))
	}

	dest, err := e.client.ListAttachments(ctx, record.Pair.DestTable, record.Pair.DestID)
	if err != nil {
		return e.fail(ctx, record, fmt.Sprintf("failed to list destination attachments: %v", err))
	}

	// Two dedup sets: loose match by name, strict match by name and size.
	// An attachment matching either is already present at the destination.
	destNames := make(map[string]struct{}, len(dest))
	destNameSizes := make(map[string]struct{}, len(dest))
	for _, d := range dest {
		destNames[d.Name] = struct{}{}
		destNameSizes[nameSizeKey(d.Name, d.Size)] = struct{}{}
	}

	record.TotalItems = len(source)
	record.SetDetail(transfer.DetailSourceCount, len(source))
	record.SetDetail(transfer.DetailDestInitialCount, len(dest))
	if err := e.records.SaveProgress(ctx, record); err != nil {
		return err
	}

	var (
		transferred     []transfer.TransferredItem
		duplicates      int
		noContent       int
		inclusionErrors int
	)

	for _, att := range source {
		if _, ok := destNames[att.Name]; ok {
			duplicates++
			continue
		}
		if _, ok := destNameSizes[nameSizeKey(att.Name, att.Size)]; ok {
			duplicates++
			continue
		}

		content, err := e.client.FetchAttachmentContent(ctx, record.Pair.SourceTable, record.Pair.SourceID, att)
		if err != nil {
			noContent++
			if !errors.Is(err, remote.ErrContentUnavailable) {
				logger.Warn("Failed to fetch attachment content", "file", att.Name, "error", err)
			}
			e.audit(ctx, record.Pair, method, att.Name, shared.SyncOutcomeFailed, err.Error())
			continue
		}

		description := fmt.Sprintf("Copied from %s:%d", record.Pair.SourceTable, record.Pair.SourceID)
		if err := e.client.AddAttachment(ctx, record.Pair.DestTable, record.Pair.DestID, att.Name, content, description); err != nil {
			inclusionErrors++
			logger.Warn("Failed to include attachment at destination", "file", att.Name, "error", err)
			e.audit(ctx, record.Pair, method, att.Name, shared.SyncOutcomeFailed, err.Error())
			continue
		}

		transferred = append(transferred, transfer.TransferredItem{
			Name:      att.Name,
			SourceRef: fmt.Sprintf("%d", att.SourceRef),
			Size:      att.Size,
		})
		destNames[att.Name] = struct{}{}
		e.audit(ctx, record.Pair, method, att.Name, shared.SyncOutcomeSuccess, "")
	}

	// The attempt completed: per-item misses are counted, not fatal.
	record.SetDetail(transfer.DetailDuplicates, duplicates)
	record.SetDetail(transfer.DetailNoContent, noContent)
	record.SetDetail(transfer.DetailInclusionErrors, inclusionErrors)
	record.SetDetail(transfer.DetailElapsedMS, time.Since(start).Milliseconds())
	record.MarkSuccess(transferred)

	if err := e.records.SaveOutcome(ctx, record); err != nil {
		return err
	}

	logger.Info("Attachment transfer finished",
		"copied", len(transferred),
		"duplicates", duplicates,
		"no_content", noContent,
		"inclusion_errors", inclusionErrors,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// RunPair resolves the record for a pair and runs it
func (e *transferEngine) RunPair(ctx context.Context, pair transfer.Pair, method shared.SyncMethod) (*transfer.Record, error) {
	successful, err := e.records.GetSuccessfulByPair(ctx, pair)
	if err != nil {
		return nil, err
	}
	if successful != nil {
		return successful, nil
	}

	record, err := e.records.GetReusableByPair(ctx, pair)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = transfer.NewRecord(pair)
		if err := e.records.Create(ctx, record); err != nil {
			return nil, err
		}
	}

	if err := e.Run(ctx, record, method); err != nil {
		if errors.Is(err, ErrNotClaimable) {
			return record, nil
		}
		return nil, err
	}
	return record, nil
}

// ProcessPending sweeps retry-eligible records and runs each inline
func (e *transferEngine) ProcessPending(ctx context.Context, limit int) (*ProcessReport, error) {
	records, err := e.records.ListRetryable(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &ProcessReport{Examined: len(records)}
	for _, record := range records {
		err := e.Run(ctx, record, shared.SyncMethodAutomated)
		switch {
		case errors.Is(err, ErrNotClaimable):
			report.Skipped++
		case err != nil:
			report.Failed++
			e.logger.Error("Failed to reprocess transfer record", "record_id", record.ID.String(), "error", err)
		default:
			report.Executed++
			if record.Status == shared.RecordStatusSuccess {
				report.Succeeded++
			} else {
				report.Failed++
			}
		}
	}

	e.logger.Info("Transfer reprocessing sweep finished",
		"examined", report.Examined,
		"executed", report.Executed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// fail records a failed attempt. The returned error is nil unless the outcome
// itself could not be persisted.
func (e *transferEngine) fail(ctx context.Context, record *transfer.Record, msg string) error {
	e.logger.Error("Attachment transfer failed", "record_id", record.ID.String(), "pair", record.Pair.String(), "reason", msg)
	record.MarkFailed(msg)
	return e.records.SaveOutcome(ctx, record)
}

// audit appends a sync log entry. Audit failures never break a run.
func (e *transferEngine) audit(ctx context.Context, pair transfer.Pair, method shared.SyncMethod, fileName string, outcome shared.SyncOutcome, errMsg string) {
	entry := synclog.NewEntry(pair.SourceTable, pair.SourceID, pair.DestTable, pair.DestID, method, fileName, outcome, errMsg)
	if err := e.syncLog.Create(ctx, entry); err != nil {
		e.logger.Warn("Failed to write sync log entry", "file", fileName, "error", err)
	}
}

func nameSizeKey(name string, size int64) string {
	return fmt.Sprintf("%s|%d", name, size)
}
