package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/procure-finance-sync/internal/config"
	"github.com/procure-finance-sync/internal/domain/integration"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/platform/remote"
)

// EntityError records one source entity the robot could not backfill
type EntityError struct {
	SourceRecordID int64  `json:"source_record_id"`
	RemoteOrderID  int64  `json:"remote_order_id,omitempty"`
	Error          string `json:"error"`
}

// ScanReport summarizes one reconciliation scan
type ScanReport struct {
	PagesScanned     int           `json:"pages_scanned"`
	EntitiesSeen     int           `json:"entities_seen"`
	Skipped          int           `json:"skipped"`
	OrdersDiscovered int           `json:"orders_discovered"`
	PayablesCreated  int           `json:"payables_created"`
	AlreadySynced    int           `json:"already_synced"`
	TransfersRun     int           `json:"transfers_run"`
	Errors           []EntityError `json:"errors,omitempty"`
}

type reconciliationRobot struct {
	orders      order.Repository
	financeMaps order.FinanceMapRepository
	maps        integration.Repository
	transfers   TransferEngine
	client      remote.Client
	remoteCfg   *config.RemoteConfig
	logger      *slog.Logger
}

// NewReconciliationRobot creates the batch reconciliation robot
func NewReconciliationRobot(
	logger *slog.Logger,
	orders order.Repository,
	financeMaps order.FinanceMapRepository,
	maps integration.Repository,
	transfers TransferEngine,
	client remote.Client,
	remoteCfg *config.RemoteConfig,
) ReconciliationRobot {
	return &reconciliationRobot{
		orders:      orders,
		financeMaps: financeMaps,
		maps:        maps,
		transfers:   transfers,
		client:      client,
		remoteCfg:   remoteCfg,
		logger:      logger,
	}
}

// ScanAndBackfill pages through the source system's receipt listing and
// backfills payables and attachments for entities the event-driven flow never
// saw. Per-entity failures are collected in the report and never stop the scan.
func (r *reconciliationRobot) ScanAndBackfill(ctx context.Context) (*ScanReport, error) {
	report := &ScanReport{}
	r.logger.Info("Reconciliation scan started", "page_size", r.remoteCfg.PageSize)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		entities, err := r.client.ListSourceEntities(ctx, page, r.remoteCfg.PageSize, nil)
		if err != nil {
			// A listing failure ends the scan; what was processed stands.
			r.logger.Error("Failed to list source entities", "page", page, "error", err)
			return report, fmt.Errorf("failed to list source entities on page %d: %w", page, err)
		}
		if len(entities) == 0 {
			break
		}

		report.PagesScanned++
		report.EntitiesSeen += len(entities)

		for _, entity := range entities {
			// Entities still missing either identifier are not actionable
			// yet; a later scan picks them up once both are present.
			if entity.RemoteOrderID == 0 || entity.SourceRecordID == 0 {
				report.Skipped++
				r.logger.Debug("Skipping incomplete source entity",
					"source_record_id", entity.SourceRecordID,
					"remote_order_id", entity.RemoteOrderID,
				)
				continue
			}
			if err := r.processEntity(ctx, entity, report); err != nil {
				report.Errors = append(report.Errors, EntityError{
					SourceRecordID: entity.SourceRecordID,
					RemoteOrderID:  entity.RemoteOrderID,
					Error:          err.Error(),
				})
				r.logger.Warn("Failed to backfill source entity",
					"source_record_id", entity.SourceRecordID,
					"remote_order_id", entity.RemoteOrderID,
					"error", err,
				)
			}
		}
	}

	r.logger.Info("Reconciliation scan finished",
		"pages", report.PagesScanned,
		"entities", report.EntitiesSeen,
		"skipped", report.Skipped,
		"orders_discovered", report.OrdersDiscovered,
		"payables_created", report.PayablesCreated,
		"already_synced", report.AlreadySynced,
		"transfers_run", report.TransfersRun,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (r *reconciliationRobot) processEntity(ctx context.Context, entity remote.SourceEntity, report *ScanReport) error {
	existing, err := r.orders.GetByRemoteOrderID(ctx, entity.RemoteOrderID)
	if err != nil {
		return err
	}

	oi := existing
	if oi == nil {
		oi, err = r.orders.GetOrCreateByRemoteOrderID(ctx, entity.RemoteOrderID, shared.OrderOriginExternal, shared.CreationMethodBatch)
		if err != nil {
			return err
		}
		report.OrdersDiscovered++
	}

	fm, err := r.financeMaps.GetByOrderIntegrationID(ctx, oi.ID)
	if err != nil {
		return err
	}
	if fm != nil {
		report.AlreadySynced++
		return nil
	}

	payableID, err := r.client.CreatePayable(ctx, remote.PayablePayload{
		IntegrationCode: fmt.Sprintf("SCAN-%d", entity.SourceRecordID),
		VendorRef:       entity.VendorRef,
		Amount:          entity.Amount,
		DueDate:         entity.DueDate,
		DocumentNumber:  entity.InvoiceNumber,
	})
	if err != nil {
		return fmt.Errorf("failed to create payable: %w", err)
	}

	fm = order.NewFinanceMap(oi.ID, payableID, shared.CreationMethodBatch)
	if err := r.financeMaps.Create(ctx, fm); err != nil {
		var dup order.ErrDuplicateFinanceMap
		if errors.As(err, &dup) {
			r.logger.Warn("Concurrent backfill created a duplicate payable",
				"order_integration_id", oi.ID.String(),
				"orphaned_payable_id", payableID,
			)
			report.AlreadySynced++
			return nil
		}
		return err
	}
	report.PayablesCreated++

	if _, err := r.maps.GetOrCreate(ctx, entity.SourceRecordID, payableID, entity.InvoiceNumber); err != nil {
		r.logger.Warn("Failed to record integration map", "source_record_id", entity.SourceRecordID, "error", err)
	}

	pair := transfer.Pair{
		SourceTable: TableGoodsReceipt,
		SourceID:    entity.SourceRecordID,
		DestTable:   TablePayable,
		DestID:      payableID,
	}
	record, err := r.transfers.RunPair(ctx, pair, shared.SyncMethodBatchScan)
	if err != nil {
		fm.LastError = err.Error()
	} else {
		report.TransfersRun++
		fm.AttachmentsSynced = record.Status == shared.RecordStatusSuccess
		fm.LastError = record.ErrorMessage
	}

	if err := r.financeMaps.UpdateSyncState(ctx, fm); err != nil {
		r.logger.Error("Failed to update finance map sync state", "finance_map_id", fm.ID.String(), "error", err)
	}

	return nil
}
