package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/engine"
)

// TransferServiceImpl implements the TransferService interface
type TransferServiceImpl struct {
	engine  engine.TransferEngine
	records transfer.Repository
	logger  *slog.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(logger *slog.Logger, eng engine.TransferEngine, records transfer.Repository) TransferService {
	return &TransferServiceImpl{
		engine:  eng,
		records: records,
		logger:  logger,
	}
}

// StartTransfer registers the pair and either dispatches or runs it inline.
// Registration always records the integration map, so the pair fact survives
// even when the inline run fails.
func (s *TransferServiceImpl) StartTransfer(ctx context.Context, pair transfer.Pair, invoiceNumber string, async bool) (*engine.Registration, error) {
	reg, err := s.engine.RegisterMapping(ctx, pair, invoiceNumber, async)
	if err != nil {
		return nil, err
	}
	if async || reg.Record.Status == shared.RecordStatusSuccess {
		return reg, nil
	}

	if err := s.engine.Run(ctx, reg.Record, shared.SyncMethodAutomated); err != nil && !errors.Is(err, engine.ErrNotClaimable) {
		return nil, err
	}
	return reg, nil
}

// ProcessPending sweeps retry-eligible transfer records inline
func (s *TransferServiceImpl) ProcessPending(ctx context.Context, limit int) (*engine.ProcessReport, error) {
	return s.engine.ProcessPending(ctx, limit)
}

// GetTransferByID retrieves a transfer record by its ID. Returns nil if not found
func (s *TransferServiceImpl) GetTransferByID(ctx context.Context, id uuid.UUID) (*transfer.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		var notFound transfer.ErrRecordNotFound
		if errors.As(err, &notFound) {
			s.logger.Info("Transfer record not found", "record_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get transfer record", "record_id", id.String(), "error", err)
		return nil, err
	}
	return record, nil
}

// ListTransfers returns records filtered by status with pagination
func (s *TransferServiceImpl) ListTransfers(ctx context.Context, status shared.RecordStatus, page, perPage int) ([]*transfer.Record, error) {
	offset := (page - 1) * perPage
	return s.records.ListByStatus(ctx, status, perPage, offset)
}
