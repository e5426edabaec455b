package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/engine"
)

// ClosureServiceImpl implements the ClosureService interface
type ClosureServiceImpl struct {
	engine  engine.ClosureEngine
	records closure.Repository
	logger  *slog.Logger
}

// NewClosureService creates a new closure service
func NewClosureService(logger *slog.Logger, eng engine.ClosureEngine, records closure.Repository) ClosureService {
	return &ClosureServiceImpl{
		engine:  eng,
		records: records,
		logger:  logger,
	}
}

// SubmitClosure records the closure request. Synchronous submissions run the
// closure inline and return the record with its outcome; business failures are
// reflected on the record, not returned as errors.
func (s *ClosureServiceImpl) SubmitClosure(ctx context.Context, orderNumber, orderItem, invoiceNumber string, invoiceID int64, async bool) (*closure.Record, error) {
	record, err := s.engine.Submit(ctx, orderNumber, orderItem, invoiceNumber, invoiceID, async)
	if err != nil {
		return nil, err
	}

	if !async {
		if err := s.engine.Run(ctx, record); err != nil && !errors.Is(err, engine.ErrNotClaimable) {
			return nil, err
		}
	}

	return record, nil
}

// RetryFailed sweeps retry-eligible closure records inline
func (s *ClosureServiceImpl) RetryFailed(ctx context.Context, limit int) (*engine.ProcessReport, error) {
	return s.engine.RetryFailed(ctx, limit)
}

// GetClosureByID retrieves a closure record by its ID. Returns nil if not found
func (s *ClosureServiceImpl) GetClosureByID(ctx context.Context, id uuid.UUID) (*closure.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		var notFound closure.ErrRecordNotFound
		if errors.As(err, &notFound) {
			s.logger.Info("Closure record not found", "record_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get closure record", "record_id", id.String(), "error", err)
		return nil, err
	}
	return record, nil
}

// ListClosures returns records filtered by status with pagination
func (s *ClosureServiceImpl) ListClosures(ctx context.Context, status shared.RecordStatus, page, perPage int) ([]*closure.Record, error) {
	offset := (page - 1) * perPage
	return s.records.ListByStatus(ctx, status, perPage, offset)
}
