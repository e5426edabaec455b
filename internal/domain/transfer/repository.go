package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// Repository defines transfer record persistence operations
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// GetSuccessfulByPair returns a successful record for the pair, or nil
	// when no run has ever fully succeeded.
	GetSuccessfulByPair(ctx context.Context, pair Pair) (*Record, error)

	// GetReusableByPair returns an existing pending or failed record for the
	// pair, or nil when none exists. Used by lookup-before-create.
	GetReusableByPair(ctx context.Context, pair Pair) (*Record, error)

	// ListRetryable returns records with status pending or failed whose
	// attempt count is still under their budget, oldest first.
	ListRetryable(ctx context.Context, limit int) ([]*Record, error)

	// ListByStatus returns records filtered by status (all when empty),
	// newest first.
	ListByStatus(ctx context.Context, status shared.RecordStatus, limit, offset int) ([]*Record, error)

	// ClaimProcessing atomically transitions the record to processing,
	// consuming one attempt, but only while it is still retry-eligible.
	// It returns false when the record was claimed elsewhere or exhausted
	// its budget between lookup and claim. On success the passed record is
	// refreshed with the new status and attempt count.
	ClaimProcessing(ctx context.Context, record *Record) (bool, error)

	// SaveProgress persists total_items and the details map mid-run.
	SaveProgress(ctx context.Context, record *Record) error

	// SaveOutcome persists the terminal fields written by MarkSuccess or
	// MarkFailed as a single bounded update.
	SaveOutcome(ctx context.Context, record *Record) error
}

// ErrRecordNotFound indicates a missing transfer record
type ErrRecordNotFound struct {
	ID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "transfer record not found: " + e.ID.String()
}
