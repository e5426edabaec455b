package closure

import (
	"context"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// Repository defines closure record persistence operations
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// ListRetryable returns failed or pending records under their retry
	// budget, oldest first.
	ListRetryable(ctx context.Context, limit int) ([]*Record, error)

	// ListByStatus returns records filtered by status (all when empty),
	// newest first.
	ListByStatus(ctx context.Context, status shared.RecordStatus, limit, offset int) ([]*Record, error)

	// ClaimProcessing atomically transitions the record to processing while
	// it is still retry-eligible; returns false otherwise.
	ClaimProcessing(ctx context.Context, record *Record) (bool, error)

	// SaveOutcome persists the terminal fields written by MarkSuccess or
	// MarkFailed as a single bounded update.
	SaveOutcome(ctx context.Context, record *Record) error
}

// ErrRecordNotFound indicates a missing closure record
type ErrRecordNotFound struct {
	ID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "closure record not found: " + e.ID.String()
}
