package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/platform/persistence"
)

// FinanceMapRepository implements the order.FinanceMapRepository interface for PostgreSQL
type FinanceMapRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewFinanceMapRepository creates a new PostgreSQL finance map repository
func NewFinanceMapRepository(logger *slog.Logger, db *persistence.PostgresDB) order.FinanceMapRepository {
	return &FinanceMapRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create persists a finance map. The unique constraint on order_integration_id
// turns a concurrent double-advance into ErrDuplicateFinanceMap instead of a
// second payable record.
func (r *FinanceMapRepository) Create(ctx context.Context, fm *order.FinanceMap) error {
	query := `
		INSERT INTO finance_maps (id, order_integration_id, remote_payable_id, creation_method,
			attachments_synced, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		fm.ID,
		fm.OrderIntegrationID,
		fm.RemotePayableID,
		fm.CreationMethod,
		fm.AttachmentsSynced,
		nullableString(fm.LastError),
		fm.CreatedAt,
		fm.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return order.ErrDuplicateFinanceMap{OrderIntegrationID: fm.OrderIntegrationID}
		}
		r.logger.Error("Failed to create finance map", "orderIntegrationID", fm.OrderIntegrationID.String(), "error", err)
		return fmt.Errorf("failed to create finance map: %w", err)
	}

	return nil
}

// GetByOrderIntegrationID returns nil when the order owns no finance map
func (r *FinanceMapRepository) GetByOrderIntegrationID(ctx context.Context, orderIntegrationID uuid.UUID) (*order.FinanceMap, error) {
	query := `
		SELECT id, order_integration_id, remote_payable_id, creation_method,
			attachments_synced, COALESCE(last_error, ''), created_at, updated_at
		FROM finance_maps
		WHERE order_integration_id = $1
	`

	var fm order.FinanceMap
	err := r.querier.QueryRow(ctx, query, orderIntegrationID).Scan(
		&fm.ID,
		&fm.OrderIntegrationID,
		&fm.RemotePayableID,
		&fm.CreationMethod,
		&fm.AttachmentsSynced,
		&fm.LastError,
		&fm.CreatedAt,
		&fm.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get finance map", "orderIntegrationID", orderIntegrationID.String(), "error", err)
		return nil, fmt.Errorf("failed to get finance map: %w", err)
	}

	return &fm, nil
}

// UpdateSyncState persists attachments_synced and last_error
func (r *FinanceMapRepository) UpdateSyncState(ctx context.Context, fm *order.FinanceMap) error {
	query := `
		UPDATE finance_maps
		SET attachments_synced = $1, last_error = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, fm.AttachmentsSynced, nullableString(fm.LastError), fm.ID)
	if err != nil {
		r.logger.Error("Failed to update finance map sync state", "id", fm.ID.String(), "error", err)
		return fmt.Errorf("failed to update finance map sync state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("finance map not found: %s", fm.ID.String())
	}

	return nil
}
