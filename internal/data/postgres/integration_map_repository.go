package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/procure-finance-sync/internal/domain/integration"
	"github.com/procure-finance-sync/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

// IntegrationMapRepository implements the integration.Repository interface for PostgreSQL
type IntegrationMapRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewIntegrationMapRepository creates a new PostgreSQL integration map repository
func NewIntegrationMapRepository(logger *slog.Logger, db *persistence.PostgresDB) integration.Repository {
	return &IntegrationMapRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetOrCreate returns the existing map for the pair or persists a new one.
// A concurrent insert of the same pair trips the unique constraint and is
// absorbed by re-reading the winner's row.
func (r *IntegrationMapRepository) GetOrCreate(ctx context.Context, sourceID, destID int64, invoiceNumber string) (*integration.Map, error) {
	existing, err := r.GetByPair(ctx, sourceID, destID)
	if err != nil {
		var notFound integration.ErrMapNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	if existing != nil {
		return existing, nil
	}

	m := integration.NewMap(sourceID, destID, invoiceNumber)

	query := `
		INSERT INTO integration_maps (id, source_id, dest_id, invoice_number, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.querier.Exec(ctx, query, m.ID, m.SourceID, m.DestID, nullableString(m.InvoiceNumber), m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return r.GetByPair(ctx, sourceID, destID)
		}
		r.logger.Error("Failed to create integration map", "sourceID", sourceID, "destID", destID, "error", err)
		return nil, fmt.Errorf("failed to create integration map: %w", err)
	}

	return m, nil
}

// GetByPair retrieves the integration map for a source/destination pair
func (r *IntegrationMapRepository) GetByPair(ctx context.Context, sourceID, destID int64) (*integration.Map, error) {
	query := `
		SELECT id, source_id, dest_id, COALESCE(invoice_number, ''), created_at
		FROM integration_maps
		WHERE source_id = $1 AND dest_id = $2
	`

	var m integration.Map
	err := r.querier.QueryRow(ctx, query, sourceID, destID).Scan(
		&m.ID,
		&m.SourceID,
		&m.DestID,
		&m.InvoiceNumber,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, integration.ErrMapNotFound{SourceID: sourceID, DestID: destID}
		}
		r.logger.Error("Failed to get integration map", "sourceID", sourceID, "destID", destID, "error", err)
		return nil, fmt.Errorf("failed to get integration map: %w", err)
	}

	return &m, nil
}

// ListBySourceID returns all maps produced by a source entity
func (r *IntegrationMapRepository) ListBySourceID(ctx context.Context, sourceID int64) ([]*integration.Map, error) {
	query := `
		SELECT id, source_id, dest_id, COALESCE(invoice_number, ''), created_at
		FROM integration_maps
		WHERE source_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, sourceID)
	if err != nil {
		r.logger.Error("Failed to list integration maps", "sourceID", sourceID, "error", err)
		return nil, fmt.Errorf("failed to list integration maps: %w", err)
	}
	defer rows.Close()

	maps := make([]*integration.Map, 0)
	for rows.Next() {
		var m integration.Map
		if err := rows.Scan(&m.ID, &m.SourceID, &m.DestID, &m.InvoiceNumber, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan integration map: %w", err)
		}
		maps = append(maps, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate integration maps: %w", err)
	}

	return maps, nil
}
