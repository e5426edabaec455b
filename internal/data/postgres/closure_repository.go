package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/platform/persistence"
)

const closureColumns = `
	id, order_number, COALESCE(order_item, ''), invoice_number, invoice_id,
	status, attempt_count, max_attempts, COALESCE(error_message, ''), details,
	created_at, updated_at, completed_at
`

// ClosureRepository implements the closure.Repository interface for PostgreSQL
type ClosureRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewClosureRepository creates a new PostgreSQL closure record repository
func NewClosureRepository(logger *slog.Logger, db *persistence.PostgresDB) closure.Repository {
	return &ClosureRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new closure record
func (r *ClosureRepository) Create(ctx context.Context, record *closure.Record) error {
	query := `
		INSERT INTO closure_records (
			id, order_number, order_item, invoice_number, invoice_id, status,
			attempt_count, max_attempts, error_message, details, created_at, updated_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	details, err := marshalClosureDetails(record)
	if err != nil {
		return err
	}

	_, err = r.querier.Exec(ctx, query,
		record.ID,
		record.OrderNumber,
		nullableString(record.OrderItem),
		record.InvoiceNumber,
		record.InvoiceID,
		record.Status,
		record.AttemptCount,
		record.MaxAttempts,
		nullableString(record.ErrorMessage),
		details,
		record.CreatedAt,
		record.UpdatedAt,
		record.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create closure record", "orderNumber", record.OrderNumber, "error", err)
		return fmt.Errorf("failed to create closure record: %w", err)
	}

	return nil
}

// GetByID retrieves a closure record by its ID
func (r *ClosureRepository) GetByID(ctx context.Context, id uuid.UUID) (*closure.Record, error) {
	query := `SELECT ` + closureColumns + ` FROM closure_records WHERE id = $1`

	record, err := scanClosureRecord(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, closure.ErrRecordNotFound{ID: id}
		}
		r.logger.Error("Failed to get closure record", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get closure record: %w", err)
	}

	return record, nil
}

// ListRetryable returns pending or failed records still under their retry
// budget, oldest first.
func (r *ClosureRepository) ListRetryable(ctx context.Context, limit int) ([]*closure.Record, error) {
	query := `
		SELECT ` + closureColumns + `
		FROM closure_records
		WHERE status IN ($1, $2) AND attempt_count < max_attempts
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query,
		shared.RecordStatusPending, shared.RecordStatusFailed, limit)
	if err != nil {
		r.logger.Error("Failed to list retryable closure records", "error", err)
		return nil, fmt.Errorf("failed to list retryable closure records: %w", err)
	}
	defer rows.Close()

	return collectClosureRecords(rows)
}

// ListByStatus returns records filtered by status (all when empty), newest first
func (r *ClosureRepository) ListByStatus(ctx context.Context, status shared.RecordStatus, limit, offset int) ([]*closure.Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		query := `
			SELECT ` + closureColumns + `
			FROM closure_records
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		rows, err = r.querier.Query(ctx, query, limit, offset)
	} else {
		query := `
			SELECT ` + closureColumns + `
			FROM closure_records
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		rows, err = r.querier.Query(ctx, query, status, limit, offset)
	}
	if err != nil {
		r.logger.Error("Failed to list closure records", "status", status, "error", err)
		return nil, fmt.Errorf("failed to list closure records: %w", err)
	}
	defer rows.Close()

	return collectClosureRecords(rows)
}

// ClaimProcessing atomically transitions the record to processing while it is
// still retry-eligible; returns false otherwise.
func (r *ClosureRepository) ClaimProcessing(ctx context.Context, record *closure.Record) (bool, error) {
	query := `
		UPDATE closure_records
		SET status = $1, attempt_count = attempt_count + 1, updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4) AND attempt_count < max_attempts
		RETURNING attempt_count, updated_at
	`

	err := r.querier.QueryRow(ctx, query,
		shared.RecordStatusProcessing, record.ID,
		shared.RecordStatusPending, shared.RecordStatusFailed,
	).Scan(&record.AttemptCount, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.Error("Failed to claim closure record", "id", record.ID.String(), "error", err)
		return false, fmt.Errorf("failed to claim closure record: %w", err)
	}

	record.Status = shared.RecordStatusProcessing
	return true, nil
}

// SaveOutcome persists the terminal fields as a single bounded update
func (r *ClosureRepository) SaveOutcome(ctx context.Context, record *closure.Record) error {
	query := `
		UPDATE closure_records
		SET status = $1, error_message = $2, details = $3, updated_at = $4, completed_at = $5
		WHERE id = $6
	`

	details, err := marshalClosureDetails(record)
	if err != nil {
		return err
	}

	result, err := r.querier.Exec(ctx, query,
		record.Status,
		nullableString(record.ErrorMessage),
		details,
		record.UpdatedAt,
		record.CompletedAt,
		record.ID,
	)
	if err != nil {
		r.logger.Error("Failed to save closure outcome", "id", record.ID.String(), "error", err)
		return fmt.Errorf("failed to save closure outcome: %w", err)
	}
	if result.RowsAffected() == 0 {
		return closure.ErrRecordNotFound{ID: record.ID}
	}

	return nil
}

func marshalClosureDetails(record *closure.Record) ([]byte, error) {
	details := record.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal closure details: %w", err)
	}
	return detailsJSON, nil
}

func scanClosureRecord(row pgx.Row) (*closure.Record, error) {
	var (
		record  closure.Record
		details []byte
	)
	err := row.Scan(
		&record.ID,
		&record.OrderNumber,
		&record.OrderItem,
		&record.InvoiceNumber,
		&record.InvoiceID,
		&record.Status,
		&record.AttemptCount,
		&record.MaxAttempts,
		&record.ErrorMessage,
		&details,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(details, &record.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal closure details: %w", err)
	}

	return &record, nil
}

func collectClosureRecords(rows pgx.Rows) ([]*closure.Record, error) {
	records := make([]*closure.Record, 0)
	for rows.Next() {
		record, err := scanClosureRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan closure record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate closure records: %w", err)
	}
	return records, nil
}
