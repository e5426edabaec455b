// Package postgres provides PostgreSQL implementations of the domain
// repositories. All record bookkeeping (retry budgets, claim transitions,
// outcome persistence) lives here behind the domain interfaces.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/platform/persistence"
)

const transferColumns = `
	id, source_table, source_id, dest_table, dest_id, status,
	attempt_count, max_attempts, total_items, succeeded_items,
	transferred_items, COALESCE(error_message, ''), details,
	created_at, updated_at, completed_at
`

// TransferRepository implements the transfer.Repository interface for PostgreSQL
type TransferRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransferRepository creates a new PostgreSQL transfer record repository
func NewTransferRepository(logger *slog.Logger, db *persistence.PostgresDB) transfer.Repository {
	return &TransferRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new transfer record
func (r *TransferRepository) Create(ctx context.Context, record *transfer.Record) error {
	query := `
		INSERT INTO transfer_records (
			id, source_table, source_id, dest_table, dest_id, status,
			attempt_count, max_attempts, total_items, succeeded_items,
			transferred_items, error_message, details, created_at, updated_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	items, details, err := marshalTransferJSON(record)
	if err != nil {
		return err
	}

	_, err = r.querier.Exec(ctx, query,
		record.ID,
		record.Pair.SourceTable,
		record.Pair.SourceID,
		record.Pair.DestTable,
		record.Pair.DestID,
		record.Status,
		record.AttemptCount,
		record.MaxAttempts,
		record.TotalItems,
		record.SucceededItems,
		items,
		nullableString(record.ErrorMessage),
		details,
		record.CreatedAt,
		record.UpdatedAt,
		record.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transfer record", "pair", record.Pair.String(), "error", err)
		return fmt.Errorf("failed to create transfer record: %w", err)
	}

	return nil
}

// GetByID retrieves a transfer record by its ID
func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.Record, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_records WHERE id = $1`

	record, err := scanTransferRecord(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrRecordNotFound{ID: id}
		}
		r.logger.Error("Failed to get transfer record", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transfer record: %w", err)
	}

	return record, nil
}

// GetSuccessfulByPair returns a successful record for the pair, or nil when
// no run has ever fully succeeded.
func (r *TransferRepository) GetSuccessfulByPair(ctx context.Context, pair transfer.Pair) (*transfer.Record, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfer_records
		WHERE source_table = $1 AND source_id = $2 AND dest_table = $3 AND dest_id = $4 AND status = $5
		ORDER BY created_at DESC
		LIMIT 1
	`

	record, err := scanTransferRecord(r.querier.QueryRow(ctx, query,
		pair.SourceTable, pair.SourceID, pair.DestTable, pair.DestID, shared.RecordStatusSuccess))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get successful transfer record", "pair", pair.String(), "error", err)
		return nil, fmt.Errorf("failed to get successful transfer record: %w", err)
	}

	return record, nil
}

// GetReusableByPair returns an existing pending or failed record for the pair,
// or nil when none exists.
func (r *TransferRepository) GetReusableByPair(ctx context.Context, pair transfer.Pair) (*transfer.Record, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfer_records
		WHERE source_table = $1 AND source_id = $2 AND dest_table = $3 AND dest_id = $4
			AND status IN ($5, $6)
		ORDER BY created_at DESC
		LIMIT 1
	`

	record, err := scanTransferRecord(r.querier.QueryRow(ctx, query,
		pair.SourceTable, pair.SourceID, pair.DestTable, pair.DestID,
		shared.RecordStatusPending, shared.RecordStatusFailed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get reusable transfer record", "pair", pair.String(), "error", err)
		return nil, fmt.Errorf("failed to get reusable transfer record: %w", err)
	}

	return record, nil
}

// ListRetryable returns pending or failed records still under their retry
// budget, oldest first.
func (r *TransferRepository) ListRetryable(ctx context.Context, limit int) ([]*transfer.Record, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfer_records
		WHERE status IN ($1, $2) AND attempt_count < max_attempts
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query,
		shared.RecordStatusPending, shared.RecordStatusFailed, limit)
	if err != nil {
		r.logger.Error("Failed to list retryable transfer records", "error", err)
		return nil, fmt.Errorf("failed to list retryable transfer records: %w", err)
	}
	defer rows.Close()

	return collectTransferRecords(rows)
}

// ListByStatus returns records filtered by status (all when empty), newest first
func (r *TransferRepository) ListByStatus(ctx context.Context, status shared.RecordStatus, limit, offset int) ([]*transfer.Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		query := `
			SELECT ` + transferColumns + `
			FROM transfer_records
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		rows, err = r.querier.Query(ctx, query, limit, offset)
	} else {
		query := `
			SELECT ` + transferColumns + `
			FROM transfer_records
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		rows, err = r.querier.Query(ctx, query, status, limit, offset)
	}
	if err != nil {
		r.logger.Error("Failed to list transfer records", "status", status, "error", err)
		return nil, fmt.Errorf("failed to list transfer records: %w", err)
	}
	defer rows.Close()

	return collectTransferRecords(rows)
}

// ClaimProcessing atomically transitions the record to processing while it is
// still retry-eligible. The guard against status and attempt budget in the
// WHERE clause is what makes concurrent claims of the same record safe.
func (r *TransferRepository) ClaimProcessing(ctx context.Context, record *transfer.Record) (bool, error) {
	query := `
		UPDATE transfer_records
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
		r.logger.Error("Failed to claim transfer record", "id", record.ID.String(), "error", err)
		return false, fmt.Errorf("failed to claim transfer record: %w", err)
	}

	record.Status = shared.RecordStatusProcessing
	return true, nil
}

// SaveProgress persists total_items and the details map mid-run
func (r *TransferRepository) SaveProgress(ctx context.Context, record *transfer.Record) error {
	query := `
		UPDATE transfer_records
		SET total_items = $1, details = $2, updated_at = NOW()
		WHERE id = $3
	`

	details, err := json.Marshal(record.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer details: %w", err)
	}

	result, err := r.querier.Exec(ctx, query, record.TotalItems, details, record.ID)
	if err != nil {
		r.logger.Error("Failed to save transfer progress", "id", record.ID.String(), "error", err)
		return fmt.Errorf("failed to save transfer progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return transfer.ErrRecordNotFound{ID: record.ID}
	}

	return nil
}

// SaveOutcome persists the terminal fields as a single bounded update
func (r *TransferRepository) SaveOutcome(ctx context.Context, record *transfer.Record) error {
	query := `
		UPDATE transfer_records
		SET status = $1, total_items = $2, succeeded_items = $3, transferred_items = $4,
			error_message = $5, details = $6, updated_at = $7, completed_at = $8
		WHERE id = $9
	`

	items, details, err := marshalTransferJSON(record)
	if err != nil {
		return err
	}

	result, err := r.querier.Exec(ctx, query,
		record.Status,
		record.TotalItems,
		record.SucceededItems,
		items,
		nullableString(record.ErrorMessage),
		details,
		record.UpdatedAt,
		record.CompletedAt,
		record.ID,
	)
	if err != nil {
		r.logger.Error("Failed to save transfer outcome", "id", record.ID.String(), "error", err)
		return fmt.Errorf("failed to save transfer outcome: %w", err)
	}
	if result.RowsAffected() == 0 {
		return transfer.ErrRecordNotFound{ID: record.ID}
	}

	return nil
}

func marshalTransferJSON(record *transfer.Record) ([]byte, []byte, error) {
	items := record.TransferredItems
	if items == nil {
		items = []transfer.TransferredItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal transferred items: %w", err)
	}

	details := record.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal transfer details: %w", err)
	}

	return itemsJSON, detailsJSON, nil
}

func scanTransferRecord(row pgx.Row) (*transfer.Record, error) {
	var (
		record  transfer.Record
		items   []byte
		details []byte
	)
	err := row.Scan(
		&record.ID,
		&record.Pair.SourceTable,
		&record.Pair.SourceID,
		&record.Pair.DestTable,
		&record.Pair.DestID,
		&record.Status,
		&record.AttemptCount,
		&record.MaxAttempts,
		&record.TotalItems,
		&record.SucceededItems,
		&items,
		&record.ErrorMessage,
		&details,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &record.TransferredItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transferred items: %w", err)
	}
	if err := json.Unmarshal(details, &record.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer details: %w", err)
	}

	return &record, nil
}

func collectTransferRecords(rows pgx.Rows) ([]*transfer.Record, error) {
	records := make([]*transfer.Record, 0)
	for rows.Next() {
		record, err := scanTransferRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfer records: %w", err)
	}
	return records, nil
}

// nullableString maps an empty string to SQL NULL
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
