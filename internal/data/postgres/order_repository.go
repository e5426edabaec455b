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
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/platform/persistence"
)

const orderIntegrationColumns = `
	id, remote_order_id, COALESCE(integration_code, ''), origin, creation_method,
	created_at, updated_at
`

// OrderRepository implements the order.Repository interface for PostgreSQL
type OrderRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOrderRepository creates a new PostgreSQL order integration repository
func NewOrderRepository(logger *slog.Logger, db *persistence.PostgresDB) order.Repository {
	return &OrderRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new order integration. Returns ErrDuplicateRemoteOrder when
// an integration already exists for the remote order id.
func (r *OrderRepository) Create(ctx context.Context, oi *order.Integration) error {
	query := `
		INSERT INTO order_integrations (id, remote_order_id, integration_code, origin, creation_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		oi.ID,
		oi.RemoteOrderID,
		nullableString(oi.IntegrationCode),
		oi.Origin,
		oi.CreationMethod,
		oi.CreatedAt,
		oi.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return order.ErrDuplicateRemoteOrder{RemoteOrderID: oi.RemoteOrderID}
		}
		r.logger.Error("Failed to create order integration", "remoteOrderID", oi.RemoteOrderID, "error", err)
		return fmt.Errorf("failed to create order integration: %w", err)
	}

	return nil
}

// GetByID retrieves an order integration by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Integration, error) {
	query := `SELECT ` + orderIntegrationColumns + ` FROM order_integrations WHERE id = $1`

	oi, err := scanOrderIntegration(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrIntegrationNotFound{ID: id}
		}
		r.logger.Error("Failed to get order integration", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get order integration: %w", err)
	}

	return oi, nil
}

// GetByRemoteOrderID returns nil when no integration exists for the id
func (r *OrderRepository) GetByRemoteOrderID(ctx context.Context, remoteOrderID int64) (*order.Integration, error) {
	query := `SELECT ` + orderIntegrationColumns + ` FROM order_integrations WHERE remote_order_id = $1`

	oi, err := scanOrderIntegration(r.querier.QueryRow(ctx, query, remoteOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get order integration by remote order id", "remoteOrderID", remoteOrderID, "error", err)
		return nil, fmt.Errorf("failed to get order integration by remote order id: %w", err)
	}

	return oi, nil
}

// GetOrCreateByRemoteOrderID returns the existing integration for a remote
// order or persists a new one. A concurrent insert of the same remote order id
// is absorbed by re-reading on the uniqueness violation.
func (r *OrderRepository) GetOrCreateByRemoteOrderID(ctx context.Context, remoteOrderID int64, origin shared.OrderOrigin, method shared.CreationMethod) (*order.Integration, error) {
	existing, err := r.GetByRemoteOrderID(ctx, remoteOrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	oi := order.NewIntegration(remoteOrderID, "", origin, method)
	if err := r.Create(ctx, oi); err != nil {
		var dup order.ErrDuplicateRemoteOrder
		if errors.As(err, &dup) {
			return r.GetByRemoteOrderID(ctx, remoteOrderID)
		}
		return nil, err
	}

	return oi, nil
}

// ListWithoutFinanceMap returns integrations of the given origin that do not
// own a finance map yet, oldest first.
func (r *OrderRepository) ListWithoutFinanceMap(ctx context.Context, origin shared.OrderOrigin, limit int) ([]*order.Integration, error) {
	query := `
		SELECT oi.id, oi.remote_order_id, COALESCE(oi.integration_code, ''), oi.origin, oi.creation_method,
			oi.created_at, oi.updated_at
		FROM order_integrations oi
		LEFT JOIN finance_maps fm ON fm.order_integration_id = oi.id
		WHERE oi.origin = $1 AND fm.id IS NULL
		ORDER BY oi.created_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, origin, limit)
	if err != nil {
		r.logger.Error("Failed to list order integrations without finance map", "origin", origin, "error", err)
		return nil, fmt.Errorf("failed to list order integrations without finance map: %w", err)
	}
	defer rows.Close()

	integrations := make([]*order.Integration, 0)
	for rows.Next() {
		oi, err := scanOrderIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order integration: %w", err)
		}
		integrations = append(integrations, oi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order integrations: %w", err)
	}

	return integrations, nil
}

func scanOrderIntegration(row pgx.Row) (*order.Integration, error) {
	var oi order.Integration
	err := row.Scan(
		&oi.ID,
		&oi.RemoteOrderID,
		&oi.IntegrationCode,
		&oi.Origin,
		&oi.CreationMethod,
		&oi.CreatedAt,
		&oi.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &oi, nil
}
