package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// Repository defines order integration persistence operations
type Repository interface {
	Create(ctx context.Context, oi *Integration) error
	GetByID(ctx context.Context, id uuid.UUID) (*Integration, error)

	// GetByRemoteOrderID returns nil when no integration exists for the id.
	GetByRemoteOrderID(ctx context.Context, remoteOrderID int64) (*Integration, error)

	// GetOrCreateByRemoteOrderID backs the robot's idempotent discovery: a
	// concurrent insert of the same remote order id is absorbed by
	// re-reading on the uniqueness violation.
	GetOrCreateByRemoteOrderID(ctx context.Context, remoteOrderID int64, origin shared.OrderOrigin, method shared.CreationMethod) (*Integration, error)

	// ListWithoutFinanceMap returns integrations of the given origin that do
	// not own a finance map yet, oldest first.
	ListWithoutFinanceMap(ctx context.Context, origin shared.OrderOrigin, limit int) ([]*Integration, error)
}

// FinanceMapRepository defines finance map persistence operations
type FinanceMapRepository interface {
	// Create persists a finance map; returns ErrDuplicateFinanceMap when the
	// order integration already owns one.
	Create(ctx context.Context, fm *FinanceMap) error

	// GetByOrderIntegrationID returns nil when the order owns no finance map.
	GetByOrderIntegrationID(ctx context.Context, orderIntegrationID uuid.UUID) (*FinanceMap, error)

	// UpdateSyncState persists attachments_synced and last_error.
	UpdateSyncState(ctx context.Context, fm *FinanceMap) error
}
