package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// FinanceMap is the payable record derived from a finalized order. At most one
// exists per order integration; the database enforces this with a unique
// constraint so concurrent advancement cannot create duplicate payables.
type FinanceMap struct {
	ID                 uuid.UUID             `json:"id"`
	OrderIntegrationID uuid.UUID             `json:"order_integration_id"`
	RemotePayableID    int64                 `json:"remote_payable_id"`
	CreationMethod     shared.CreationMethod `json:"creation_method"`
	AttachmentsSynced  bool                  `json:"attachments_synced"`
	LastError          string                `json:"last_error,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// NewFinanceMap creates a finance map for an order integration
func NewFinanceMap(orderIntegrationID uuid.UUID, remotePayableID int64, method shared.CreationMethod) *FinanceMap {
	now := time.Now()
	return &FinanceMap{
		ID:                 uuid.New(),
		OrderIntegrationID: orderIntegrationID,
		RemotePayableID:    remotePayableID,
		CreationMethod:     method,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ErrDuplicateFinanceMap indicates a finance map already exists for the order
type ErrDuplicateFinanceMap struct {
	OrderIntegrationID uuid.UUID
}

func (e ErrDuplicateFinanceMap) Error() string {
	return "finance map already exists for order integration: " + e.OrderIntegrationID.String()
}
