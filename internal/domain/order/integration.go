// Package order holds the order integration records and their derived finance
// maps. An order integration owns at most one finance map; the finance map
// references its order by identity only.
package order

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// Integration represents an order known to this system, keyed uniquely by the
// remote order id.
type Integration struct {
	ID              uuid.UUID             `json:"id"`
	RemoteOrderID   int64                 `json:"remote_order_id"`
	IntegrationCode string                `json:"integration_code,omitempty"`
	Origin          shared.OrderOrigin    `json:"origin"`
	CreationMethod  shared.CreationMethod `json:"creation_method"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewIntegration creates an order integration record
func NewIntegration(remoteOrderID int64, integrationCode string, origin shared.OrderOrigin, method shared.CreationMethod) *Integration {
	now := time.Now()
	return &Integration{
		ID:              uuid.New(),
		RemoteOrderID:   remoteOrderID,
		IntegrationCode: integrationCode,
		Origin:          origin,
		CreationMethod:  method,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ErrIntegrationNotFound indicates a missing order integration
type ErrIntegrationNotFound struct {
	ID uuid.UUID
}

func (e ErrIntegrationNotFound) Error() string {
	return "order integration not found: " + e.ID.String()
}

// ErrDuplicateRemoteOrder indicates remote order id uniqueness violation
type ErrDuplicateRemoteOrder struct {
	RemoteOrderID int64
}

func (e ErrDuplicateRemoteOrder) Error() string {
	return "order integration already exists for remote order: " + strconv.FormatInt(e.RemoteOrderID, 10)
}
