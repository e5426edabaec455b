// Package integration holds the durable cross-system pair facts: which source
// entity produced which destination entity.
package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Map is a durable fact: source entity X produced destination entity Y.
// Created once via get-or-create and read-only thereafter.
type Map struct {
	ID            uuid.UUID `json:"id"`
	SourceID      int64     `json:"source_id"`
	DestID        int64     `json:"dest_id"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewMap creates an integration map for a source/destination pair
func NewMap(sourceID, destID int64, invoiceNumber string) *Map {
	return &Map{
		ID:            uuid.New(),
		SourceID:      sourceID,
		DestID:        destID,
		InvoiceNumber: invoiceNumber,
		CreatedAt:     time.Now(),
	}
}

// Repository defines integration map persistence operations
type Repository interface {
	// GetOrCreate returns the existing map for the pair or persists a new
	// one. The (source_id, dest_id) pair is unique; concurrent creation is
	// absorbed by re-reading on a uniqueness violation.
	GetOrCreate(ctx context.Context, sourceID, destID int64, invoiceNumber string) (*Map, error)

	GetByPair(ctx context.Context, sourceID, destID int64) (*Map, error)
	ListBySourceID(ctx context.Context, sourceID int64) ([]*Map, error)
}

// ErrMapNotFound indicates a missing integration map
type ErrMapNotFound struct {
	SourceID int64
	DestID   int64
}

func (e ErrMapNotFound) Error() string {
	return fmt.Sprintf("integration map not found: %d -> %d", e.SourceID, e.DestID)
}
