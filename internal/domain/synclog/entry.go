// Package synclog holds the append-only audit trail of individual attachment
// copy attempts between two entities.
package synclog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// Entry is one attachment copy attempt, tagged with the engine path that
// produced it. Entries are never mutated after creation.
type Entry struct {
	ID           uuid.UUID          `json:"id" bson:"id"`
	SourceTable  string             `json:"source_table" bson:"source_table"`
	SourceID     int64              `json:"source_id" bson:"source_id"`
	DestTable    string             `json:"dest_table" bson:"dest_table"`
	DestID       int64              `json:"dest_id" bson:"dest_id"`
	Method       shared.SyncMethod  `json:"method" bson:"method"`
	FileName     string             `json:"file_name" bson:"file_name"`
	Outcome      shared.SyncOutcome `json:"outcome" bson:"outcome"`
	ErrorMessage string             `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// NewEntry creates an audit entry for one copy attempt
func NewEntry(sourceTable string, sourceID int64, destTable string, destID int64, method shared.SyncMethod, fileName string, outcome shared.SyncOutcome, errMsg string) *Entry {
	return &Entry{
		ID:           uuid.New(),
		SourceTable:  sourceTable,
		SourceID:     sourceID,
		DestTable:    destTable,
		DestID:       destID,
		Method:       method,
		FileName:     fileName,
		Outcome:      outcome,
		ErrorMessage: errMsg,
		CreatedAt:    time.Now(),
	}
}

// Repository defines sync log persistence operations. The store is
// append-only: entries are created and listed, never updated.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	ListBySource(ctx context.Context, sourceTable string, sourceID int64, limit, offset int) ([]*Entry, error)
	ListByDest(ctx context.Context, destTable string, destID int64, limit, offset int) ([]*Entry, error)
}
