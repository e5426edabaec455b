package transfer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// Detail keys persisted in the record's details map after a completed run
const (
	DetailSourceCount      = "source_count"
	DetailDestInitialCount = "dest_initial_count"
	DetailDuplicates       = "duplicates"
	DetailNoContent        = "no_content"
	DetailInclusionErrors  = "inclusion_errors"
	DetailElapsedMS        = "elapsed_ms"
)

// Pair identifies a transfer regardless of how many attempts it has taken.
// Only one record may be successful or actively pending/processing for a pair
// at a time; this is enforced by lookup-before-create and the atomic claim.
type Pair struct {
	SourceTable string `json:"source_table"`
	SourceID    int64  `json:"source_id"`
	DestTable   string `json:"dest_table"`
	DestID      int64  `json:"dest_id"`
}

func (p Pair) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d", p.SourceTable, p.SourceID, p.DestTable, p.DestID)
}

// TransferredItem describes one attachment copied to the destination
type TransferredItem struct {
	Name      string `json:"name"`
	SourceRef string `json:"source_ref"`
	Size      int64  `json:"size"`
}

// Record represents one attempt (and its retries) to copy the full attachment
// set from a source entity to a destination entity. Records are never deleted;
// they accumulate as an audit trail.
type Record struct {
	ID               uuid.UUID              `json:"id"`
	Pair             Pair                   `json:"pair"`
	Status           shared.RecordStatus    `json:"status"`
	AttemptCount     int                    `json:"attempt_count"`
	MaxAttempts      int                    `json:"max_attempts"`
	TotalItems       int                    `json:"total_items"`
	SucceededItems   int                    `json:"succeeded_items"`
	TransferredItems []TransferredItem      `json:"transferred_items"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	Details          map[string]interface{} `json:"details,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
}

// NewRecord creates a pending record for a pair with the default retry budget
func NewRecord(pair Pair) *Record {
	now := time.Now()
	return &Record{
		ID:          uuid.New(),
		Pair:        pair,
		Status:      shared.RecordStatusPending,
		MaxAttempts: shared.DefaultMaxAttempts,
		Details:     map[string]interface{}{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkProcessing transitions the record to processing and consumes one attempt
func (r *Record) MarkProcessing() {
	r.Status = shared.RecordStatusProcessing
	r.AttemptCount++
	r.UpdatedAt = time.Now()
}

// MarkSuccess finalizes the record with the list of transferred items.
// Success means the attempt completed, not that every item was copied;
// per-item duplicates, missing content and inclusion errors live in Details.
func (r *Record) MarkSuccess(items []TransferredItem) {
	r.Status = shared.RecordStatusSuccess
	r.TransferredItems = items
	r.SucceededItems = len(items)
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkFailed finalizes this attempt with the captured error message.
// The record stays retry-eligible while attempts remain.
func (r *Record) MarkFailed(errMsg string) {
	r.Status = shared.RecordStatusFailed
	r.ErrorMessage = errMsg
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// CanRetry reports retry eligibility: a non-terminal status with attempts
// remaining. A record at its budget requires operator intervention.
func (r *Record) CanRetry() bool {
	if r.AttemptCount >= r.MaxAttempts {
		return false
	}
	return r.Status == shared.RecordStatusPending || r.Status == shared.RecordStatusFailed
}

// SetDetail records an aggregate counter for the completed run
func (r *Record) SetDetail(key string, value interface{}) {
	if r.Details == nil {
		r.Details = map[string]interface{}{}
	}
	r.Details[key] = value
}
