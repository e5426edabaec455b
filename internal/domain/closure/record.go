package closure

import (
	"time"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// Detail keys persisted in the record's details map
const (
	DetailMessage      = "message"
	DetailStatusBefore = "status_before"
	DetailStatusAfter  = "status_after"
)

// Record represents one attempt to remotely close a purchase order, triggered
// by a service invoice event. Mirrors the transfer record's retry bookkeeping.
type Record struct {
	ID            uuid.UUID              `json:"id"`
	OrderNumber   string                 `json:"order_number"`
	OrderItem     string                 `json:"order_item,omitempty"`
	InvoiceNumber string                 `json:"invoice_number"`
	InvoiceID     int64                  `json:"invoice_id"`
	Status        shared.RecordStatus    `json:"status"`
	AttemptCount  int                    `json:"attempt_count"`
	MaxAttempts   int                    `json:"max_attempts"`
	ErrorMessage  string                 `json:"error_message,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
}

// NewRecord creates a pending closure record
func NewRecord(orderNumber, orderItem, invoiceNumber string, invoiceID int64) *Record {
	now := time.Now()
	return &Record{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		OrderItem:     orderItem,
		InvoiceNumber: invoiceNumber,
		InvoiceID:     invoiceID,
		Status:        shared.RecordStatusPending,
		MaxAttempts:   shared.DefaultMaxAttempts,
		Details:       map[string]interface{}{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MarkProcessing transitions the record to processing and consumes one attempt
func (r *Record) MarkProcessing() {
	r.Status = shared.RecordStatusProcessing
	r.AttemptCount++
	r.UpdatedAt = time.Now()
}

// MarkSuccess finalizes the record, merging any outcome details
func (r *Record) MarkSuccess(details map[string]interface{}) {
	r.Status = shared.RecordStatusSuccess
	for k, v := range details {
		r.SetDetail(k, v)
	}
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkFailed finalizes this attempt with the captured error message
func (r *Record) MarkFailed(errMsg string) {
	r.Status = shared.RecordStatusFailed
	r.ErrorMessage = errMsg
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// CanRetry reports whether the record is still retry-eligible
func (r *Record) CanRetry() bool {
	if r.AttemptCount >= r.MaxAttempts {
		return false
	}
	return r.Status == shared.RecordStatusPending || r.Status == shared.RecordStatusFailed
}

// SetDetail records an outcome detail
func (r *Record) SetDetail(key string, value interface{}) {
	if r.Details == nil {
		r.Details = map[string]interface{}{}
	}
	r.Details[key] = value
}
