package shared

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownOperation = errors.New("unknown task operation")

// Task operation names dispatched through the task topic
const (
	OperationTransferRun   = "transfer.run"
	OperationClosureRun    = "closure.run"
	OperationOrdersAdvance = "orders.advance"
	OperationRobotScan     = "robot.scan"
)

// TaskRequest is the Kafka envelope for a unit of asynchronous work. Args is
// operation-specific; the consumer decodes it against the matching *Args type.
type TaskRequest struct {
	TaskID        uuid.UUID       `json:"task_id"`
	Operation     string          `json:"operation"`
	Args          json.RawMessage `json:"args,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewTaskRequest builds an envelope for an operation with marshaled args.
func NewTaskRequest(operation string, args interface{}, correlationID string) (*TaskRequest, error) {
	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &TaskRequest{
		TaskID:        uuid.New(),
		Operation:     operation,
		Args:          raw,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// TransferArgs are the arguments of a transfer.run task
type TransferArgs struct {
	SourceTable string `json:"source_table"`
	SourceID    int64  `json:"source_id"`
	DestTable   string `json:"dest_table"`
	DestID      int64  `json:"dest_id"`
}

// ClosureArgs are the arguments of a closure.run task. RecordID references the
// closure record created by the trigger surface before dispatch.
type ClosureArgs struct {
	RecordID      uuid.UUID `json:"record_id"`
	OrderNumber   string    `json:"order_number"`
	OrderItem     string    `json:"order_item,omitempty"`
	InvoiceNumber string    `json:"invoice_number"`
	InvoiceID     int64     `json:"invoice_id"`
}

// AdvanceArgs are the arguments of an orders.advance task
type AdvanceArgs struct {
	OrderIntegrationID uuid.UUID `json:"order_integration_id"`
}
