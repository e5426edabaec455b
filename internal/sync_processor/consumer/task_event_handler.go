// Package consumer adapts Kafka messages into task executions.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/platform/messaging/producers"
	"github.com/procure-finance-sync/internal/sync_processor/service"
)

// TaskEventHandler handles incoming task request messages from Kafka
type TaskEventHandler struct {
	executor service.TaskExecutor
	producer producers.DeadLetterPublisher
	logger   *slog.Logger
}

// NewTaskEventHandler creates a new handler
func NewTaskEventHandler(
	logger *slog.Logger,
	executor service.TaskExecutor,
	producer producers.DeadLetterPublisher,
) *TaskEventHandler {
	return &TaskEventHandler{
		executor: executor,
		producer: producer,
		logger:   logger,
	}
}

// HandleMessage processes one Kafka message. Unparseable messages and unknown
// operations go to the DLQ and commit; execution failures surface so the
// offset stays uncommitted and the message is redelivered.
func (h *TaskEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var task shared.TaskRequest
	if err := json.Unmarshal(value, &task); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal task request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)
		return h.sendToDLQ(ctx, key, value, fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error()), err)
	}

	logger := h.logger
	if task.CorrelationID != "" {
		logger = h.logger.With("correlation_id", task.CorrelationID)
	}

	logger.Info("Received task request for processing",
		"task_id", task.TaskID.String(),
		"operation", task.Operation,
	)

	if err := h.executor.Execute(ctx, &task); err != nil {
		if errors.Is(err, shared.ErrUnknownOperation) {
			logger.Error("Unknown task operation", "operation", task.Operation)
			return h.sendToDLQ(ctx, key, value, err.Error(), err)
		}

		logger.Error("Failed to execute task",
			"task_id", task.TaskID.String(),
			"operation", task.Operation,
			"error", err,
		)
		return fmt.Errorf("executing task %s failed: %w", task.TaskID.String(), err)
	}

	logger.Info("Successfully executed task", "task_id", task.TaskID.String())
	return nil
}

// sendToDLQ parks an unprocessable message on the DLQ. Returns nil when the
// message was parked (commit the offset) and the original error when the DLQ
// is unavailable, allowing Kafka redelivery.
func (h *TaskEventHandler) sendToDLQ(ctx context.Context, key, value []byte, reason string, original error) error {
	if h.producer == nil {
		return fmt.Errorf("unprocessable message without DLQ: %w", original)
	}

	if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", dlqErr,
			"original_error", original,
			"message_key", string(key),
		)
		return fmt.Errorf("unprocessable message, DLQ publish failed: %w", original)
	}

	h.logger.Info("Published unprocessable message to DLQ",
		"message_key", string(key),
		"reason", reason,
	)
	return nil
}
