package service

import (
	"context"
	"log/slog"

	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/platform/messaging/producers"
)

// RobotServiceImpl implements the RobotService interface
type RobotServiceImpl struct {
	producer producers.MessagePublisher
	logger   *slog.Logger
}

// NewRobotService creates a new robot service
func NewRobotService(logger *slog.Logger, producer producers.MessagePublisher) RobotService {
	return &RobotServiceImpl{
		producer: producer,
		logger:   logger,
	}
}

// TriggerScan dispatches a robot.scan task. The scan pages through the whole
// source listing, so it always runs on the processor, never inline.
func (s *RobotServiceImpl) TriggerScan(ctx context.Context, correlationID string) (string, error) {
	task, err := shared.NewTaskRequest(shared.OperationRobotScan, nil, correlationID)
	if err != nil {
		return "", err
	}

	if err := s.producer.Publish(ctx, task.TaskID.String(), task); err != nil {
		s.logger.Error("Failed to publish scan task", "error", err)
		return "", err
	}

	s.logger.Info("Scan task published", "task_id", task.TaskID.String())
	return task.TaskID.String(), nil
}
