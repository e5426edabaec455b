package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/procure-finance-sync/internal/domain/shared"
)

// WorkerPoolExecutor runs task requests on a bounded ants worker pool while
// keeping the caller's synchronous error contract: Execute blocks until the
// task finishes so the Kafka offset only commits on success.
type WorkerPoolExecutor struct {
	baseExecutor TaskExecutor
	pool         *ants.Pool
	logger       *slog.Logger
	// Protects the in-flight results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolExecutor(
	baseExecutor TaskExecutor,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolExecutor, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolExecutor{
		baseExecutor: baseExecutor,
		pool:         pool,
		logger:       logger,
		results:      make(map[string]chan error),
	}, nil
}

// Execute submits a task to the worker pool and waits for its outcome
func (s *WorkerPoolExecutor) Execute(ctx context.Context, task *shared.TaskRequest) error {
	logger := s.logger
	if task.CorrelationID != "" {
		logger = s.logger.With("correlation_id", task.CorrelationID)
	}

	logger.Info("Submitting task to worker pool",
		"task_id", task.TaskID.String(),
		"operation", task.Operation,
	)

	resultChan := make(chan error, 1)

	taskID := task.TaskID.String()
	s.mu.Lock()
	s.results[taskID] = resultChan
	s.mu.Unlock()

	// Copy the task so the worker never shares the caller's pointer
	taskCopy := *task

	err := s.pool.Submit(func() {
		err := s.baseExecutor.Execute(ctx, &taskCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, taskID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, taskID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit task to worker pool",
			"task_id", task.TaskID.String(),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool
func (s *WorkerPoolExecutor) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool
func (s *WorkerPoolExecutor) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool
func (s *WorkerPoolExecutor) Capacity() int {
	return s.pool.Cap()
}
