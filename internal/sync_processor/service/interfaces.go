// Package service executes dispatched task requests on the engines, fronted
// by an ants worker pool.
package service

import (
	"context"

	"github.com/procure-finance-sync/internal/domain/shared"
)

// TaskExecutor runs one task request to completion
type TaskExecutor interface {
	Execute(ctx context.Context, task *shared.TaskRequest) error
}
