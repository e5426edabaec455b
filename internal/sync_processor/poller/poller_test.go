package poller

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/procure-finance-sync/internal/config"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/engine"
	"github.com/stretchr/testify/assert"

	"github.com/google/uuid"
)

// countingEngines implements all four engine interfaces with atomic counters
type countingEngines struct {
	transferSweeps int64
	closureSweeps  int64
	orderSweeps    int64
	robotScans     int64
}

func (c *countingEngines) RegisterMapping(context.Context, transfer.Pair, string, bool) (*engine.Registration, error) {
	return nil, nil
}

func (c *countingEngines) Run(context.Context, *transfer.Record, shared.SyncMethod) error {
	return nil
}

func (c *countingEngines) RunPair(context.Context, transfer.Pair, shared.SyncMethod) (*transfer.Record, error) {
	return nil, nil
}

func (c *countingEngines) ProcessPending(_ context.Context, _ int) (*engine.ProcessReport, error) {
	atomic.AddInt64(&c.transferSweeps, 1)
	return &engine.ProcessReport{}, nil
}

func (c *countingEngines) Submit(context.Context, string, string, string, int64, bool) (*closure.Record, error) {
	return nil, nil
}

func (c *countingEngines) RunClosure(context.Context, *closure.Record) error { return nil }

func (c *countingEngines) RunByID(context.Context, uuid.UUID) error { return nil }

func (c *countingEngines) RetryFailed(_ context.Context, _ int) (*engine.ProcessReport, error) {
	atomic.AddInt64(&c.closureSweeps, 1)
	return &engine.ProcessReport{}, nil
}

func (c *countingEngines) CreateOrderWithAttachments(context.Context, engine.CreateOrderInput) (*order.Integration, error) {
	return nil, nil
}

func (c *countingEngines) AdvanceToFinance(context.Context, uuid.UUID) (*order.FinanceMap, error) {
	return nil, nil
}

func (c *countingEngines) ProcessPendingOrders(_ context.Context, _ int) (*engine.ProcessReport, error) {
	atomic.AddInt64(&c.orderSweeps, 1)
	return &engine.ProcessReport{}, nil
}

func (c *countingEngines) ScanAndBackfill(context.Context) (*engine.ScanReport, error) {
	atomic.AddInt64(&c.robotScans, 1)
	return &engine.ScanReport{}, nil
}

// closureFacade disambiguates Run between the transfer and closure interfaces
type closureFacade struct {
	*countingEngines
}

func (f closureFacade) Run(ctx context.Context, record *closure.Record) error {
	return f.RunClosure(ctx, record)
}

func TestPoller_Start(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engines := &countingEngines{}

	cfg := &config.PollerConfig{
		TransferInterval: 10 * time.Millisecond,
		ClosureInterval:  10 * time.Millisecond,
		OrderInterval:    10 * time.Millisecond,
		RobotInterval:    25 * time.Millisecond,
		BatchSize:        5,
	}

	p := NewPoller(cfg, engines, closureFacade{engines}, engines, engines, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	time.Sleep(80 * time.Millisecond)
	cancel()
	<-done

	assert.GreaterOrEqual(t, atomic.LoadInt64(&engines.transferSweeps), int64(2))
	assert.GreaterOrEqual(t, atomic.LoadInt64(&engines.closureSweeps), int64(2))
	assert.GreaterOrEqual(t, atomic.LoadInt64(&engines.orderSweeps), int64(2))
	assert.GreaterOrEqual(t, atomic.LoadInt64(&engines.robotScans), int64(1))
}
