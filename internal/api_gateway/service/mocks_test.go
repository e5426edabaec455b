package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/engine"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type MockTransferEngine struct {
	mock.Mock
}

func (m *MockTransferEngine) RegisterMapping(ctx context.Context, pair transfer.Pair, invoiceNumber string, dispatch bool) (*engine.Registration, error) {
	args := m.Called(ctx, pair, invoiceNumber, dispatch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.Registration), args.Error(1)
}

func (m *MockTransferEngine) Run(ctx context.Context, record *transfer.Record, method shared.SyncMethod) error {
	args := m.Called(ctx, record, method)
	return args.Error(0)
}

func (m *MockTransferEngine) RunPair(ctx context.Context, pair transfer.Pair, method shared.SyncMethod) (*transfer.Record, error) {
	args := m.Called(ctx, pair, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Record), args.Error(1)
}

func (m *MockTransferEngine) ProcessPending(ctx context.Context, limit int) (*engine.ProcessReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ProcessReport), args.Error(1)
}

type MockClosureEngine struct {
	mock.Mock
}

func (m *MockClosureEngine) Submit(ctx context.Context, orderNumber, orderItem, invoiceNumber string, invoiceID int64, dispatch bool) (*closure.Record, error) {
	args := m.Called(ctx, orderNumber, orderItem, invoiceNumber, invoiceID, dispatch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closure.Record), args.Error(1)
}

func (m *MockClosureEngine) Run(ctx context.Context, record *closure.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockClosureEngine) RunByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockClosureEngine) RetryFailed(ctx context.Context, limit int) (*engine.ProcessReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ProcessReport), args.Error(1)
}

type MockOrderOrchestrator struct {
	mock.Mock
}

func (m *MockOrderOrchestrator) CreateOrderWithAttachments(ctx context.Context, input engine.CreateOrderInput) (*order.Integration, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Integration), args.Error(1)
}

func (m *MockOrderOrchestrator) AdvanceToFinance(ctx context.Context, orderIntegrationID uuid.UUID) (*order.FinanceMap, error) {
	args := m.Called(ctx, orderIntegrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.FinanceMap), args.Error(1)
}

func (m *MockOrderOrchestrator) ProcessPendingOrders(ctx context.Context, limit int) (*engine.ProcessReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ProcessReport), args.Error(1)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Create(ctx context.Context, record *transfer.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Record), args.Error(1)
}

func (m *MockTransferRepository) GetSuccessfulByPair(ctx context.Context, pair transfer.Pair) (*transfer.Record, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Record), args.Error(1)
}

func (m *MockTransferRepository) GetReusableByPair(ctx context.Context, pair transfer.Pair) (*transfer.Record, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Record), args.Error(1)
}

func (m *MockTransferRepository) ListRetryable(ctx context.Context, limit int) ([]*transfer.Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Record), args.Error(1)
}

func (m *MockTransferRepository) ListByStatus(ctx context.Context, status shared.RecordStatus, limit, offset int) ([]*transfer.Record, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Record), args.Error(1)
}

func (m *MockTransferRepository) ClaimProcessing(ctx context.Context, record *transfer.Record) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransferRepository) SaveProgress(ctx context.Context, record *transfer.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransferRepository) SaveOutcome(ctx context.Context, record *transfer.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

var (
	_ engine.TransferEngine    = (*MockTransferEngine)(nil)
	_ engine.ClosureEngine     = (*MockClosureEngine)(nil)
	_ engine.OrderOrchestrator = (*MockOrderOrchestrator)(nil)
	_ transfer.Repository      = (*MockTransferRepository)(nil)
)
