package engine

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/integration"
	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/synclog"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/platform/remote"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// MockTransferRepository mocks transfer.Repository
type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Create(ctx context.Context, record *transfer.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.Record, error) {
	args := m.Called(ctx, id)
	if rec := args.Get(0); rec != nil {
		return rec.(*transfer.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) GetSuccessfulByPair(ctx context.Context, pair transfer.Pair) (*transfer.Record, error) {
	args := m.Called(ctx, pair)
	if rec := args.Get(0); rec != nil {
		return rec.(*transfer.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) GetReusableByPair(ctx context.Context, pair transfer.Pair) (*transfer.Record, error) {
	args := m.Called(ctx, pair)
	if rec := args.Get(0); rec != nil {
		return rec.(*transfer.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) ListRetryable(ctx context.Context, limit int) ([]*transfer.Record, error) {
	args := m.Called(ctx, limit)
	if recs := args.Get(0); recs != nil {
		return recs.([]*transfer.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) ListByStatus(ctx context.Context, status shared.RecordStatus, limit, offset int) ([]*transfer.Record, error) {
	args := m.Called(ctx, status, limit, offset)
	if recs := args.Get(0); recs != nil {
		return recs.([]*transfer.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) ClaimProcessing(ctx context.Context, record *transfer.Record) (bool, error) {
	args := m.Called(ctx, record)
	if args.Bool(0) {
		record.MarkProcessing()
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockTransferRepository) SaveProgress(ctx context.Context, record *transfer.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockTransferRepository) SaveOutcome(ctx context.Context, record *transfer.Record) error {
	return m.Called(ctx, record).Error(0)
}

// MockClosureRepository mocks closure.Repository
type MockClosureRepository struct {
	mock.Mock
}

func (m *MockClosureRepository) Create(ctx context.Context, record *closure.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockClosureRepository) GetByID(ctx context.Context, id uuid.UUID) (*closure.Record, error) {
	args := m.Called(ctx, id)
	if rec := args.Get(0); rec != nil {
		return rec.(*closure.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClosureRepository) ListRetryable(ctx context.Context, limit int) ([]*closure.Record, error) {
	args := m.Called(ctx, limit)
	if recs := args.Get(0); recs != nil {
		return recs.([]*closure.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClosureRepository) ListByStatus(ctx context.Context, status shared.RecordStatus, limit, offset int) ([]*closure.Record, error) {
	args := m.Called(ctx, status, limit, offset)
	if recs := args.Get(0); recs != nil {
		return recs.([]*closure.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClosureRepository) ClaimProcessing(ctx context.Context, record *closure.Record) (bool, error) {
	args := m.Called(ctx, record)
	if args.Bool(0) {
		record.MarkProcessing()
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockClosureRepository) SaveOutcome(ctx context.Context, record *closure.Record) error {
	return m.Called(ctx, record).Error(0)
}

// MockSyncLogRepository mocks synclog.Repository
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Create(ctx context.Context, entry *synclog.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockSyncLogRepository) ListBySource(ctx context.Context, sourceTable string, sourceID int64, limit, offset int) ([]*synclog.Entry, error) {
	args := m.Called(ctx, sourceTable, sourceID, limit, offset)
	if entries := args.Get(0); entries != nil {
		return entries.([]*synclog.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSyncLogRepository) ListByDest(ctx context.Context, destTable string, destID int64, limit, offset int) ([]*synclog.Entry, error) {
	args := m.Called(ctx, destTable, destID, limit, offset)
	if entries := args.Get(0); entries != nil {
		return entries.([]*synclog.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockOrderRepository mocks order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, oi *order.Integration) error {
	return m.Called(ctx, oi).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Integration, error) {
	args := m.Called(ctx, id)
	if oi := args.Get(0); oi != nil {
		return oi.(*order.Integration), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) GetByRemoteOrderID(ctx context.Context, remoteOrderID int64) (*order.Integration, error) {
	args := m.Called(ctx, remoteOrderID)
	if oi := args.Get(0); oi != nil {
		return oi.(*order.Integration), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) GetOrCreateByRemoteOrderID(ctx context.Context, remoteOrderID int64, origin shared.OrderOrigin, method shared.CreationMethod) (*order.Integration, error) {
	args := m.Called(ctx, remoteOrderID, origin, method)
	if oi := args.Get(0); oi != nil {
		return oi.(*order.Integration), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) ListWithoutFinanceMap(ctx context.Context, origin shared.OrderOrigin, limit int) ([]*order.Integration, error) {
	args := m.Called(ctx, origin, limit)
	if ois := args.Get(0); ois != nil {
		return ois.([]*order.Integration), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockFinanceMapRepository mocks order.FinanceMapRepository
type MockFinanceMapRepository struct {
	mock.Mock
}

func (m *MockFinanceMapRepository) Create(ctx context.Context, fm *order.FinanceMap) error {
	return m.Called(ctx, fm).Error(0)
}

func (m *MockFinanceMapRepository) GetByOrderIntegrationID(ctx context.Context, orderIntegrationID uuid.UUID) (*order.FinanceMap, error) {
	args := m.Called(ctx, orderIntegrationID)
	if fm := args.Get(0); fm != nil {
		return fm.(*order.FinanceMap), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFinanceMapRepository) UpdateSyncState(ctx context.Context, fm *order.FinanceMap) error {
	return m.Called(ctx, fm).Error(0)
}

// MockIntegrationMapRepository mocks integration.Repository
type MockIntegrationMapRepository struct {
	mock.Mock
}

func (m *MockIntegrationMapRepository) GetOrCreate(ctx context.Context, sourceID, destID int64, invoiceNumber string) (*integration.Map, error) {
	args := m.Called(ctx, sourceID, destID, invoiceNumber)
	if im := args.Get(0); im != nil {
		return im.(*integration.Map), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIntegrationMapRepository) GetByPair(ctx context.Context, sourceID, destID int64) (*integration.Map, error) {
	args := m.Called(ctx, sourceID, destID)
	if im := args.Get(0); im != nil {
		return im.(*integration.Map), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIntegrationMapRepository) ListBySourceID(ctx context.Context, sourceID int64) ([]*integration.Map, error) {
	args := m.Called(ctx, sourceID)
	if ims := args.Get(0); ims != nil {
		return ims.([]*integration.Map), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRemoteClient mocks remote.Client
type MockRemoteClient struct {
	mock.Mock
}

func (m *MockRemoteClient) ListAttachments(ctx context.Context, table string, id int64) ([]remote.Attachment, error) {
	args := m.Called(ctx, table, id)
	if atts := args.Get(0); atts != nil {
		return atts.([]remote.Attachment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteClient) FetchAttachmentContent(ctx context.Context, table string, id int64, att remote.Attachment) (string, error) {
	args := m.Called(ctx, table, id, att)
	return args.String(0), args.Error(1)
}

func (m *MockRemoteClient) AddAttachment(ctx context.Context, table string, id int64, name, contentB64, description string) error {
	return m.Called(ctx, table, id, name, contentB64, description).Error(0)
}

func (m *MockRemoteClient) CreateOrder(ctx context.Context, payload map[string]interface{}) (int64, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRemoteClient) QueryOrder(ctx context.Context, remoteOrderID int64) (*remote.OrderInfo, error) {
	args := m.Called(ctx, remoteOrderID)
	if info := args.Get(0); info != nil {
		return info.(*remote.OrderInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteClient) QueryOrderByNumber(ctx context.Context, orderNumber string) (*remote.OrderInfo, error) {
	args := m.Called(ctx, orderNumber)
	if info := args.Get(0); info != nil {
		return info.(*remote.OrderInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteClient) CloseOrder(ctx context.Context, orderNumber, orderItem string) error {
	return m.Called(ctx, orderNumber, orderItem).Error(0)
}

func (m *MockRemoteClient) CreatePayable(ctx context.Context, payload remote.PayablePayload) (int64, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRemoteClient) QueryPayable(ctx context.Context, remotePayableID int64) (map[string]interface{}, error) {
	args := m.Called(ctx, remotePayableID)
	if data := args.Get(0); data != nil {
		return data.(map[string]interface{}), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteClient) ListSourceEntities(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]remote.SourceEntity, error) {
	args := m.Called(ctx, page, pageSize, filters)
	if entities := args.Get(0); entities != nil {
		return entities.([]remote.SourceEntity), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessagePublisher mocks producers.MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockMessagePublisher) Close() error {
	return m.Called().Error(0)
}

// Verify interface implementations
var (
	_ transfer.Repository        = (*MockTransferRepository)(nil)
	_ closure.Repository         = (*MockClosureRepository)(nil)
	_ synclog.Repository         = (*MockSyncLogRepository)(nil)
	_ order.Repository           = (*MockOrderRepository)(nil)
	_ order.FinanceMapRepository = (*MockFinanceMapRepository)(nil)
	_ integration.Repository     = (*MockIntegrationMapRepository)(nil)
	_ remote.Client              = (*MockRemoteClient)(nil)
)
