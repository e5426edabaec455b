package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/procure-finance-sync/internal/domain/order"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/platform/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReconciliationRobot_ScanAndBackfill(t *testing.T) {
	ctx := context.Background()

	t.Run("BackfillsNewEntityAndSkipsSynced", func(t *testing.T) {
		orders := new(MockOrderRepository)
		financeMaps := new(MockFinanceMapRepository)
		maps := new(MockIntegrationMapRepository)
		transfers := new(MockTransferEngine)
		client := new(MockRemoteClient)

		fresh := remote.SourceEntity{
			RemoteOrderID: 100, SourceRecordID: 200, VendorRef: 300,
			Amount: 1234.56, DueDate: "2026-09-30", InvoiceNumber: "NF-777",
		}
		synced := remote.SourceEntity{
			RemoteOrderID: 101, SourceRecordID: 201, VendorRef: 300,
			Amount: 50, DueDate: "2026-09-30", InvoiceNumber: "NF-778",
		}

		client.On("ListSourceEntities", ctx, 1, 50, mock.Anything).
			Return([]remote.SourceEntity{fresh, synced}, nil).Once()
		client.On("ListSourceEntities", ctx, 2, 50, mock.Anything).
			Return([]remote.SourceEntity{}, nil).Once()

		// Fresh entity: discover order, create payable, run transfer.
		freshOrder := order.NewIntegration(100, "", shared.OrderOriginExternal, shared.CreationMethodBatch)
		orders.On("GetByRemoteOrderID", ctx, int64(100)).Return(nil, nil).Once()
		orders.On("GetOrCreateByRemoteOrderID", ctx, int64(100), shared.OrderOriginExternal, shared.CreationMethodBatch).
			Return(freshOrder, nil).Once()
		financeMaps.On("GetByOrderIntegrationID", ctx, freshOrder.ID).Return(nil, nil).Once()
		client.On("CreatePayable", ctx, remote.PayablePayload{
			IntegrationCode: "SCAN-200", VendorRef: 300, Amount: 1234.56,
			DueDate: "2026-09-30", DocumentNumber: "NF-777",
		}).Return(int64(5000), nil).Once()
		financeMaps.On("Create", ctx, mock.MatchedBy(func(fm *order.FinanceMap) bool {
			return fm.OrderIntegrationID == freshOrder.ID && fm.CreationMethod == shared.CreationMethodBatch
		})).Return(nil).Once()
		maps.On("GetOrCreate", ctx, int64(200), int64(5000), "NF-777").Return(nil, nil).Once()

		pair := transfer.Pair{SourceTable: TableGoodsReceipt, SourceID: 200, DestTable: TablePayable, DestID: 5000}
		transfers.On("RunPair", ctx, pair, shared.SyncMethodBatchScan).Return(successfulTransfer(pair), nil).Once()
		financeMaps.On("UpdateSyncState", ctx, mock.AnythingOfType("*order.FinanceMap")).Return(nil).Once()

		// Synced entity: finance map already exists, nothing more.
		syncedOrder := order.NewIntegration(101, "", shared.OrderOriginExternal, shared.CreationMethodBatch)
		orders.On("GetByRemoteOrderID", ctx, int64(101)).Return(syncedOrder, nil).Once()
		financeMaps.On("GetByOrderIntegrationID", ctx, syncedOrder.ID).
			Return(order.NewFinanceMap(syncedOrder.ID, 4000, shared.CreationMethodBatch), nil).Once()

		robot := NewReconciliationRobot(newTestLogger(), orders, financeMaps, maps, transfers, client, testRemoteConfig())
		report, err := robot.ScanAndBackfill(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, report.PagesScanned)
		assert.Equal(t, 2, report.EntitiesSeen)
		assert.Equal(t, 1, report.OrdersDiscovered)
		assert.Equal(t, 1, report.PayablesCreated)
		assert.Equal(t, 1, report.AlreadySynced)
		assert.Equal(t, 1, report.TransfersRun)
		assert.Empty(t, report.Errors)

		orders.AssertExpectations(t)
		financeMaps.AssertExpectations(t)
		maps.AssertExpectations(t)
		transfers.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("PerEntityErrorsDoNotStopScan", func(t *testing.T) {
		orders := new(MockOrderRepository)
		financeMaps := new(MockFinanceMapRepository)
		maps := new(MockIntegrationMapRepository)
		transfers := new(MockTransferEngine)
		client := new(MockRemoteClient)

		broken := remote.SourceEntity{RemoteOrderID: 100, SourceRecordID: 200, InvoiceNumber: "NF-1"}
		good := remote.SourceEntity{RemoteOrderID: 102, SourceRecordID: 202, VendorRef: 7, Amount: 10, DueDate: "2026-09-01", InvoiceNumber: "NF-3"}

		client.On("ListSourceEntities", ctx, 1, 50, mock.Anything).
			Return([]remote.SourceEntity{broken, good}, nil).Once()
		client.On("ListSourceEntities", ctx, 2, 50, mock.Anything).
			Return([]remote.SourceEntity{}, nil).Once()

		// Broken entity: payable creation faults.
		brokenOrder := order.NewIntegration(100, "", shared.OrderOriginExternal, shared.CreationMethodBatch)
		orders.On("GetByRemoteOrderID", ctx, int64(100)).Return(brokenOrder, nil).Once()
		financeMaps.On("GetByOrderIntegrationID", ctx, brokenOrder.ID).Return(nil, nil).Once()
		client.On("CreatePayable", ctx, mock.MatchedBy(func(p remote.PayablePayload) bool {
			return p.IntegrationCode == "SCAN-200"
		})).Return(int64(0), &remote.Fault{Call: "IncluirContaPagar", Message: "vendor missing"}).Once()

		// Good entity: full backfill.
		goodOrder := order.NewIntegration(102, "", shared.OrderOriginExternal, shared.CreationMethodBatch)
		orders.On("GetByRemoteOrderID", ctx, int64(102)).Return(goodOrder, nil).Once()
		financeMaps.On("GetByOrderIntegrationID", ctx, goodOrder.ID).Return(nil, nil).Once()
		client.On("CreatePayable", ctx, mock.MatchedBy(func(p remote.PayablePayload) bool {
			return p.IntegrationCode == "SCAN-202"
		})).Return(int64(5001), nil).Once()
		financeMaps.On("Create", ctx, mock.AnythingOfType("*order.FinanceMap")).Return(nil).Once()
		maps.On("GetOrCreate", ctx, int64(202), int64(5001), "NF-3").Return(nil, nil).Once()
		pair := transfer.Pair{SourceTable: TableGoodsReceipt, SourceID: 202, DestTable: TablePayable, DestID: 5001}
		transfers.On("RunPair", ctx, pair, shared.SyncMethodBatchScan).Return(successfulTransfer(pair), nil).Once()
		financeMaps.On("UpdateSyncState", ctx, mock.AnythingOfType("*order.FinanceMap")).Return(nil).Once()

		robot := NewReconciliationRobot(newTestLogger(), orders, financeMaps, maps, transfers, client, testRemoteConfig())
		report, err := robot.ScanAndBackfill(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, report.EntitiesSeen)
		assert.Equal(t, 1, report.PayablesCreated)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, int64(200), report.Errors[0].SourceRecordID)
		orders.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("SkipsEntitiesMissingEitherIdentifier", func(t *testing.T) {
		orders := new(MockOrderRepository)
		financeMaps := new(MockFinanceMapRepository)
		maps := new(MockIntegrationMapRepository)
		transfers := new(MockTransferEngine)
		client := new(MockRemoteClient)

		// Neither entity is actionable: one has no order reference yet,
		// the other no source-record id. Nothing downstream may run.
		noOrder := remote.SourceEntity{RemoteOrderID: 0, SourceRecordID: 201, InvoiceNumber: "NF-2"}
		noSource := remote.SourceEntity{RemoteOrderID: 103, SourceRecordID: 0, InvoiceNumber: "NF-4"}

		client.On("ListSourceEntities", ctx, 1, 50, mock.Anything).
			Return([]remote.SourceEntity{noOrder, noSource}, nil).Once()
		client.On("ListSourceEntities", ctx, 2, 50, mock.Anything).
			Return([]remote.SourceEntity{}, nil).Once()

		robot := NewReconciliationRobot(newTestLogger(), orders, financeMaps, maps, transfers, client, testRemoteConfig())
		report, err := robot.ScanAndBackfill(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, report.EntitiesSeen)
		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, 0, report.PayablesCreated)
		assert.Equal(t, 0, report.TransfersRun)
		assert.Empty(t, report.Errors)

		orders.AssertNotCalled(t, "GetByRemoteOrderID", mock.Anything, mock.Anything)
		client.AssertNotCalled(t, "CreatePayable", mock.Anything, mock.Anything)
		transfers.AssertNotCalled(t, "RunPair", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ListingFailureEndsScan", func(t *testing.T) {
		client := new(MockRemoteClient)
		client.On("ListSourceEntities", ctx, 1, 50, mock.Anything).
			Return(nil, errors.New("transport down")).Once()

		robot := NewReconciliationRobot(newTestLogger(), new(MockOrderRepository), new(MockFinanceMapRepository), new(MockIntegrationMapRepository), new(MockTransferEngine), client, testRemoteConfig())
		report, err := robot.ScanAndBackfill(ctx)
		require.Error(t, err)
		assert.Equal(t, 0, report.PagesScanned)
	})

	t.Run("DuplicateFinanceMapDuringBackfillIsAbsorbed", func(t *testing.T) {
		orders := new(MockOrderRepository)
		financeMaps := new(MockFinanceMapRepository)
		client := new(MockRemoteClient)

		entity := remote.SourceEntity{RemoteOrderID: 100, SourceRecordID: 200, VendorRef: 1, Amount: 10, InvoiceNumber: "NF-1"}
		client.On("ListSourceEntities", ctx, 1, 50, mock.Anything).Return([]remote.SourceEntity{entity}, nil).Once()
		client.On("ListSourceEntities", ctx, 2, 50, mock.Anything).Return([]remote.SourceEntity{}, nil).Once()

		oi := order.NewIntegration(100, "", shared.OrderOriginExternal, shared.CreationMethodBatch)
		orders.On("GetByRemoteOrderID", ctx, int64(100)).Return(oi, nil).Once()
		financeMaps.On("GetByOrderIntegrationID", ctx, oi.ID).Return(nil, nil).Once()
		client.On("CreatePayable", ctx, mock.AnythingOfType("remote.PayablePayload")).Return(int64(5002), nil).Once()
		financeMaps.On("Create", ctx, mock.AnythingOfType("*order.FinanceMap")).
			Return(order.ErrDuplicateFinanceMap{OrderIntegrationID: oi.ID}).Once()

		robot := NewReconciliationRobot(newTestLogger(), orders, financeMaps, new(MockIntegrationMapRepository), new(MockTransferEngine), client, testRemoteConfig())
		report, err := robot.ScanAndBackfill(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.PayablesCreated)
		assert.Equal(t, 1, report.AlreadySynced)
		assert.Empty(t, report.Errors)
	})
}
