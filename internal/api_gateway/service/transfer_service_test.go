package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/domain/transfer"
	"github.com/procure-finance-sync/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testPair = transfer.Pair{SourceTable: "recebimento-nfe", SourceID: 101, DestTable: "conta-pagar", DestID: 202}

func TestTransferService_StartTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("AsyncRegistersAndDispatches", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		mockRepo := new(MockTransferRepository)
		svc := NewTransferService(newTestLogger(), mockEngine, mockRepo)

		record := transfer.NewRecord(testPair)
		mockEngine.On("RegisterMapping", ctx, testPair, "NF-9001", true).
			Return(&engine.Registration{Record: record, Created: true, Dispatched: true}, nil)

		registration, err := svc.StartTransfer(ctx, testPair, "NF-9001", true)

		require.NoError(t, err)
		assert.True(t, registration.Created)
		assert.True(t, registration.Dispatched)
		mockEngine.AssertNotCalled(t, "Run")
	})

	t.Run("SyncRegistersThenRunsInline", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		mockRepo := new(MockTransferRepository)
		svc := NewTransferService(newTestLogger(), mockEngine, mockRepo)

		record := transfer.NewRecord(testPair)
		mockEngine.On("RegisterMapping", ctx, testPair, "", false).
			Return(&engine.Registration{Record: record, Created: true}, nil)
		mockEngine.On("Run", ctx, record, shared.SyncMethodAutomated).
			Run(func(args mock.Arguments) {
				rec := args.Get(1).(*transfer.Record)
				rec.MarkProcessing()
				rec.MarkSuccess(nil)
			}).Return(nil)

		registration, err := svc.StartTransfer(ctx, testPair, "", false)

		require.NoError(t, err)
		assert.Equal(t, shared.RecordStatusSuccess, registration.Record.Status)
		mockEngine.AssertExpectations(t)
	})

	t.Run("SyncSkipsRunWhenPairAlreadySucceeded", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		mockRepo := new(MockTransferRepository)
		svc := NewTransferService(newTestLogger(), mockEngine, mockRepo)

		record := transfer.NewRecord(testPair)
		record.MarkProcessing()
		record.MarkSuccess(nil)
		mockEngine.On("RegisterMapping", ctx, testPair, "", false).
			Return(&engine.Registration{Record: record}, nil)

		registration, err := svc.StartTransfer(ctx, testPair, "", false)

		require.NoError(t, err)
		assert.Equal(t, shared.RecordStatusSuccess, registration.Record.Status)
		mockEngine.AssertNotCalled(t, "Run")
	})

	t.Run("LostClaimStillReturnsRegistration", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		mockRepo := new(MockTransferRepository)
		svc := NewTransferService(newTestLogger(), mockEngine, mockRepo)

		record := transfer.NewRecord(testPair)
		mockEngine.On("RegisterMapping", ctx, testPair, "", false).
			Return(&engine.Registration{Record: record}, nil)
		mockEngine.On("Run", ctx, record, shared.SyncMethodAutomated).Return(engine.ErrNotClaimable)

		registration, err := svc.StartTransfer(ctx, testPair, "", false)

		require.NoError(t, err)
		assert.NotNil(t, registration)
	})
}

func TestTransferService_GetTransferByID(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFoundReturnsNil", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		mockRepo := new(MockTransferRepository)
		svc := NewTransferService(newTestLogger(), mockEngine, mockRepo)

		id := uuid.New()
		mockRepo.On("GetByID", ctx, id).Return(nil, transfer.ErrRecordNotFound{ID: id})

		record, err := svc.GetTransferByID(ctx, id)

		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("OtherErrorsPropagate", func(t *testing.T) {
		mockEngine := new(MockTransferEngine)
		mockRepo := new(MockTransferRepository)
		svc := NewTransferService(newTestLogger(), mockEngine, mockRepo)

		id := uuid.New()
		mockRepo.On("GetByID", ctx, id).Return(nil, errors.New("connection reset"))

		record, err := svc.GetTransferByID(ctx, id)

		assert.Error(t, err)
		assert.Nil(t, record)
	})
}

func TestTransferService_ListTransfers(t *testing.T) {
	ctx := context.Background()

	mockEngine := new(MockTransferEngine)
	mockRepo := new(MockTransferRepository)
	svc := NewTransferService(newTestLogger(), mockEngine, mockRepo)

	// Page 3 with 20 per page translates to offset 40.
	mockRepo.On("ListByStatus", ctx, shared.RecordStatusFailed, 20, 40).
		Return([]*transfer.Record{transfer.NewRecord(testPair)}, nil)

	records, err := svc.ListTransfers(ctx, shared.RecordStatusFailed, 3, 20)

	require.NoError(t, err)
	assert.Len(t, records, 1)
	mockRepo.AssertExpectations(t)
}

func TestTransferService_ProcessPending(t *testing.T) {
	mockEngine := new(MockTransferEngine)
	mockRepo := new(MockTransferRepository)
	svc := NewTransferService(newTestLogger(), mockEngine, mockRepo)

	mockEngine.On("ProcessPending", mock.Anything, 25).
		Return(&engine.ProcessReport{Examined: 2, Executed: 2, Succeeded: 1, Failed: 1}, nil)

	report, err := svc.ProcessPending(context.Background(), 25)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Executed)
}
