package transfer

import (
	"testing"

	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPair() Pair {
	return Pair{SourceTable: "goods-receipt", SourceID: 101, DestTable: "payable", DestID: 202}
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord(testPair())

	assert.Equal(t, shared.RecordStatusPending, rec.Status)
	assert.Equal(t, 0, rec.AttemptCount)
	assert.Equal(t, shared.DefaultMaxAttempts, rec.MaxAttempts)
	assert.True(t, rec.CanRetry())
	assert.Nil(t, rec.CompletedAt)
}

func TestRecord_Transitions(t *testing.T) {
	t.Run("ProcessingConsumesAttempt", func(t *testing.T) {
		rec := NewRecord(testPair())
		rec.MarkProcessing()

		assert.Equal(t, shared.RecordStatusProcessing, rec.Status)
		assert.Equal(t, 1, rec.AttemptCount)
	})

	t.Run("SuccessSetsCompletionAndCounts", func(t *testing.T) {
		rec := NewRecord(testPair())
		rec.MarkProcessing()

		items := []TransferredItem{
			{Name: "invoice.pdf", SourceRef: "att-1", Size: 1024},
			{Name: "receipt.pdf", SourceRef: "att-2", Size: 2048},
		}
		rec.MarkSuccess(items)

		assert.Equal(t, shared.RecordStatusSuccess, rec.Status)
		assert.Equal(t, 2, rec.SucceededItems)
		require.NotNil(t, rec.CompletedAt)
		assert.False(t, rec.CanRetry())
	})

	t.Run("FailedKeepsRetryEligibility", func(t *testing.T) {
		rec := NewRecord(testPair())
		rec.MarkProcessing()
		rec.MarkFailed("remote fault: attachment listing unavailable")

		assert.Equal(t, shared.RecordStatusFailed, rec.Status)
		assert.Equal(t, "remote fault: attachment listing unavailable", rec.ErrorMessage)
		require.NotNil(t, rec.CompletedAt)
		assert.True(t, rec.CanRetry())
	})
}

func TestRecord_CanRetry_BudgetExhausted(t *testing.T) {
	rec := NewRecord(testPair())

	for i := 0; i < rec.MaxAttempts; i++ {
		require.True(t, rec.CanRetry(), "attempt %d should be allowed", i+1)
		rec.MarkProcessing()
		rec.MarkFailed("transport error")
	}

	// Budget spent: excluded from retries regardless of failed status.
	assert.Equal(t, rec.MaxAttempts, rec.AttemptCount)
	assert.False(t, rec.CanRetry())
}

func TestRecord_SetDetail(t *testing.T) {
	rec := NewRecord(testPair())
	rec.Details = nil

	rec.SetDetail(DetailDuplicates, 3)
	rec.SetDetail(DetailNoContent, 1)

	assert.Equal(t, 3, rec.Details[DetailDuplicates])
	assert.Equal(t, 1, rec.Details[DetailNoContent])
}
