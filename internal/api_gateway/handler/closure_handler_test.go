package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/procure-finance-sync/internal/domain/closure"
	"github.com/procure-finance-sync/internal/domain/shared"
	"github.com/procure-finance-sync/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockClosureService struct {
	mock.Mock
}

func (m *MockClosureService) SubmitClosure(ctx context.Context, orderNumber, orderItem, invoiceNumber string, invoiceID int64, async bool) (*closure.Record, error) {
	args := m.Called(ctx, orderNumber, orderItem, invoiceNumber, invoiceID, async)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closure.Record), args.Error(1)
}

func (m *MockClosureService) RetryFailed(ctx context.Context, limit int) (*engine.ProcessReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ProcessReport), args.Error(1)
}

func (m *MockClosureService) GetClosureByID(ctx context.Context, id uuid.UUID) (*closure.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closure.Record), args.Error(1)
}

func (m *MockClosureService) ListClosures(ctx context.Context, status shared.RecordStatus, page, perPage int) ([]*closure.Record, error) {
	args := m.Called(ctx, status, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*closure.Record), args.Error(1)
}

func TestClosureHandler_Create(t *testing.T) {
	t.Run("AsyncRespondsAccepted", func(t *testing.T) {
		mockService := new(MockClosureService)
		handler := NewClosureHandler(testLogger(), mockService)

		record := closure.NewRecord("PO-441", "", "NF-9001", 77)
		mockService.On("SubmitClosure", mock.Anything, "PO-441", "", "NF-9001", int64(77), true).
			Return(record, nil)

		router := setupTestRouter()
		router.POST("/closures", handler.Create)

		body, _ := json.Marshal(CreateClosureRequest{
			OrderNumber:   "PO-441",
			InvoiceNumber: "NF-9001",
			InvoiceID:     77,
			Async:         true,
		})
		req, _ := http.NewRequest(http.MethodPost, "/closures", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)

		resp := decodeResponse(t, rr.Body.Bytes())
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, string(shared.RecordStatusPending), data["status"])
		mockService.AssertExpectations(t)
	})

	t.Run("SyncReturnsOutcomeOnRecord", func(t *testing.T) {
		mockService := new(MockClosureService)
		handler := NewClosureHandler(testLogger(), mockService)

		record := closure.NewRecord("PO-441", "", "NF-9001", 77)
		record.MarkProcessing()
		record.MarkFailed("remote fault on UpdatePurchaseOrder: order locked")
		mockService.On("SubmitClosure", mock.Anything, "PO-441", "", "NF-9001", int64(77), false).
			Return(record, nil)

		router := setupTestRouter()
		router.POST("/closures", handler.Create)

		body, _ := json.Marshal(CreateClosureRequest{
			OrderNumber:   "PO-441",
			InvoiceNumber: "NF-9001",
			InvoiceID:     77,
		})
		req, _ := http.NewRequest(http.MethodPost, "/closures", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		// Business failures live on the record; the request itself succeeded.
		assert.Equal(t, http.StatusOK, rr.Code)

		resp := decodeResponse(t, rr.Body.Bytes())
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, string(shared.RecordStatusFailed), data["status"])
		assert.Contains(t, data["error_message"], "order locked")
		mockService.AssertExpectations(t)
	})

	t.Run("MissingOrderNumber", func(t *testing.T) {
		mockService := new(MockClosureService)
		handler := NewClosureHandler(testLogger(), mockService)

		router := setupTestRouter()
		router.POST("/closures", handler.Create)

		req, _ := http.NewRequest(http.MethodPost, "/closures", bytes.NewBufferString(`{"invoice_number":"NF-9001","invoice_id":77}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "SubmitClosure")
	})
}

func TestClosureHandler_RetryFailed(t *testing.T) {
	mockService := new(MockClosureService)
	handler := NewClosureHandler(testLogger(), mockService)

	mockService.On("RetryFailed", mock.Anything, 50).
		Return(&engine.ProcessReport{Examined: 1, Executed: 1, Succeeded: 1}, nil)

	router := setupTestRouter()
	router.POST("/closures/retry-failed", handler.RetryFailed)

	req, _ := http.NewRequest(http.MethodPost, "/closures/retry-failed", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestClosureHandler_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockService := new(MockClosureService)
		handler := NewClosureHandler(testLogger(), mockService)

		record := closure.NewRecord("PO-441", "10", "NF-9001", 77)
		mockService.On("GetClosureByID", mock.Anything, record.ID).Return(record, nil)

		router := setupTestRouter()
		router.GET("/closures/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/closures/"+record.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		resp := decodeResponse(t, rr.Body.Bytes())
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "PO-441", data["order_number"])
		assert.Equal(t, "10", data["order_item"])
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockClosureService)
		handler := NewClosureHandler(testLogger(), mockService)

		id := uuid.New()
		mockService.On("GetClosureByID", mock.Anything, id).Return(nil, nil)

		router := setupTestRouter()
		router.GET("/closures/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/closures/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
