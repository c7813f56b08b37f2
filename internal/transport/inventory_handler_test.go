package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"liquorstock/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stubInventoryService struct {
	inventory []service.ProductInventory
	expiring  []service.ExpiringBatchView

	gotDays int
}

func (s *stubInventoryService) CurrentInventory(ctx context.Context) ([]service.ProductInventory, error) {
	return s.inventory, nil
}

func (s *stubInventoryService) LowStock(ctx context.Context) ([]service.ProductInventory, error) {
	return s.inventory, nil
}

func (s *stubInventoryService) ExpiringBatches(ctx context.Context, days int) ([]service.ExpiringBatchView, error) {
	s.gotDays = days
	return s.expiring, nil
}

func TestInventoryHandler_CurrentInventory(t *testing.T) {
	stub := &stubInventoryService{inventory: []service.ProductInventory{
		{
			ProductID:     uuid.New(),
			Name:          "Pale Ale 330ml",
			TotalQuantity: 18,
			TotalValue:    decimal.RequireFromString("45.00"),
			IsLowStock:    false,
		},
	}}
	handler := NewInventoryHandler(stub, 30, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/current", nil)
	w := httptest.NewRecorder()
	handler.CurrentInventory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var rows []service.ProductInventory
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Pale Ale 330ml" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestInventoryHandler_ExpiringParsesDays(t *testing.T) {
	stub := &stubInventoryService{}
	handler := NewInventoryHandler(stub, 30, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/expiring?days=7", nil)
	w := httptest.NewRecorder()
	handler.ExpiringBatches(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.gotDays != 7 {
		t.Errorf("expected days=7 passed through, got %d", stub.gotDays)
	}
}

func TestInventoryHandler_ExpiringDefaultsWhenAbsent(t *testing.T) {
	stub := &stubInventoryService{}
	handler := NewInventoryHandler(stub, 30, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/expiring", nil)
	w := httptest.NewRecorder()
	handler.ExpiringBatches(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.gotDays != 30 {
		t.Errorf("expected configured default 30 passed through, got %d", stub.gotDays)
	}
}

func TestInventoryHandler_ExpiringRejectsNonNumericDays(t *testing.T) {
	stub := &stubInventoryService{}
	handler := NewInventoryHandler(stub, 30, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/expiring?days=soon", nil)
	w := httptest.NewRecorder()
	handler.ExpiringBatches(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
