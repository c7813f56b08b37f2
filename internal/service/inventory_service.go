package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"liquorstock/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expiry statuses reported by the expiring-batches view.
const (
	StatusExpired      = "expired"
	StatusExpiringSoon = "expiring_soon"
)

// DefaultExpiryHorizonDays is used when the caller passes no horizon or a
// non-positive one.
const DefaultExpiryHorizonDays = 30

// ProductInventory is one row of the current-inventory and low-stock views.
type ProductInventory struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	VolumeML      int             `json:"volume_ml"`
	Unit          string          `json:"unit"`
	MinStock      int             `json:"min_stock"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	IsLowStock    bool            `json:"is_low_stock"`
}

// ExpiringBatchView is one row of the expiring-batches report.
type ExpiringBatchView struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductBrand    string          `json:"product_brand"`
	BatchCode       string          `json:"batch_code"`
	ExpiryDate      string          `json:"expiry_date"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	CurrentQuantity int             `json:"current_quantity"`
	Location        string          `json:"location"`
	CreatedAt       time.Time       `json:"created_at"`
	Status          string          `json:"status"`
}

// InventoryService provides the read-only reporting views.
type InventoryService interface {
	CurrentInventory(ctx context.Context) ([]ProductInventory, error)
	LowStock(ctx context.Context) ([]ProductInventory, error)
	ExpiringBatches(ctx context.Context, days int) ([]ExpiringBatchView, error)
}

type inventoryService struct {
	reportRepo repository.ReportRepository
	now        func() time.Time
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(reportRepo repository.ReportRepository) InventoryService {
	return &inventoryService{
		reportRepo: reportRepo,
		now:        time.Now,
	}
}

// CurrentInventory returns per-product remaining quantity and inventory
// value, flagging products whose total sits below their minimum stock.
func (s *inventoryService) CurrentInventory(ctx context.Context) ([]ProductInventory, error) {
	stocks, err := s.reportRepo.ProductStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current inventory: %w", err)
	}

	inventory := make([]ProductInventory, 0, len(stocks))
	for _, stock := range stocks {
		inventory = append(inventory, toProductInventory(stock))
	}

	return inventory, nil
}

// LowStock returns only products below their minimum stock, lowest
// remaining quantity first.
func (s *inventoryService) LowStock(ctx context.Context) ([]ProductInventory, error) {
	stocks, err := s.reportRepo.ProductStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock: %w", err)
	}

	low := []ProductInventory{}
	for _, stock := range stocks {
		if stock.TotalQuantity < stock.Product.MinStock {
			low = append(low, toProductInventory(stock))
		}
	}

	sort.SliceStable(low, func(i, j int) bool {
		return low[i].TotalQuantity < low[j].TotalQuantity
	})

	return low, nil
}

// ExpiringBatches returns batches with remaining quantity whose expiry
// falls on or before today plus the horizon, earliest expiry first.
// Batches expiring before today are "expired", the rest "expiring_soon".
// Batches without a parseable expiry date are excluded.
func (s *inventoryService) ExpiringBatches(ctx context.Context, days int) ([]ExpiringBatchView, error) {
	if days <= 0 {
		days = DefaultExpiryHorizonDays
	}

	candidates, err := s.reportRepo.BatchesWithExpiry(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load expiring batches: %w", err)
	}

	today := s.now().Truncate(24 * time.Hour)
	cutoff := today.AddDate(0, 0, days)

	type parsed struct {
		row    repository.ExpiringBatch
		expiry time.Time
	}

	within := []parsed{}
	for _, row := range candidates {
		expiry, ok := row.Batch.ExpiryDay()
		if !ok {
			continue
		}
		if expiry.After(cutoff) {
			continue
		}
		within = append(within, parsed{row: row, expiry: expiry})
	}

	sort.SliceStable(within, func(i, j int) bool {
		return within[i].expiry.Before(within[j].expiry)
	})

	views := make([]ExpiringBatchView, 0, len(within))
	for _, p := range within {
		status := StatusExpiringSoon
		if p.expiry.Before(today) {
			status = StatusExpired
		}

		views = append(views, ExpiringBatchView{
			ID:              p.row.Batch.ID,
			ProductID:       p.row.Batch.ProductID,
			ProductName:     p.row.ProductName,
			ProductBrand:    p.row.ProductBrand,
			BatchCode:       p.row.Batch.BatchCode,
			ExpiryDate:      *p.row.Batch.ExpiryDate,
			PurchasePrice:   p.row.Batch.PurchasePrice,
			SellingPrice:    p.row.Batch.SellingPrice,
			CurrentQuantity: p.row.Batch.CurrentQuantity,
			Location:        p.row.Batch.Location,
			CreatedAt:       p.row.Batch.CreatedAt,
			Status:          status,
		})
	}

	return views, nil
}

func toProductInventory(stock repository.ProductStock) ProductInventory {
	return ProductInventory{
		ProductID:     stock.Product.ID,
		Name:          stock.Product.Name,
		Brand:         stock.Product.Brand,
		Category:      stock.Product.Category,
		VolumeML:      stock.Product.VolumeML,
		Unit:          stock.Product.Unit,
		MinStock:      stock.Product.MinStock,
		TotalQuantity: stock.TotalQuantity,
		TotalValue:    stock.TotalValue,
		IsLowStock:    stock.TotalQuantity < stock.Product.MinStock,
	}
}
