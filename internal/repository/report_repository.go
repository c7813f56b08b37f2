package repository

import (
	"context"
	"database/sql"
	"fmt"

	"liquorstock/internal/domain"

	"github.com/shopspring/decimal"
)

// ProductStock is one row of the per-product inventory aggregate.
type ProductStock struct {
	Product       domain.Product
	TotalQuantity int
	TotalValue    decimal.Decimal
}

// ExpiringBatch is a batch row joined with its product, used by the
// expiring-batches view.
type ExpiringBatch struct {
	Batch        domain.Batch
	ProductName  string
	ProductBrand string
}

// ReportRepository provides the read-only aggregates backing the
// reporting views. Repeated reads without intervening writes return
// identical results.
type ReportRepository interface {
	ProductStocks(ctx context.Context) ([]ProductStock, error)
	BatchesWithExpiry(ctx context.Context) ([]ExpiringBatch, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// ProductStocks aggregates remaining quantity and inventory value
// (quantity x selling price) per product, ordered by product name.
func (r *reportRepository) ProductStocks(ctx context.Context) ([]ProductStock, error) {
	query := `
		SELECT p.id, p.name, p.category, p.brand, p.volume_ml, p.unit, p.barcode, p.min_stock, p.created_at, p.updated_at,
		       COALESCE(SUM(b.current_quantity), 0),
		       COALESCE(SUM(b.current_quantity * b.selling_price), 0)
		FROM products p
		LEFT JOIN batches b ON b.product_id = p.id
		GROUP BY p.id
		ORDER BY p.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate product stocks: %w", err)
	}
	defer rows.Close()

	stocks := []ProductStock{}
	for rows.Next() {
		var s ProductStock
		err := rows.Scan(
			&s.Product.ID,
			&s.Product.Name,
			&s.Product.Category,
			&s.Product.Brand,
			&s.Product.VolumeML,
			&s.Product.Unit,
			&s.Product.Barcode,
			&s.Product.MinStock,
			&s.Product.CreatedAt,
			&s.Product.UpdatedAt,
			&s.TotalQuantity,
			&s.TotalValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product stock: %w", err)
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product stocks: %w", err)
	}

	return stocks, nil
}

// BatchesWithExpiry returns every batch that carries an expiry string and
// still has quantity. Parsing and horizon filtering happen in the service,
// where unparseable dates are excluded.
func (r *reportRepository) BatchesWithExpiry(ctx context.Context) ([]ExpiringBatch, error) {
	query := `
		SELECT b.id, b.product_id, b.batch_code, b.expiry_date, b.purchase_price, b.selling_price, b.current_quantity, b.location, b.created_at,
		       p.name, p.brand
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE b.expiry_date IS NOT NULL AND b.expiry_date <> '' AND b.current_quantity > 0
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches with expiry: %w", err)
	}
	defer rows.Close()

	batches := []ExpiringBatch{}
	for rows.Next() {
		var e ExpiringBatch
		err := rows.Scan(
			&e.Batch.ID,
			&e.Batch.ProductID,
			&e.Batch.BatchCode,
			&e.Batch.ExpiryDate,
			&e.Batch.PurchasePrice,
			&e.Batch.SellingPrice,
			&e.Batch.CurrentQuantity,
			&e.Batch.Location,
			&e.Batch.CreatedAt,
			&e.ProductName,
			&e.ProductBrand,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expiring batch: %w", err)
		}
		batches = append(batches, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expiring batches: %w", err)
	}

	return batches, nil
}
