package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"liquorstock/internal/domain"

	"github.com/google/uuid"
)

var ErrPurchaseNotFound = errors.New("purchase not found")

// PurchaseRepository defines the interface for purchase data access.
// Purchases are written once, together with their lines, and never updated.
type PurchaseRepository interface {
	Create(ctx context.Context, q Querier, purchase *domain.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
}

type purchaseRepository struct {
	db *sql.DB
}

// NewPurchaseRepository creates a new instance of PurchaseRepository.
func NewPurchaseRepository(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// Create inserts the purchase and all of its lines inside the caller's
// transaction.
func (r *purchaseRepository) Create(ctx context.Context, q Querier, purchase *domain.Purchase) error {
	if q == nil {
		q = r.db
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO purchases (id, supplier_name, invoice_number, purchase_date)
		VALUES ($1, $2, $3, $4)
	`, purchase.ID, purchase.SupplierName, purchase.InvoiceNumber, purchase.PurchaseDate)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	for i, line := range purchase.Lines {
		_, err := q.ExecContext(ctx, `
			INSERT INTO purchase_lines (id, purchase_id, batch_id, line_no, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, line.ID, purchase.ID, line.BatchID, i, line.Quantity)
		if err != nil {
			return fmt.Errorf("failed to create purchase line: %w", err)
		}
	}

	return nil
}

// FindByID retrieves a purchase with its lines.
func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	purchase := &domain.Purchase{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, supplier_name, invoice_number, purchase_date
		FROM purchases
		WHERE id = $1
	`, id).Scan(&purchase.ID, &purchase.SupplierName, &purchase.InvoiceNumber, &purchase.PurchaseDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to find purchase by ID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, quantity
		FROM purchase_lines
		WHERE purchase_id = $1
		ORDER BY line_no ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.PurchaseLine
		if err := rows.Scan(&line.ID, &line.BatchID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan purchase line: %w", err)
		}
		purchase.Lines = append(purchase.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase lines: %w", err)
	}

	return purchase, nil
}
