package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"liquorstock/internal/domain"

	"github.com/google/uuid"
)

var ErrSaleNotFound = errors.New("sale not found")

// SaleRepository defines the interface for sale data access. Sales are
// written once, together with their lines and the batch decrements the
// allocation produced, and never updated.
type SaleRepository interface {
	Create(ctx context.Context, q Querier, sale *domain.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

// Create inserts the sale and all of its lines inside the caller's
// transaction.
func (r *saleRepository) Create(ctx context.Context, q Querier, sale *domain.Sale) error {
	if q == nil {
		q = r.db
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO sales (id, sale_date, total_amount)
		VALUES ($1, $2, $3)
	`, sale.ID, sale.SaleDate, sale.TotalAmount)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}

	for i, line := range sale.Lines {
		_, err := q.ExecContext(ctx, `
			INSERT INTO sale_lines (id, sale_id, batch_id, line_no, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, line.ID, sale.ID, line.BatchID, i, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to create sale line: %w", err)
		}
	}

	return nil
}

// FindByID retrieves a sale with its lines.
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale := &domain.Sale{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, sale_date, total_amount
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.SaleDate, &sale.TotalAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, quantity, unit_price
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY line_no ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.SaleLine
		if err := rows.Scan(&line.ID, &line.BatchID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan sale line: %w", err)
		}
		sale.Lines = append(sale.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale lines: %w", err)
	}

	return sale, nil
}
