package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"liquorstock/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBatchNotFound = errors.New("batch not found")

	// ErrBatchConflict means a conditional decrement found less quantity
	// than it needed. The caller re-evaluates the next batch in order
	// instead of overselling.
	ErrBatchConflict = errors.New("batch quantity changed concurrently")
)

// BatchRepository defines the interface for batch data access. All write
// paths take a Querier so they participate in the caller's transaction.
type BatchRepository interface {
	Create(ctx context.Context, q Querier, batch *domain.Batch) error
	FindByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Batch, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Batch, error)
	LockForAllocation(ctx context.Context, q Querier, productID uuid.UUID) ([]*domain.Batch, error)
	Decrement(ctx context.Context, q Querier, id uuid.UUID, quantity int) error
}

type batchRepository struct {
	db *sql.DB
}

// NewBatchRepository creates a new instance of BatchRepository.
func NewBatchRepository(db *sql.DB) BatchRepository {
	return &batchRepository{db: db}
}

const batchColumns = `id, product_id, batch_code, expiry_date, purchase_price, selling_price, current_quantity, location, created_at`

// Create inserts a new batch inside the caller's transaction.
func (r *batchRepository) Create(ctx context.Context, q Querier, batch *domain.Batch) error {
	if q == nil {
		q = r.db
	}

	query := `
		INSERT INTO batches (id, product_id, batch_code, expiry_date, purchase_price, selling_price, current_quantity, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.ExecContext(
		ctx,
		query,
		batch.ID,
		batch.ProductID,
		batch.BatchCode,
		batch.ExpiryDate,
		batch.PurchasePrice,
		batch.SellingPrice,
		batch.CurrentQuantity,
		batch.Location,
		batch.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}

	return nil
}

// FindByID retrieves a single batch.
func (r *batchRepository) FindByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Batch, error) {
	if q == nil {
		q = r.db
	}

	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`

	batch := &domain.Batch{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&batch.ID,
		&batch.ProductID,
		&batch.BatchCode,
		&batch.ExpiryDate,
		&batch.PurchasePrice,
		&batch.SellingPrice,
		&batch.CurrentQuantity,
		&batch.Location,
		&batch.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to find batch by ID: %w", err)
	}

	return batch, nil
}

// ListByProduct retrieves all batches of a product, oldest first.
func (r *batchRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE product_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

// LockForAllocation loads every batch of the product that still has
// quantity and takes a row lock on each, so a concurrent sale for the same
// product blocks until this transaction commits or rolls back. The rows
// come back in storage order; the allocation comparator in the service
// establishes the FIFO order.
func (r *batchRepository) LockForAllocation(ctx context.Context, q Querier, productID uuid.UUID) ([]*domain.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE product_id = $1 AND current_quantity > 0
		ORDER BY created_at ASC, id ASC
		FOR UPDATE
	`

	rows, err := q.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock batches for allocation: %w", err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

// Decrement takes quantity units out of a batch. The WHERE clause re-checks
// the available quantity at write time; if the row no longer holds enough,
// nothing is written and ErrBatchConflict is returned.
func (r *batchRepository) Decrement(ctx context.Context, q Querier, id uuid.UUID, quantity int) error {
	query := `
		UPDATE batches
		SET current_quantity = current_quantity - $2
		WHERE id = $1 AND current_quantity >= $2
	`

	result, err := q.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrBatchConflict
	}

	return nil
}

func scanBatches(rows *sql.Rows) ([]*domain.Batch, error) {
	batches := []*domain.Batch{}
	for rows.Next() {
		batch := &domain.Batch{}
		err := rows.Scan(
			&batch.ID,
			&batch.ProductID,
			&batch.BatchCode,
			&batch.ExpiryDate,
			&batch.PurchasePrice,
			&batch.SellingPrice,
			&batch.CurrentQuantity,
			&batch.Location,
			&batch.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batches: %w", err)
	}

	return batches, nil
}
