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
	ErrProductNotFound = errors.New("product not found")
	ErrBarcodeTaken    = errors.New("barcode already in use")
)

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product into the database using parameterized queries.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, category, brand, volume_ml, unit, barcode, min_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.Brand,
		product.VolumeML,
		product.Unit,
		product.Barcode,
		product.MinStock,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrBarcodeTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product in the database.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, brand = $4, volume_ml = $5,
		    unit = $6, barcode = $7, min_stock = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.Brand,
		product.VolumeML,
		product.Unit,
		product.Barcode,
		product.MinStock,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrBarcodeTaken
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product from the catalog.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID. It takes a Querier so purchase
// ingestion can resolve products inside its own transaction.
func (r *productRepository) FindByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Product, error) {
	if q == nil {
		q = r.db
	}

	query := `
		SELECT id, name, category, brand, volume_ml, unit, barcode, min_stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	product := &domain.Product{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Brand,
		&product.VolumeML,
		&product.Unit,
		&product.Barcode,
		&product.MinStock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves the full catalog ordered by name.
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, category, brand, volume_ml, unit, barcode, min_stock, created_at, updated_at
		FROM products
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Category,
			&product.Brand,
			&product.VolumeML,
			&product.Unit,
			&product.Barcode,
			&product.MinStock,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
