package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"liquorstock/internal/domain"
	"liquorstock/internal/repository"

	"github.com/google/uuid"
)

// ProductInput carries the caller-supplied catalog fields.
type ProductInput struct {
	Name     string
	Category string
	Brand    string
	VolumeML int
	Unit     string
	Barcode  *string
	MinStock int
}

// ProductService manages the product catalog.
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewProductService creates a new instance of ProductService.
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{
		productRepo: productRepo,
		now:         time.Now,
	}
}

// Create adds a catalog entry.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		Category:  input.Category,
		Brand:     input.Brand,
		VolumeML:  input.VolumeML,
		Unit:      input.Unit,
		Barcode:   normalizeBarcode(input.Barcode),
		MinStock:  input.MinStock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update replaces the catalog fields of an existing product.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Category = input.Category
	product.Brand = input.Brand
	product.VolumeML = input.VolumeML
	product.Unit = input.Unit
	product.Barcode = normalizeBarcode(input.Barcode)
	product.MinStock = input.MinStock
	product.UpdatedAt = s.now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Delete removes a product from the catalog.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetByID retrieves one product.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, nil, id)
}

// List retrieves the full catalog.
func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.List(ctx)
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return validationErrorf("product name is required")
	}
	if input.MinStock < 0 {
		return validationErrorf("min_stock cannot be negative")
	}
	return nil
}

// normalizeBarcode maps blank barcodes to absent so the unique constraint
// only applies to real values.
func normalizeBarcode(barcode *string) *string {
	if barcode == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*barcode)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
