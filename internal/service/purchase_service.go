package service

import (
	"context"
	"fmt"
	"time"

	"liquorstock/internal/domain"
	"liquorstock/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseLineInput is one requested line of a supplier delivery. Each
// line becomes exactly one new batch.
type PurchaseLineInput struct {
	ProductID     uuid.UUID
	Quantity      int
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	BatchCode     string
	ExpiryDate    *string
	Location      string
}

// PurchaseInput is a supplier delivery to ingest.
type PurchaseInput struct {
	SupplierName  string
	InvoiceNumber string
	PurchaseDate  *time.Time
	Lines         []PurchaseLineInput
}

// PurchaseResult reflects the persisted state after ingestion, including
// the materialized batches and any defaulted purchase date.
type PurchaseResult struct {
	Purchase domain.Purchase
	Batches  []domain.Batch
}

// PurchaseService turns a purchase request into one new batch per line
// plus a purchase record linking them, committed as a single unit.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
}

type purchaseService struct {
	tx           repository.TxManager
	productRepo  repository.ProductRepository
	batchRepo    repository.BatchRepository
	purchaseRepo repository.PurchaseRepository
	now          func() time.Time
}

// NewPurchaseService creates a new instance of PurchaseService.
func NewPurchaseService(
	tx repository.TxManager,
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	purchaseRepo repository.PurchaseRepository,
) PurchaseService {
	return &purchaseService{
		tx:           tx,
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		purchaseRepo: purchaseRepo,
		now:          time.Now,
	}
}

// CreatePurchase validates the request, resolves every referenced product,
// creates the batches and the purchase record, and commits them together.
// Any failure rolls back the whole ingestion.
func (s *purchaseService) CreatePurchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	if err := validatePurchaseInput(input); err != nil {
		return nil, err
	}

	purchaseDate := s.now().Truncate(24 * time.Hour)
	if input.PurchaseDate != nil {
		purchaseDate = *input.PurchaseDate
	}

	purchase := &domain.Purchase{
		ID:            uuid.New(),
		SupplierName:  input.SupplierName,
		InvoiceNumber: input.InvoiceNumber,
		PurchaseDate:  purchaseDate,
	}

	batches := make([]domain.Batch, 0, len(input.Lines))

	err := s.tx.WithinTx(ctx, func(ctx context.Context, q repository.Querier) error {
		for _, line := range input.Lines {
			product, err := s.productRepo.FindByID(ctx, q, line.ProductID)
			if err != nil {
				return err
			}

			batch := &domain.Batch{
				ID:              uuid.New(),
				ProductID:       product.ID,
				BatchCode:       line.BatchCode,
				ExpiryDate:      line.ExpiryDate,
				PurchasePrice:   line.PurchasePrice,
				SellingPrice:    line.SellingPrice,
				CurrentQuantity: line.Quantity,
				Location:        line.Location,
				CreatedAt:       s.now(),
			}
			if err := s.batchRepo.Create(ctx, q, batch); err != nil {
				return err
			}

			purchase.Lines = append(purchase.Lines, domain.PurchaseLine{
				ID:       uuid.New(),
				BatchID:  batch.ID,
				Quantity: line.Quantity,
			})
			batches = append(batches, *batch)
		}

		return s.purchaseRepo.Create(ctx, q, purchase)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	return &PurchaseResult{Purchase: *purchase, Batches: batches}, nil
}

func validatePurchaseInput(input PurchaseInput) error {
	if len(input.Lines) == 0 {
		return validationErrorf("at least one line item is required")
	}

	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return validationErrorf("line %d: product_id is required", i)
		}
		if line.Quantity < 1 {
			return validationErrorf("line %d: quantity must be at least 1", i)
		}
		if line.PurchasePrice.IsNegative() {
			return validationErrorf("line %d: purchase_price cannot be negative", i)
		}
		if line.SellingPrice.IsNegative() {
			return validationErrorf("line %d: selling_price cannot be negative", i)
		}
	}

	return nil
}
