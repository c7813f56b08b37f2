package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"liquorstock/internal/domain"
	"liquorstock/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItemInput is one requested product of a checkout. UnitPrice, when
// set, overrides the selling price of every batch the item draws from.
type SaleItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// SaleInput is a checkout to process.
type SaleInput struct {
	SaleDate *time.Time
	Items    []SaleItemInput
}

// SaleService is the allocation engine: it assigns requested quantities to
// specific batches in FIFO-by-expiry order and prices the resulting sale.
type SaleService interface {
	CreateSale(ctx context.Context, input SaleInput) (*domain.Sale, error)
}

type saleService struct {
	tx          repository.TxManager
	productRepo repository.ProductRepository
	batchRepo   repository.BatchRepository
	saleRepo    repository.SaleRepository
	now         func() time.Time
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(
	tx repository.TxManager,
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	saleRepo repository.SaleRepository,
) SaleService {
	return &saleService{
		tx:          tx,
		productRepo: productRepo,
		batchRepo:   batchRepo,
		saleRepo:    saleRepo,
		now:         time.Now,
	}
}

// CreateSale allocates every requested item against the product's batches
// and commits the sale, its lines and the batch decrements as one unit.
//
// Batches are consumed soonest-expiring first, then oldest first;
// shelf-stable batches (no parseable expiry) come last. The order is total
// (ties fall through to creation time, then batch id), so the same
// snapshot and request always produce the same allocation. Eligible
// batches are row-locked before the walk, and every decrement re-checks
// the quantity at write time; a batch that comes up short is skipped in
// favor of the next one rather than oversold. If stock runs out for any
// item the whole sale rolls back, including items already allocated.
func (s *saleService) CreateSale(ctx context.Context, input SaleInput) (*domain.Sale, error) {
	if err := validateSaleInput(input); err != nil {
		return nil, err
	}

	saleDate := s.now()
	if input.SaleDate != nil {
		saleDate = *input.SaleDate
	}

	sale := &domain.Sale{
		ID:          uuid.New(),
		SaleDate:    saleDate,
		TotalAmount: decimal.Zero,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, q repository.Querier) error {
		total := decimal.Zero

		for _, item := range input.Items {
			if _, err := s.productRepo.FindByID(ctx, q, item.ProductID); err != nil {
				return err
			}

			lines, subtotal, err := s.allocateItem(ctx, q, item)
			if err != nil {
				return err
			}

			sale.Lines = append(sale.Lines, lines...)
			total = total.Add(subtotal)
		}

		sale.TotalAmount = total
		return s.saleRepo.Create(ctx, q, sale)
	})
	if err != nil {
		sale.Lines = nil
		return nil, err
	}

	return sale, nil
}

// allocateItem walks the product's batches in allocation order, taking
// min(remaining, available) from each and emitting one sale line per batch
// touched.
func (s *saleService) allocateItem(ctx context.Context, q repository.Querier, item SaleItemInput) ([]domain.SaleLine, decimal.Decimal, error) {
	batches, err := s.batchRepo.LockForAllocation(ctx, q, item.ProductID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	sort.Slice(batches, func(i, j int) bool {
		return batches[i].Less(batches[j])
	})

	var lines []domain.SaleLine
	subtotal := decimal.Zero
	remaining := item.Quantity

	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		if batch.CurrentQuantity <= 0 {
			continue
		}

		take := remaining
		if take > batch.CurrentQuantity {
			take = batch.CurrentQuantity
		}

		if err := s.batchRepo.Decrement(ctx, q, batch.ID, take); err != nil {
			if errors.Is(err, repository.ErrBatchConflict) {
				// The row held less than our snapshot said; move on to
				// the next batch in order instead of overselling.
				continue
			}
			return nil, decimal.Zero, fmt.Errorf("failed to allocate from batch %s: %w", batch.ID, err)
		}

		unitPrice := batch.SellingPrice
		if item.UnitPrice != nil {
			unitPrice = *item.UnitPrice
		}

		lines = append(lines, domain.SaleLine{
			ID:        uuid.New(),
			BatchID:   batch.ID,
			Quantity:  take,
			UnitPrice: unitPrice,
		})
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(take))))
		remaining -= take
	}

	if remaining > 0 {
		return nil, decimal.Zero, &InsufficientStockError{ProductID: item.ProductID}
	}

	return lines, subtotal, nil
}

func validateSaleInput(input SaleInput) error {
	if len(input.Items) == 0 {
		return validationErrorf("at least one sale item is required")
	}

	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return validationErrorf("item %d: product_id is required", i)
		}
		if item.Quantity < 1 {
			return validationErrorf("item %d: quantity must be at least 1", i)
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return validationErrorf("item %d: unit_price cannot be negative", i)
		}
	}

	return nil
}
