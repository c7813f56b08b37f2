package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a checkout event. TotalAmount is always derived from the lines,
// never supplied by a caller.
type Sale struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	SaleDate    time.Time       `json:"sale_date" db:"sale_date"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Lines       []SaleLine      `json:"lines"`
}

// SaleLine records units taken from one batch at the unit price actually
// charged. A single requested product may span several lines when the
// allocation splits across batches.
type SaleLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	BatchID   uuid.UUID       `json:"batch_id" db:"batch_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Subtotal is the line's contribution to the sale total.
func (l SaleLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
