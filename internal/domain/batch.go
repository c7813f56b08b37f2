package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpiryLayout is the calendar-date form expiry dates are stored in.
const ExpiryLayout = "2006-01-02"

// Batch is one purchase lot of one product. CurrentQuantity only decreases
// through sale allocation and is set once at ingestion; it must never go
// negative.
type Batch struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ProductID       uuid.UUID       `json:"product_id" db:"product_id"`
	BatchCode       string          `json:"batch_code" db:"batch_code"`
	ExpiryDate      *string         `json:"expiry_date,omitempty" db:"expiry_date"`
	PurchasePrice   decimal.Decimal `json:"purchase_price" db:"purchase_price"`
	SellingPrice    decimal.Decimal `json:"selling_price" db:"selling_price"`
	CurrentQuantity int             `json:"current_quantity" db:"current_quantity"`
	Location        string          `json:"location" db:"location"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// ExpiryDay returns the parsed expiry date. Absent or unparseable values
// report ok=false and are treated as "no expiry" by allocation ordering.
func (b *Batch) ExpiryDay() (time.Time, bool) {
	if b.ExpiryDate == nil || *b.ExpiryDate == "" {
		return time.Time{}, false
	}
	day, err := time.Parse(ExpiryLayout, *b.ExpiryDate)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// Less orders batches for allocation: batches with an expiry date come
// before shelf-stable ones, earlier expiry first, then older stock, with
// the id as a final tie-break so the order is total.
func (b *Batch) Less(other *Batch) bool {
	bDay, bOK := b.ExpiryDay()
	oDay, oOK := other.ExpiryDay()

	if bOK != oOK {
		return bOK
	}
	if bOK && !bDay.Equal(oDay) {
		return bDay.Before(oDay)
	}
	if !b.CreatedAt.Equal(other.CreatedAt) {
		return b.CreatedAt.Before(other.CreatedAt)
	}
	return b.ID.String() < other.ID.String()
}
