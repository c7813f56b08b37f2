package domain

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is a supplier delivery event. It is created together with its
// lines and the batches they reference, and is immutable afterwards.
type Purchase struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	SupplierName  string         `json:"supplier_name" db:"supplier_name"`
	InvoiceNumber string         `json:"invoice_number" db:"invoice_number"`
	PurchaseDate  time.Time      `json:"purchase_date" db:"purchase_date"`
	Lines         []PurchaseLine `json:"lines"`
}

// PurchaseLine binds a purchase to exactly one newly created batch. The
// quantity equals the batch's initial quantity.
type PurchaseLine struct {
	ID       uuid.UUID `json:"id" db:"id"`
	BatchID  uuid.UUID `json:"batch_id" db:"batch_id"`
	Quantity int       `json:"quantity" db:"quantity"`
}
