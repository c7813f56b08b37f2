package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog entry. Stock is never stored on the product
// itself; it is derived from the quantities of its batches.
type Product struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	Brand     string    `json:"brand" db:"brand"`
	VolumeML  int       `json:"volume_ml" db:"volume_ml"`
	Unit      string    `json:"unit" db:"unit"`
	Barcode   *string   `json:"barcode,omitempty" db:"barcode"`
	MinStock  int       `json:"min_stock" db:"min_stock"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
