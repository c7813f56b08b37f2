package service

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports malformed or missing input. It is raised before
// any write happens, so the caller can fix the request and retry.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError means a sale requested more units of a product
// than all of its batches together could supply. The whole sale is rolled
// back when it is raised.
type InsufficientStockError struct {
	ProductID uuid.UUID
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s", e.ProductID)
}
