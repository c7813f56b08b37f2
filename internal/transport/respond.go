package transport

import (
	"errors"
	"net/http"

	"liquorstock/internal/middleware"
	"liquorstock/internal/repository"
	"liquorstock/internal/service"

	"go.uber.org/zap"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, missing references 404, insufficient stock 409,
// everything else 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		middleware.RespondWithError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		middleware.RespondWithError(w, http.StatusConflict, stockErr.Error())
		return
	}

	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrBatchNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "batch not found")
	case errors.Is(err, repository.ErrBarcodeTaken):
		middleware.RespondWithError(w, http.StatusConflict, "barcode already in use")
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
