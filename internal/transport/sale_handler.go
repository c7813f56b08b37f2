package transport

import (
	"net/http"
	"time"

	"liquorstock/internal/middleware"
	"liquorstock/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleItemRequest is one requested product of a checkout. unit_price is
// optional; when absent each allocated batch is priced at its own selling
// price.
type SaleItemRequest struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity" validate:"gte=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest represents a checkout payload.
type CreateSaleRequest struct {
	SaleDate *time.Time        `json:"sale_date"`
	Items    []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleLineResponse is one batch draw of a committed sale.
type SaleLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	BatchID   uuid.UUID       `json:"batch_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse reflects the committed sale with its allocation breakdown.
type SaleResponse struct {
	ID          uuid.UUID          `json:"id"`
	SaleDate    time.Time          `json:"sale_date"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Lines       []SaleLineResponse `json:"lines"`
}

// SaleHandler handles HTTP requests for checkouts.
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// RegisterRoutes registers the sale routes.
func (h *SaleHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreateSale)
	})
}

// CreateSale handles a checkout request.
func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Sale validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.SaleInput{SaleDate: req.SaleDate}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.SaleItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	sale, err := h.saleService.CreateSale(r.Context(), input)
	if err != nil {
		h.logger.Debug("Sale rejected", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	response := SaleResponse{
		ID:          sale.ID,
		SaleDate:    sale.SaleDate,
		TotalAmount: sale.TotalAmount,
		Lines:       make([]SaleLineResponse, 0, len(sale.Lines)),
	}
	for _, line := range sale.Lines {
		response.Lines = append(response.Lines, SaleLineResponse{
			ID:        line.ID,
			BatchID:   line.BatchID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal(),
		})
	}

	h.logger.Info("Sale committed",
		zap.String("sale_id", sale.ID.String()),
		zap.String("total_amount", sale.TotalAmount.String()),
		zap.Int("lines", len(sale.Lines)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, response)
}
