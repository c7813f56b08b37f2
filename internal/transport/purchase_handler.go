package transport

import (
	"net/http"
	"time"

	"liquorstock/internal/domain"
	"liquorstock/internal/middleware"
	"liquorstock/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseLineRequest is one line of a supplier delivery.
type PurchaseLineRequest struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	BatchCode     string          `json:"batch_code"`
	ExpiryDate    *string         `json:"expiry_date"`
	Location      string          `json:"location"`
}

// CreatePurchaseRequest represents the purchase ingestion payload.
type CreatePurchaseRequest struct {
	SupplierName  string                `json:"supplier_name"`
	InvoiceNumber string                `json:"invoice_number"`
	PurchaseDate  *string               `json:"purchase_date"` // YYYY-MM-DD
	Lines         []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// BatchInfo mirrors the persisted state of one batch created by ingestion.
type BatchInfo struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	BatchCode       string          `json:"batch_code"`
	ExpiryDate      *string         `json:"expiry_date,omitempty"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	CurrentQuantity int             `json:"current_quantity"`
	Location        string          `json:"location"`
}

// PurchaseResponse reflects the persisted purchase, including defaulted
// fields.
type PurchaseResponse struct {
	ID            uuid.UUID   `json:"id"`
	SupplierName  string      `json:"supplier_name"`
	InvoiceNumber string      `json:"invoice_number"`
	PurchaseDate  string      `json:"purchase_date"`
	Batches       []BatchInfo `json:"batches"`
}

// PurchaseHandler handles HTTP requests for purchase ingestion.
type PurchaseHandler struct {
	purchaseService service.PurchaseService
	logger          *zap.Logger
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(purchaseService service.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// RegisterRoutes registers the purchase routes.
func (h *PurchaseHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/purchases", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreatePurchase)
	})
}

// CreatePurchase handles purchase ingestion.
func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Purchase validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.PurchaseInput{
		SupplierName:  req.SupplierName,
		InvoiceNumber: req.InvoiceNumber,
	}

	if req.PurchaseDate != nil {
		date, err := time.Parse(domain.ExpiryLayout, *req.PurchaseDate)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "purchase_date must be YYYY-MM-DD")
			return
		}
		input.PurchaseDate = &date
	}

	for _, line := range req.Lines {
		input.Lines = append(input.Lines, service.PurchaseLineInput{
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
			PurchasePrice: line.PurchasePrice,
			SellingPrice:  line.SellingPrice,
			BatchCode:     line.BatchCode,
			ExpiryDate:    line.ExpiryDate,
			Location:      line.Location,
		})
	}

	result, err := h.purchaseService.CreatePurchase(r.Context(), input)
	if err != nil {
		h.logger.Debug("Purchase ingestion failed", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	response := PurchaseResponse{
		ID:            result.Purchase.ID,
		SupplierName:  result.Purchase.SupplierName,
		InvoiceNumber: result.Purchase.InvoiceNumber,
		PurchaseDate:  result.Purchase.PurchaseDate.Format(domain.ExpiryLayout),
		Batches:       make([]BatchInfo, 0, len(result.Batches)),
	}
	for _, batch := range result.Batches {
		response.Batches = append(response.Batches, BatchInfo{
			ID:              batch.ID,
			ProductID:       batch.ProductID,
			BatchCode:       batch.BatchCode,
			ExpiryDate:      batch.ExpiryDate,
			PurchasePrice:   batch.PurchasePrice,
			SellingPrice:    batch.SellingPrice,
			CurrentQuantity: batch.CurrentQuantity,
			Location:        batch.Location,
		})
	}

	h.logger.Info("Purchase created",
		zap.String("purchase_id", result.Purchase.ID.String()),
		zap.Int("lines", len(result.Batches)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, response)
}
