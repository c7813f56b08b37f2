package transport

import (
	"net/http"
	"time"

	"liquorstock/internal/domain"
	"liquorstock/internal/middleware"
	"liquorstock/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductRequest represents a catalog create or update payload.
type ProductRequest struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	VolumeML int     `json:"volume_ml" validate:"gte=0"`
	Unit     string  `json:"unit"`
	Barcode  *string `json:"barcode"`
	MinStock int     `json:"min_stock" validate:"gte=0"`
}

// ProductResponse represents a catalog entry.
type ProductResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand"`
	VolumeML  int       `json:"volume_ml"`
	Unit      string    `json:"unit"`
	Barcode   *string   `json:"barcode,omitempty"`
	MinStock  int       `json:"min_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the product routes.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.With(middleware.RequireAdmin(h.logger)).Delete("/{id}", h.DeleteProduct)
	})
}

// ListProducts returns the full catalog.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	response := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		response = append(response, toProductResponse(product))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// CreateProduct adds a catalog entry.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), toProductInput(req))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// GetProduct retrieves one product by id.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// UpdateProduct replaces a product's catalog fields.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req ProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Update(r.Context(), id, toProductInput(req))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// DeleteProduct removes a product from the catalog.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func toProductInput(req ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:     req.Name,
		Category: req.Category,
		Brand:    req.Brand,
		VolumeML: req.VolumeML,
		Unit:     req.Unit,
		Barcode:  req.Barcode,
		MinStock: req.MinStock,
	}
}

func toProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Brand:     product.Brand,
		VolumeML:  product.VolumeML,
		Unit:      product.Unit,
		Barcode:   product.Barcode,
		MinStock:  product.MinStock,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}
