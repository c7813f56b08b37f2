package transport

import (
	"net/http"
	"strconv"

	"liquorstock/internal/middleware"
	"liquorstock/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// InventoryHandler exposes the read-only stock reports. defaultDays is the
// configured expiry horizon used when the caller does not pass one.
type InventoryHandler struct {
	inventoryService service.InventoryService
	defaultDays      int
	logger           *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(inventoryService service.InventoryService, defaultDays int, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		defaultDays:      defaultDays,
		logger:           logger,
	}
}

// RegisterRoutes registers the inventory routes.
func (h *InventoryHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/inventory", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/current", h.CurrentInventory)
		r.Get("/low-stock", h.LowStock)
		r.Get("/expiring", h.ExpiringBatches)
	})
}

// CurrentInventory returns per-product remaining stock and value.
func (h *InventoryHandler) CurrentInventory(w http.ResponseWriter, r *http.Request) {
	inventory, err := h.inventoryService.CurrentInventory(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, inventory)
}

// LowStock returns products below their minimum stock level.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	low, err := h.inventoryService.LowStock(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, low)
}

// ExpiringBatches returns batches expiring within the requested horizon.
// The horizon comes from the "days" query parameter, falling back to the
// configured default when absent or non-positive.
func (h *InventoryHandler) ExpiringBatches(w http.ResponseWriter, r *http.Request) {
	days := h.defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = parsed
	}

	batches, err := h.inventoryService.ExpiringBatches(r.Context(), days)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, batches)
}
