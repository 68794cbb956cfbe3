package product

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/aims-commerce/internal/transport"
	"github.com/frahmantamala/aims-commerce/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, limit, offset int) ([]*Product, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	products, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		h.Logger.Error("ListProducts: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"products": ToResponseSlice(products),
		"limit":    limit,
		"offset":   offset,
	})
}

// GetProduct handles GET /api/v1/products/{productID}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productIDStr := chi.URLParam(r, "productID")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("GetProduct: invalid product ID", "id", productIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	p, err := h.Service.GetByID(r.Context(), productID)
	if err != nil {
		h.Logger.Error("GetProduct: service error", "error", err, "product_id", productID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(p))
}
