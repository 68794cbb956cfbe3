package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/transport"
	"github.com/frahmantamala/aims-commerce/pkg/logger"
)

type ServiceAPI interface {
	GetCart(ctx context.Context, customerID int64) (*Cart, error)
	AddItem(ctx context.Context, customerID int64, dto AddItemDTO) (*Cart, error)
	UpdateItemQuantity(ctx context.Context, customerID, productID int64, dto UpdateItemDTO) (*Cart, error)
	RemoveItem(ctx context.Context, customerID, productID int64) (*Cart, error)
	Clear(ctx context.Context, customerID int64) error
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

// GetCart handles GET /api/v1/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("GetCart: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	c, err := h.Service.GetCart(r.Context(), customerID)
	if err != nil {
		h.Logger.Error("GetCart: service error", "error", err, "customer_id", customerID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// AddItem handles POST /api/v1/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("AddItem: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto AddItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("AddItem: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.AddItem(r.Context(), customerID, dto)
	if err != nil {
		h.Logger.Error("AddItem: service error",
			"error", err,
			"customer_id", customerID,
			"product_id", dto.ProductID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// UpdateItem handles PATCH /api/v1/cart/items/{productID}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("UpdateItem: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, ok := h.productIDFromURL(w, r)
	if !ok {
		return
	}

	var dto UpdateItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateItem: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.UpdateItemQuantity(r.Context(), customerID, productID, dto)
	if err != nil {
		h.Logger.Error("UpdateItem: service error",
			"error", err,
			"customer_id", customerID,
			"product_id", productID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("RemoveItem: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, ok := h.productIDFromURL(w, r)
	if !ok {
		return
	}

	c, err := h.Service.RemoveItem(r.Context(), customerID, productID)
	if err != nil {
		h.Logger.Error("RemoveItem: service error",
			"error", err,
			"customer_id", customerID,
			"product_id", productID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("ClearCart: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.Clear(r.Context(), customerID); err != nil {
		h.Logger.Error("ClearCart: service error", "error", err, "customer_id", customerID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "productID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid product ID in URL", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid product ID")
		return 0, false
	}
	return id, true
}
