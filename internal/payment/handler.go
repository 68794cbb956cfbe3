package payment

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/transport"
	"github.com/frahmantamala/aims-commerce/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	coordinator *Coordinator
	repo        Repository
	orders      OrderAccessChecker
}

func NewHandler(coordinator *Coordinator, repo Repository, orders OrderAccessChecker) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		coordinator: coordinator,
		repo:        repo,
		orders:      orders,
	}
}

// GetPaymentStatus handles GET /api/v1/payment/{orderID}/status
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("GetPaymentStatus: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		h.HandleServiceError(w, internal.NewValidationError("order id is required", internal.ErrCodeValidationFailed))
		return
	}

	if err := h.orders.CanAccessOrder(r.Context(), customerID, orderID); err != nil {
		h.Logger.Warn("GetPaymentStatus: access denied", "error", err, "order_id", orderID, "customer_id", customerID)
		h.HandleServiceError(w, err)
		return
	}

	txn, err := h.repo.GetLatestByOrderID(orderID)
	if err != nil {
		h.Logger.Error("GetPaymentStatus: no transaction for order", "error", err, "order_id", orderID)
		h.HandleServiceError(w, err)
		return
	}

	service, err := h.coordinator.ServiceFor(txn.PaymentMethod, "")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	status, err := service.GetPaymentStatus(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("GetPaymentStatus: service error", "error", err, "order_id", orderID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToStatusResponse(orderID, txn, status))
}
