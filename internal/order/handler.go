package order

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/commandbus"
	"github.com/frahmantamala/aims-commerce/internal/transport"
	"github.com/frahmantamala/aims-commerce/internal/vnpay"
	"github.com/frahmantamala/aims-commerce/pkg/logger"
)

type ServiceAPI interface {
	GetOrderForCustomer(ctx context.Context, customerID, orderID int64) (*Order, error)
	ListOrdersForCustomer(ctx context.Context, customerID int64, limit, offset int) ([]*Order, error)
}

// CommandBus is the slice of the command bus the handler dispatches through.
type CommandBus interface {
	Execute(ctx context.Context, cmd commandbus.Command) (interface{}, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	bus     CommandBus
}

func NewHandler(service ServiceAPI, bus CommandBus) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		bus:         bus,
	}
}

// PlaceOrder handles POST /api/v1/orders
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("PlaceOrder: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto PlaceOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("PlaceOrder: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.Logger.Error("PlaceOrder: validation error", "error", err)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.bus.Execute(r.Context(), &PlaceOrderCommand{
		CustomerID:    customerID,
		ClientIP:      vnpay.ClientIP(r),
		PlaceOrderDTO: dto,
	})
	if err != nil {
		h.Logger.Error("PlaceOrder: command error", "error", err, "customer_id", customerID)
		h.HandleServiceError(w, err)
		return
	}

	result, ok := res.(*PlaceOrderResult)
	if !ok {
		h.WriteError(w, http.StatusInternalServerError, "unexpected command result")
		return
	}
	if !result.Success {
		h.WriteJSON(w, statusForErrorCode(result.ErrorCode), result)
		return
	}

	h.Logger.Info("PlaceOrder: order placed",
		"order_id", result.Order.ID,
		"customer_id", customerID,
		"total_amount", result.Order.TotalAmount,
		"payment_method", result.Order.PaymentMethod)

	h.WriteJSON(w, http.StatusCreated, result)
}

// GetOrder handles GET /api/v1/orders/{orderID}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("GetOrder: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderIDFromURL(w, r)
	if !ok {
		return
	}

	o, err := h.Service.GetOrderForCustomer(r.Context(), customerID, orderID)
	if err != nil {
		h.Logger.Error("GetOrder: service error", "error", err, "order_id", orderID, "customer_id", customerID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(o))
}

// ListOrders handles GET /api/v1/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("ListOrders: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

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

	orders, err := h.Service.ListOrdersForCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		h.Logger.Error("ListOrders: service error", "error", err, "customer_id", customerID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders": ToResponseSlice(orders),
		"limit":  limit,
		"offset": offset,
	})
}

// PayOrder handles POST /api/v1/orders/{orderID}/payment
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("PayOrder: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderIDFromURL(w, r)
	if !ok {
		return
	}

	// Body is optional: bank code, language and return URL all have defaults.
	var dto PayOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && err != io.EOF {
		h.Logger.Error("PayOrder: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.Logger.Error("PayOrder: validation error", "error", err)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.bus.Execute(r.Context(), &ProcessPaymentCommand{
		OrderID:    orderID,
		CustomerID: customerID,
		BankCode:   dto.BankCode,
		Language:   dto.Language,
		ReturnURL:  dto.ReturnURL,
		ClientIP:   vnpay.ClientIP(r),
	})
	if err != nil {
		h.Logger.Error("PayOrder: command error", "error", err, "order_id", orderID, "customer_id", customerID)
		h.HandleServiceError(w, err)
		return
	}

	result, ok := res.(*PaymentActionResult)
	if !ok {
		h.WriteError(w, http.StatusInternalServerError, "unexpected command result")
		return
	}
	if !result.Success {
		h.WriteJSON(w, statusForErrorCode(result.ErrorCode), result)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// CancelOrder handles POST /api/v1/orders/{orderID}/cancel
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	customerID := internal.CustomerIDFromContext(r.Context())
	if customerID == 0 {
		h.Logger.Error("CancelOrder: customer not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderIDFromURL(w, r)
	if !ok {
		return
	}

	var dto CancelOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && err != io.EOF {
		h.Logger.Error("CancelOrder: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.bus.Execute(r.Context(), &CancelOrderCommand{
		OrderID:    orderID,
		CustomerID: customerID,
		Reason:     dto.Reason,
	})
	if err != nil {
		h.Logger.Error("CancelOrder: command error", "error", err, "order_id", orderID, "customer_id", customerID)
		h.HandleServiceError(w, err)
		return
	}

	result, ok := res.(*CancelOrderResult)
	if !ok {
		h.WriteError(w, http.StatusInternalServerError, "unexpected command result")
		return
	}
	if !result.Success {
		h.WriteJSON(w, statusForErrorCode(result.ErrorCode), result)
		return
	}

	h.Logger.Info("CancelOrder: order cancelled",
		"order_id", orderID,
		"customer_id", customerID,
		"refund_issued", result.RefundIssued)

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) orderIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orderIDStr := chi.URLParam(r, "orderID")
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid order ID", "id", orderIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid order ID")
		return 0, false
	}
	return orderID, true
}

// statusForErrorCode maps failure-shaped command results onto HTTP statuses.
// Gateway response codes that are not application codes fall through to 422.
func statusForErrorCode(code string) int {
	switch internal.ErrorCode(code) {
	case internal.ErrCodeCartEmpty, internal.ErrCodeInvalidOrderStatus:
		return http.StatusBadRequest
	case internal.ErrCodeInsufficientStock, internal.ErrCodeProductNotFound:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
