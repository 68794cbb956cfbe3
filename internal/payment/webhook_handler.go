package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	errors "github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/core/events"
	"github.com/frahmantamala/aims-commerce/internal/transport"
	"github.com/frahmantamala/aims-commerce/internal/vnpay"
)

// CallbackValidator is the signature-verification slice of the gateway.
type CallbackValidator interface {
	ValidateCallback(params map[string]string) bool
}

// IPN acknowledgement codes. They report whether the callback was PROCESSED
// and are unrelated to vnp_ResponseCode, which reports the payment outcome:
// a recorded payment failure is still acknowledged with "00".
const (
	IPNCodeSuccess          = "00"
	IPNCodeOrderNotFound    = "01"
	IPNCodeAlreadyConfirmed = "02"
	IPNCodeInvalidAmount    = "04"
	IPNCodeInvalidSignature = "97"
	IPNCodeUnknownError     = "99"
)

type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// ReturnResponse is the customer-facing payment result rendered by the
// return endpoint.
type ReturnResponse struct {
	OrderID string `json:"order_id,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type WebhookHandler struct {
	*transport.BaseHandler
	validator CallbackValidator
	repo      Repository
	eventBus  *events.EventBus
	logger    *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, validator CallbackValidator, repo Repository, eventBus *events.EventBus, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		validator:   validator,
		repo:        repo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

type callbackOutcome struct {
	RspCode string
	Message string
	// Success reflects the payment outcome when the callback was processed
	// or replayed; it is meaningless for rejected callbacks.
	Success bool
}

// HandleIPN is the gateway's server-to-server callback. The gateway retries
// until it receives RspCode "00".
func (h *WebhookHandler) HandleIPN(w http.ResponseWriter, r *http.Request) {
	params := queryToMap(r.URL.Query())

	outcome := h.processCallback(r.Context(), params)

	h.logger.Info("ipn processed",
		"txn_ref", params["vnp_TxnRef"],
		"rsp_code", outcome.RspCode,
		"message", outcome.Message)

	h.WriteJSON(w, http.StatusOK, IPNResponse{RspCode: outcome.RspCode, Message: outcome.Message})
}

// HandleReturn lands the customer back from the gateway. It runs the same
// idempotent processing as the IPN, so whichever endpoint fires second
// becomes a replay, then renders the stored outcome for the customer.
func (h *WebhookHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	params := queryToMap(r.URL.Query())

	outcome := h.processCallback(r.Context(), params)
	if outcome.RspCode == IPNCodeInvalidSignature {
		h.WriteJSON(w, http.StatusBadRequest, ReturnResponse{
			Success: false,
			Message: "invalid payment signature",
		})
		return
	}

	txn, err := h.repo.GetByTxnRef(params["vnp_TxnRef"])
	if err != nil {
		h.WriteJSON(w, http.StatusNotFound, ReturnResponse{
			Success: false,
			Message: "payment transaction not found",
		})
		return
	}

	message := vnpay.ResponseMessage(vnpay.CodeUnknownError)
	if txn.ResponseCode != nil {
		message = vnpay.ResponseMessage(*txn.ResponseCode)
	}

	h.WriteJSON(w, http.StatusOK, ReturnResponse{
		OrderID: txn.OrderID,
		Success: paymentSucceeded(txn.Status),
		Message: message,
	})
}

// processCallback is the shared idempotent path behind both callback
// endpoints. Order state only ever moves through the events published here.
func (h *WebhookHandler) processCallback(ctx context.Context, params map[string]string) callbackOutcome {
	txnRef := params["vnp_TxnRef"]

	if !h.validator.ValidateCallback(params) {
		h.logger.Warn("callback signature verification failed", "txn_ref", txnRef)
		h.recordInvalidSignature(txnRef)
		return callbackOutcome{RspCode: IPNCodeInvalidSignature, Message: "Invalid signature"}
	}

	txn, err := h.repo.GetByTxnRef(txnRef)
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodeTransactionNotFound {
			h.logger.Warn("callback for unknown transaction", "txn_ref", txnRef)
			return callbackOutcome{RspCode: IPNCodeOrderNotFound, Message: "Order not found"}
		}
		h.logger.Error("failed to load transaction for callback", "error", err, "txn_ref", txnRef)
		return callbackOutcome{RspCode: IPNCodeUnknownError, Message: "Unknown error"}
	}

	// vnp_Amount arrives in minor units.
	amount, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil || amount != txn.Amount*100 {
		h.logger.Warn("callback amount mismatch",
			"txn_ref", txnRef,
			"expected", txn.Amount*100,
			"got", params["vnp_Amount"])
		return callbackOutcome{RspCode: IPNCodeInvalidAmount, Message: "Invalid amount"}
	}

	if IsSettled(txn.Status) {
		h.logger.Info("callback replay for settled transaction", "txn_ref", txnRef, "status", txn.Status)
		return callbackOutcome{
			RspCode: IPNCodeAlreadyConfirmed,
			Message: "Order already confirmed",
			Success: paymentSucceeded(txn.Status),
		}
	}

	orderID, err := strconv.ParseInt(txn.OrderID, 10, 64)
	if err != nil {
		h.logger.Error("transaction carries malformed order id", "txn_ref", txnRef, "order_id", txn.OrderID)
		return callbackOutcome{RspCode: IPNCodeUnknownError, Message: "Unknown error"}
	}

	now := time.Now()
	callbackJSON, _ := json.Marshal(params)

	if CanTransitionTo(txn.Status, StatusCallbackReceived) {
		txn.Status = StatusCallbackReceived
		txn.GatewayResponse = callbackJSON
		txn.UpdatedAt = now
		if err := h.repo.Update(txn); err != nil {
			h.logger.Error("failed to record callback", "error", err, "txn_ref", txnRef)
			return callbackOutcome{RspCode: IPNCodeUnknownError, Message: "Unknown error"}
		}
	}

	responseCode := params["vnp_ResponseCode"]

	if vnpay.IsSuccessCode(responseCode) {
		txn.Status = StatusSuccess
		txn.ResponseCode = &responseCode
		txn.PaidAt = &now
		txn.UpdatedAt = now
		if transactionNo := params["vnp_TransactionNo"]; transactionNo != "" {
			txn.GatewayTransactionNo = &transactionNo
		}
		if bankCode := params["vnp_BankCode"]; bankCode != "" && txn.BankCode == nil {
			txn.BankCode = &bankCode
		}

		if err := h.repo.Update(txn); err != nil {
			h.logger.Error("failed to record payment success", "error", err, "txn_ref", txnRef)
			return callbackOutcome{RspCode: IPNCodeUnknownError, Message: "Unknown error"}
		}

		bankCode := ""
		if txn.BankCode != nil {
			bankCode = *txn.BankCode
		}
		h.eventBus.Publish(ctx, events.NewPaymentProcessedEvent(orderID, txn.TxnRef, txn.Amount, txn.PaymentMethod, bankCode))

		h.logger.Info("payment confirmed by gateway",
			"order_id", txn.OrderID,
			"txn_ref", txnRef,
			"amount", txn.Amount)

		return callbackOutcome{RspCode: IPNCodeSuccess, Message: "Confirm success", Success: true}
	}

	reason := vnpay.ResponseMessage(responseCode)
	txn.Status = StatusFailed
	txn.ResponseCode = &responseCode
	txn.FailureReason = &reason
	txn.UpdatedAt = now

	if err := h.repo.Update(txn); err != nil {
		h.logger.Error("failed to record payment failure", "error", err, "txn_ref", txnRef)
		return callbackOutcome{RspCode: IPNCodeUnknownError, Message: "Unknown error"}
	}

	h.eventBus.Publish(ctx, events.NewPaymentFailedEvent(orderID, txn.TxnRef, txn.Amount, responseCode, reason))

	h.logger.Info("payment failed at gateway",
		"order_id", txn.OrderID,
		"txn_ref", txnRef,
		"response_code", responseCode,
		"reason", reason)

	return callbackOutcome{RspCode: IPNCodeSuccess, Message: "Confirm success"}
}

// recordInvalidSignature marks the transaction when a forged callback still
// names a real txn ref. The order is never touched.
func (h *WebhookHandler) recordInvalidSignature(txnRef string) {
	if txnRef == "" {
		return
	}

	txn, err := h.repo.GetByTxnRef(txnRef)
	if err != nil {
		return
	}

	// A callback did arrive, legitimate or not.
	if txn.Status == StatusInitiated {
		txn.Status = StatusCallbackReceived
	}
	if !CanTransitionTo(txn.Status, StatusInvalidSignature) {
		return
	}

	txn.Status = StatusInvalidSignature
	txn.UpdatedAt = time.Now()
	if err := h.repo.Update(txn); err != nil {
		h.logger.Error("failed to record invalid signature", "error", err, "txn_ref", txnRef)
	}
}

func paymentSucceeded(status string) bool {
	return status == StatusSuccess || status == StatusRefundPending || status == StatusRefunded
}

func queryToMap(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for key := range values {
		params[key] = values.Get(key)
	}
	return params
}
