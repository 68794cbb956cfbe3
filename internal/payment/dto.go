package payment

import (
	"time"

	"github.com/frahmantamala/aims-commerce/internal/core/datamodel/payment"
)

// PaymentStatusResponse is the API shape for GET /payment/{orderID}/status.
type PaymentStatusResponse struct {
	OrderID       string     `json:"order_id"`
	TransactionID string     `json:"transaction_id"`
	Method        string     `json:"payment_method"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	ResponseCode  string     `json:"response_code,omitempty"`
	Message       string     `json:"message"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
}

// ToStatusResponse merges the stored transaction with the gateway-reported
// status into the API response.
func ToStatusResponse(orderID string, txn *payment.PaymentTransaction, status *PaymentStatusResult) PaymentStatusResponse {
	resp := PaymentStatusResponse{
		OrderID:       orderID,
		TransactionID: txn.TxnRef,
		Method:        txn.PaymentMethod,
		Status:        txn.Status,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		PaidAt:        txn.PaidAt,
		RefundedAt:    txn.RefundedAt,
	}
	if status != nil {
		resp.ResponseCode = status.ResponseCode
		resp.Message = status.Message
	}
	return resp
}
