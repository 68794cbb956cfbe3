package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentProcessed = "payment.processed"
	EventTypePaymentFailed    = "payment.failed"
)

// PaymentProcessedEvent records a payment confirmed by the gateway or, for
// cash on delivery, accepted immediately at checkout. Both payment events
// use the order as their aggregate so order and payment streams interleave.
type PaymentProcessedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	BankCode      string `json:"bank_code,omitempty"`
}

func (e PaymentProcessedEvent) AggregateID() string {
	return strconv.FormatInt(e.OrderID, 10)
}

func NewPaymentProcessedEvent(orderID int64, transactionID string, amount int64, paymentMethod, bankCode string) *PaymentProcessedEvent {
	return &PaymentProcessedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentProcessed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":       orderID,
				"transaction_id": transactionID,
				"amount":         amount,
				"payment_method": paymentMethod,
				"bank_code":      bankCode,
			},
		},
		OrderID:       orderID,
		TransactionID: transactionID,
		Amount:        amount,
		PaymentMethod: paymentMethod,
		BankCode:      bankCode,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	ResponseCode  string `json:"response_code"`
	FailureReason string `json:"failure_reason"`
}

func (e PaymentFailedEvent) AggregateID() string {
	return strconv.FormatInt(e.OrderID, 10)
}

func NewPaymentFailedEvent(orderID int64, transactionID string, amount int64, responseCode, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":       orderID,
				"transaction_id": transactionID,
				"amount":         amount,
				"response_code":  responseCode,
				"failure_reason": failureReason,
			},
		},
		OrderID:       orderID,
		TransactionID: transactionID,
		Amount:        amount,
		ResponseCode:  responseCode,
		FailureReason: failureReason,
	}
}
