package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderCreated   = "order.created"
	EventTypeOrderCancelled = "order.cancelled"
)

type OrderCreatedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	CustomerID    int64  `json:"customer_id"`
	TotalAmount   int64  `json:"total_amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
}

func (e OrderCreatedEvent) AggregateID() string {
	return strconv.FormatInt(e.OrderID, 10)
}

func NewOrderCreatedEvent(orderID, customerID, totalAmount int64, currency, paymentMethod string) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":       orderID,
				"customer_id":    customerID,
				"total_amount":   totalAmount,
				"currency":       currency,
				"payment_method": paymentMethod,
			},
		},
		OrderID:       orderID,
		CustomerID:    customerID,
		TotalAmount:   totalAmount,
		Currency:      currency,
		PaymentMethod: paymentMethod,
	}
}

type OrderCancelledEvent struct {
	BaseEvent
	OrderID      int64  `json:"order_id"`
	CustomerID   int64  `json:"customer_id"`
	Reason       string `json:"reason"`
	RefundIssued bool   `json:"refund_issued"`
}

func (e OrderCancelledEvent) AggregateID() string {
	return strconv.FormatInt(e.OrderID, 10)
}

func NewOrderCancelledEvent(orderID, customerID int64, reason string, refundIssued bool) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderCancelled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":      orderID,
				"customer_id":   customerID,
				"reason":        reason,
				"refund_issued": refundIssued,
			},
		},
		OrderID:      orderID,
		CustomerID:   customerID,
		Reason:       reason,
		RefundIssued: refundIssued,
	}
}
