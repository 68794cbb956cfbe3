package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/aims-commerce/internal/core/events"
)

// Enqueuer is the dispatcher surface the event handler needs.
type Enqueuer interface {
	Enqueue(msg Message) bool
}

// OrderDirectory resolves the owner of an order. The payment events carry no
// customer, so the handler looks the owner up before addressing the message.
type OrderDirectory interface {
	CustomerIDForOrder(ctx context.Context, orderID int64) (int64, error)
}

// EventHandler translates domain events into customer-facing messages. It
// subscribes at priority 10 so the order state already reflects the event
// when the message is composed.
type EventHandler struct {
	dispatcher Enqueuer
	orders     OrderDirectory
	logger     *slog.Logger
}

func NewEventHandler(dispatcher Enqueuer, orders OrderDirectory, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		orders:     orders,
		logger:     logger,
	}
}

// RegisterEventHandlers subscribes the notification fan-out.
func RegisterEventHandlers(bus *events.EventBus, handler *EventHandler) {
	bus.Subscribe(events.EventTypeOrderCreated, 10, handler.OnOrderCreated)
	bus.Subscribe(events.EventTypeOrderCancelled, 10, handler.OnOrderCancelled)
	bus.Subscribe(events.EventTypePaymentProcessed, 10, handler.OnPaymentProcessed)
	bus.Subscribe(events.EventTypePaymentFailed, 10, handler.OnPaymentFailed)
}

func (h *EventHandler) OnOrderCreated(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s event", e.EventType())
	}

	h.dispatcher.Enqueue(Message{
		Type:       TypeOrderConfirmation,
		OrderID:    evt.OrderID,
		CustomerID: evt.CustomerID,
		Subject:    fmt.Sprintf("Order #%d received", evt.OrderID),
		Body: fmt.Sprintf("We received your order #%d for %d %s. Payment method: %s.",
			evt.OrderID, evt.TotalAmount, evt.Currency, evt.PaymentMethod),
	})
	return nil
}

func (h *EventHandler) OnOrderCancelled(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.OrderCancelledEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s event", e.EventType())
	}

	body := fmt.Sprintf("Your order #%d was cancelled: %s.", evt.OrderID, evt.Reason)
	if evt.RefundIssued {
		body += " A refund has been requested with your payment provider."
	}

	h.dispatcher.Enqueue(Message{
		Type:       TypeCancellationNotice,
		OrderID:    evt.OrderID,
		CustomerID: evt.CustomerID,
		Subject:    fmt.Sprintf("Order #%d cancelled", evt.OrderID),
		Body:       body,
	})
	return nil
}

func (h *EventHandler) OnPaymentProcessed(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.PaymentProcessedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s event", e.EventType())
	}

	customerID, err := h.orders.CustomerIDForOrder(ctx, evt.OrderID)
	if err != nil {
		h.logger.Error("cannot address payment receipt",
			"order_id", evt.OrderID,
			"transaction_id", evt.TransactionID,
			"error", err)
		return err
	}

	h.dispatcher.Enqueue(Message{
		Type:       TypePaymentReceipt,
		OrderID:    evt.OrderID,
		CustomerID: customerID,
		Subject:    fmt.Sprintf("Payment received for order #%d", evt.OrderID),
		Body: fmt.Sprintf("Your payment of %d VND for order #%d was confirmed (transaction %s).",
			evt.Amount, evt.OrderID, evt.TransactionID),
	})
	return nil
}

func (h *EventHandler) OnPaymentFailed(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s event", e.EventType())
	}

	customerID, err := h.orders.CustomerIDForOrder(ctx, evt.OrderID)
	if err != nil {
		h.logger.Error("cannot address payment failure notice",
			"order_id", evt.OrderID,
			"transaction_id", evt.TransactionID,
			"error", err)
		return err
	}

	reason := evt.FailureReason
	if reason == "" {
		reason = "the payment could not be completed"
	}

	h.dispatcher.Enqueue(Message{
		Type:       TypePaymentFailure,
		OrderID:    evt.OrderID,
		CustomerID: customerID,
		Subject:    fmt.Sprintf("Payment failed for order #%d", evt.OrderID),
		Body: fmt.Sprintf("The payment for order #%d did not go through: %s. Your order is still open, you can retry with another method.",
			evt.OrderID, reason),
	})
	return nil
}
