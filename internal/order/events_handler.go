package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/aims-commerce/internal/core/events"
)

// EventHandler moves orders along their status machine when payment events
// arrive. It subscribes at priority 1 so the order already reflects the
// payment outcome when later subscribers, like notifications, read it.
type EventHandler struct {
	repo   Repository
	logger *slog.Logger
}

func NewEventHandler(repo Repository, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		repo:   repo,
		logger: logger,
	}
}

// RegisterEventHandlers subscribes the order reconciliation handlers.
func RegisterEventHandlers(bus *events.EventBus, handler *EventHandler) {
	bus.Subscribe(events.EventTypePaymentProcessed, 1, handler.OnPaymentProcessed)
	bus.Subscribe(events.EventTypePaymentFailed, 1, handler.OnPaymentFailed)
}

// OnPaymentProcessed confirms the order a settled payment belongs to.
// Confirmations for orders that already moved on are logged and dropped.
func (h *EventHandler) OnPaymentProcessed(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.PaymentProcessedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s event", e.EventType())
	}

	o, err := h.repo.GetByID(evt.OrderID)
	if err != nil {
		return err
	}

	if err := o.MarkAsPaid(); err != nil {
		h.logger.Info("payment confirmation ignored",
			"order_id", o.ID,
			"status", o.Status,
			"transaction_id", evt.TransactionID)
		return nil
	}

	if err := h.repo.Update(o); err != nil {
		return err
	}

	h.logger.Info("order confirmed",
		"order_id", o.ID,
		"transaction_id", evt.TransactionID,
		"amount", evt.Amount,
		"payment_method", evt.PaymentMethod)
	return nil
}

// OnPaymentFailed records the failure reason on the order. The order stays
// pending so the customer can retry with another method or bank.
func (h *EventHandler) OnPaymentFailed(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s event", e.EventType())
	}

	o, err := h.repo.GetByID(evt.OrderID)
	if err != nil {
		return err
	}

	reason := evt.FailureReason
	if reason == "" && evt.ResponseCode != "" {
		reason = "payment failed with code " + evt.ResponseCode
	}

	if err := o.MarkPaymentFailed(reason); err != nil {
		h.logger.Info("payment failure ignored",
			"order_id", o.ID,
			"status", o.Status,
			"transaction_id", evt.TransactionID)
		return nil
	}

	if err := h.repo.Update(o); err != nil {
		return err
	}

	h.logger.Warn("order payment failed",
		"order_id", o.ID,
		"transaction_id", evt.TransactionID,
		"response_code", evt.ResponseCode,
		"reason", reason)
	return nil
}
