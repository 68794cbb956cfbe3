package order

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/cart"
	"github.com/frahmantamala/aims-commerce/internal/commandbus"
	"github.com/frahmantamala/aims-commerce/internal/core/events"
	"github.com/frahmantamala/aims-commerce/internal/payment"
)

// CartCheckout is the slice of the cart service order placement needs.
type CartCheckout interface {
	CheckoutLines(ctx context.Context, customerID int64) ([]cart.CheckoutLine, error)
	Clear(ctx context.Context, customerID int64) error
}

// StockAdjuster reserves and releases product stock.
type StockAdjuster interface {
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	IncrementStock(ctx context.Context, productID int64, quantity int) error
}

// PaymentCoordinator resolves the domain service for a payment method.
type PaymentCoordinator interface {
	ServiceFor(method, region string) (payment.DomainService, error)
}

// EventPublisher dispatches domain events to their subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// CommandHandlers implements the order commands. Expected business failures
// (empty cart, out of stock, unsupported method, rejected refund) come back
// as failure-shaped results; errors are reserved for broken infrastructure.
type CommandHandlers struct {
	repo     Repository
	carts    CartCheckout
	stock    StockAdjuster
	payments PaymentCoordinator
	events   EventPublisher
	logger   *slog.Logger
}

func NewCommandHandlers(
	repo Repository,
	carts CartCheckout,
	stock StockAdjuster,
	payments PaymentCoordinator,
	publisher EventPublisher,
	logger *slog.Logger,
) *CommandHandlers {
	return &CommandHandlers{
		repo:     repo,
		carts:    carts,
		stock:    stock,
		payments: payments,
		events:   publisher,
		logger:   logger,
	}
}

// RegisterCommandHandlers binds the order commands to the bus.
func RegisterCommandHandlers(bus *commandbus.Bus, handlers *CommandHandlers) {
	bus.Register(CommandPlaceOrder, 1, handlers.HandlePlaceOrder)
	bus.Register(CommandProcessPayment, 1, handlers.HandleProcessPayment)
	bus.Register(CommandCancelOrder, 1, handlers.HandleCancelOrder)
}

type paymentOptions struct {
	BankCode  string
	Language  string
	ReturnURL string
	ClientIP  string
}

// HandlePlaceOrder snapshots the cart into a new pending order, reserves
// stock, clears the cart and starts the first payment attempt. The order is
// kept even when that attempt fails, so payment can be retried.
func (h *CommandHandlers) HandlePlaceOrder(ctx context.Context, cmd commandbus.Command) (interface{}, error) {
	c, ok := cmd.(*PlaceOrderCommand)
	if !ok {
		return nil, internal.NewInternalError("unexpected command payload for "+CommandPlaceOrder, nil)
	}

	// Reject unknown payment methods before touching cart or stock.
	if _, err := h.payments.ServiceFor(c.PaymentMethod, ""); err != nil {
		return &PlaceOrderResult{
			Success:   false,
			ErrorCode: string(internal.ErrCodeUnsupportedPaymentMethod),
			Message:   err.Error(),
		}, nil
	}

	lines, err := h.carts.CheckoutLines(ctx, c.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &PlaceOrderResult{
			Success:   false,
			ErrorCode: string(internal.ErrCodeCartEmpty),
			Message:   "cart has no items",
		}, nil
	}

	items := make([]Item, len(lines))
	for i, line := range lines {
		items[i] = Item{
			ProductID:    line.ProductID,
			ProductTitle: line.Title,
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
		}
	}

	reserved := make([]Item, 0, len(items))
	for _, item := range items {
		if err := h.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			h.releaseStock(ctx, reserved)
			if appErr, ok := internal.IsAppError(err); ok &&
				(appErr.Code == internal.ErrCodeInsufficientStock || appErr.Code == internal.ErrCodeProductNotFound) {
				return &PlaceOrderResult{
					Success:   false,
					ErrorCode: string(appErr.Code),
					Message:   fmt.Sprintf("%s: %s", item.ProductTitle, appErr.Message),
				}, nil
			}
			return nil, err
		}
		reserved = append(reserved, item)
	}

	o := NewOrder(c.CustomerID, c.PaymentMethod, c.PlaceOrderDTO, items)
	if err := h.repo.Create(o); err != nil {
		h.releaseStock(ctx, reserved)
		return nil, err
	}

	if err := h.carts.Clear(ctx, c.CustomerID); err != nil {
		h.logger.Error("failed to clear cart after placing order",
			"order_id", o.ID,
			"customer_id", c.CustomerID,
			"error", err)
	}

	h.events.Publish(ctx, events.NewOrderCreatedEvent(o.ID, o.CustomerID, o.TotalAmount, o.Currency, o.PaymentMethod))

	payRes := h.startPayment(ctx, o, paymentOptions{
		BankCode:  c.BankCode,
		Language:  c.Language,
		ReturnURL: c.ReturnURL,
		ClientIP:  c.ClientIP,
	})

	// Instant methods settle through the event handlers synchronously, so
	// reload to hand back the current status.
	if fresh, err := h.repo.GetByID(o.ID); err == nil {
		o = fresh
	}

	return &PlaceOrderResult{
		Success: true,
		Order:   ToResponse(o),
		Payment: payRes,
	}, nil
}

// HandleProcessPayment retries payment for an order that is still pending.
func (h *CommandHandlers) HandleProcessPayment(ctx context.Context, cmd commandbus.Command) (interface{}, error) {
	c, ok := cmd.(*ProcessPaymentCommand)
	if !ok {
		return nil, internal.NewInternalError("unexpected command payload for "+CommandProcessPayment, nil)
	}

	o, err := h.repo.GetByID(c.OrderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != c.CustomerID {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !o.CanProcessPayment() {
		return nil, internal.ErrInvalidOrderStatus
	}

	return h.startPayment(ctx, o, paymentOptions{
		BankCode:  c.BankCode,
		Language:  c.Language,
		ReturnURL: c.ReturnURL,
		ClientIP:  c.ClientIP,
	}), nil
}

// HandleCancelOrder cancels an order. Orders already confirmed through a
// gateway are only cancelled after the gateway accepts the refund; a rejected
// refund leaves the order exactly as it was.
func (h *CommandHandlers) HandleCancelOrder(ctx context.Context, cmd commandbus.Command) (interface{}, error) {
	c, ok := cmd.(*CancelOrderCommand)
	if !ok {
		return nil, internal.NewInternalError("unexpected command payload for "+CommandCancelOrder, nil)
	}

	o, err := h.repo.GetByID(c.OrderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != c.CustomerID {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !o.CanBeCancelled() {
		return &CancelOrderResult{
			Success:   false,
			OrderID:   o.ID,
			Status:    o.Status,
			ErrorCode: string(internal.ErrCodeInvalidOrderStatus),
			Message:   "order is already cancelled",
		}, nil
	}

	reason := c.Reason
	if reason == "" {
		reason = "cancelled by customer"
	}

	refundIssued := false
	refundID := ""
	if o.RequiresRefundOnCancel() {
		svc, err := h.payments.ServiceFor(o.PaymentMethod, "")
		if err != nil {
			return &CancelOrderResult{
				Success:   false,
				OrderID:   o.ID,
				Status:    o.Status,
				ErrorCode: string(internal.ErrCodeUnsupportedPaymentMethod),
				Message:   "no refund route for payment method " + o.PaymentMethod,
			}, nil
		}

		refund, err := svc.ProcessRefund(ctx, &payment.RefundRequest{
			OrderID:     strconv.FormatInt(o.ID, 10),
			Reason:      reason,
			RequestedBy: fmt.Sprintf("customer:%d", c.CustomerID),
		})
		if err != nil {
			return nil, err
		}
		if !refund.Success {
			h.logger.Warn("refund rejected, order left unchanged",
				"order_id", o.ID,
				"error_code", refund.ErrorCode,
				"message", refund.Message)
			return &CancelOrderResult{
				Success:   false,
				OrderID:   o.ID,
				Status:    o.Status,
				ErrorCode: refund.ErrorCode,
				Message:   "refund failed: " + refund.Message,
			}, nil
		}

		refundIssued = true
		refundID = refund.RefundID
		if err := o.MarkAsRefunded(reason); err != nil {
			return nil, err
		}
	} else {
		if err := o.Cancel(reason); err != nil {
			return nil, err
		}
	}

	if err := h.repo.Update(o); err != nil {
		return nil, err
	}

	h.releaseStock(ctx, o.Items)
	h.events.Publish(ctx, events.NewOrderCancelledEvent(o.ID, o.CustomerID, reason, refundIssued))

	return &CancelOrderResult{
		Success:      true,
		OrderID:      o.ID,
		Status:       o.Status,
		RefundIssued: refundIssued,
		RefundID:     refundID,
		Message:      "order cancelled",
	}, nil
}

// startPayment runs one payment attempt for the order and publishes the
// outcome events. Redirect methods report success once the payment URL is
// built; their real outcome arrives later through the gateway callback.
func (h *CommandHandlers) startPayment(ctx context.Context, o *Order, opts paymentOptions) *PaymentActionResult {
	svc, err := h.payments.ServiceFor(o.PaymentMethod, "")
	if err != nil {
		h.logger.Warn("no payment service for order",
			"order_id", o.ID,
			"payment_method", o.PaymentMethod,
			"error", err)
		h.events.Publish(ctx, events.NewPaymentFailedEvent(o.ID, "", o.TotalAmount, "", err.Error()))
		return &PaymentActionResult{
			Success:   false,
			OrderID:   o.ID,
			ErrorCode: string(internal.ErrCodeUnsupportedPaymentMethod),
			Message:   err.Error(),
		}
	}

	res, err := svc.ProcessPayment(ctx, &payment.PaymentRequest{
		OrderID:    strconv.FormatInt(o.ID, 10),
		Amount:     o.TotalAmount,
		Currency:   o.Currency,
		BankCode:   opts.BankCode,
		Language:   opts.Language,
		CustomerID: o.CustomerID,
		ReturnURL:  opts.ReturnURL,
		ClientIP:   opts.ClientIP,
	})
	if err != nil {
		h.logger.Error("payment attempt errored",
			"order_id", o.ID,
			"payment_method", o.PaymentMethod,
			"error", err)
		h.events.Publish(ctx, events.NewPaymentFailedEvent(o.ID, "", o.TotalAmount, "", err.Error()))
		return &PaymentActionResult{
			Success:   false,
			OrderID:   o.ID,
			ErrorCode: string(internal.ErrCodeExecutionFailed),
			Message:   "payment could not be started",
		}
	}

	if !res.Success {
		h.events.Publish(ctx, events.NewPaymentFailedEvent(o.ID, res.TransactionID, o.TotalAmount, res.ErrorCode, res.Message))
		return &PaymentActionResult{
			Success:       false,
			OrderID:       o.ID,
			TransactionID: res.TransactionID,
			ErrorCode:     res.ErrorCode,
			Message:       res.Message,
		}
	}

	// No redirect URL means the method settled on the spot.
	if res.PaymentURL == "" {
		h.events.Publish(ctx, events.NewPaymentProcessedEvent(o.ID, res.TransactionID, o.TotalAmount, o.PaymentMethod, opts.BankCode))
	}

	return &PaymentActionResult{
		Success:       true,
		OrderID:       o.ID,
		TransactionID: res.TransactionID,
		PaymentURL:    res.PaymentURL,
		Message:       res.Message,
	}
}

func (h *CommandHandlers) releaseStock(ctx context.Context, items []Item) {
	for _, item := range items {
		if err := h.stock.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			h.logger.Error("failed to restock product",
				"product_id", item.ProductID,
				"quantity", item.Quantity,
				"error", err)
		}
	}
}
