package order

import (
	"github.com/frahmantamala/aims-commerce/internal/core/common/validation"
)

const (
	CommandPlaceOrder     = "order.place"
	CommandProcessPayment = "order.process_payment"
	CommandCancelOrder    = "order.cancel"
)

// PlaceOrderCommand snapshots the customer's cart into a new order and
// starts payment for it.
type PlaceOrderCommand struct {
	CustomerID int64
	ClientIP   string
	PlaceOrderDTO
}

func (c *PlaceOrderCommand) CommandType() string { return CommandPlaceOrder }

func (c *PlaceOrderCommand) Validate() error {
	validator := validation.NewValidator()

	validator.Field("customer_id", c.CustomerID).Required()
	validator.Field("payment_method", c.PaymentMethod).Required()
	validator.Field("language", c.Language).OneOf("vn", "en")
	validator.Field("delivery_name", c.DeliveryName).Required().MaxLength(255)
	validator.Field("delivery_phone", c.DeliveryPhone).Required().MaxLength(32)
	validator.Field("delivery_address", c.DeliveryAddress).Required().MaxLength(500)
	validator.Field("delivery_province", c.DeliveryProvince).Required().MaxLength(100)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ProcessPaymentCommand retries payment for an existing pending order.
type ProcessPaymentCommand struct {
	OrderID    int64
	CustomerID int64
	BankCode   string
	Language   string
	ReturnURL  string
	ClientIP   string
}

func (c *ProcessPaymentCommand) CommandType() string { return CommandProcessPayment }

func (c *ProcessPaymentCommand) Validate() error {
	validator := validation.NewValidator()

	validator.Field("order_id", c.OrderID).Required()
	validator.Field("customer_id", c.CustomerID).Required()
	validator.Field("language", c.Language).OneOf("vn", "en")

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CancelOrderCommand cancels an order, refunding captured payments first
// when the order was already confirmed through a gateway.
type CancelOrderCommand struct {
	OrderID    int64
	CustomerID int64
	Reason     string
}

func (c *CancelOrderCommand) CommandType() string { return CommandCancelOrder }

func (c *CancelOrderCommand) Validate() error {
	validator := validation.NewValidator()

	validator.Field("order_id", c.OrderID).Required()
	validator.Field("customer_id", c.CustomerID).Required()
	validator.Field("reason", c.Reason).MaxLength(255)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// PaymentActionResult reports the outcome of starting a payment attempt.
// Redirect methods carry a PaymentURL; instant methods settle in place.
type PaymentActionResult struct {
	Success       bool   `json:"success"`
	OrderID       int64  `json:"order_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	PaymentURL    string `json:"payment_url,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
	Message       string `json:"message,omitempty"`
}

// PlaceOrderResult reports order placement. Success refers to the order
// itself; Payment carries the outcome of the initial payment attempt.
type PlaceOrderResult struct {
	Success   bool                 `json:"success"`
	Order     *OrderResponse       `json:"order,omitempty"`
	Payment   *PaymentActionResult `json:"payment,omitempty"`
	ErrorCode string               `json:"error_code,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// CancelOrderResult reports a cancellation attempt. When a refund was
// required but failed, Success is false and the order is left untouched.
type CancelOrderResult struct {
	Success      bool   `json:"success"`
	OrderID      int64  `json:"order_id"`
	Status       string `json:"status,omitempty"`
	RefundIssued bool   `json:"refund_issued"`
	RefundID     string `json:"refund_id,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	Message      string `json:"message,omitempty"`
}
