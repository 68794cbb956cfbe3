package order

import (
	"time"

	"github.com/frahmantamala/aims-commerce/internal"
	orderDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/order"
	"github.com/frahmantamala/aims-commerce/internal/payment"
)

type Order struct {
	ID                   int64      `json:"id"`
	CustomerID           int64      `json:"customer_id"`
	Status               string     `json:"status"`
	PaymentMethod        string     `json:"payment_method"`
	Subtotal             int64      `json:"subtotal"`
	ShippingFee          int64      `json:"shipping_fee"`
	TotalAmount          int64      `json:"total_amount"`
	Currency             string     `json:"currency"`
	DeliveryName         string     `json:"delivery_name"`
	DeliveryPhone        string     `json:"delivery_phone"`
	DeliveryAddress      string     `json:"delivery_address"`
	DeliveryProvince     string     `json:"delivery_province"`
	CancelReason         *string    `json:"cancel_reason,omitempty"`
	PaymentFailureReason *string    `json:"payment_failure_reason,omitempty"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	Items                []Item     `json:"items"`
}

type Item struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	UnitPrice    int64     `json:"unit_price"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`
}

func (i Item) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusCancelled = "cancelled"

	// FreeShippingThreshold waives the delivery fee for larger orders.
	FreeShippingThreshold = 100000

	innerCityShippingFee = 22000
	provinceShippingFee  = 30000

	DefaultCurrency = "VND"
)

// ShippingFee is flat per province tier; orders above the free-shipping
// threshold pay nothing.
func ShippingFee(province string, subtotal int64) int64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	switch province {
	case "Hanoi", "Ho Chi Minh City":
		return innerCityShippingFee
	default:
		return provinceShippingFee
	}
}

func (o *Order) CanProcessPayment() bool {
	return o.Status == StatusPending
}

func (o *Order) CanBeCancelled() bool {
	return o.Status != StatusCancelled
}

// RequiresRefundOnCancel reports whether money already captured by a
// gateway has to be returned before this order may be cancelled.
func (o *Order) RequiresRefundOnCancel() bool {
	if o.PaymentMethod == payment.MethodCOD {
		return false
	}
	return o.Status == StatusConfirmed || o.Status == StatusShipped
}

func (o *Order) MarkAsPaid() error {
	if o.Status != StatusPending {
		return internal.ErrInvalidOrderStatus
	}
	now := time.Now()
	o.Status = StatusConfirmed
	o.PaidAt = &now
	o.PaymentFailureReason = nil
	o.UpdatedAt = now
	return nil
}

// MarkPaymentFailed keeps the order pending so the customer can retry;
// only the failure reason is recorded.
func (o *Order) MarkPaymentFailed(reason string) error {
	if o.Status != StatusPending {
		return internal.ErrInvalidOrderStatus
	}
	o.PaymentFailureReason = &reason
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) MarkAsShipped() error {
	if o.Status != StatusConfirmed {
		return internal.ErrInvalidOrderStatus
	}
	o.Status = StatusShipped
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) Cancel(reason string) error {
	if !o.CanBeCancelled() {
		return internal.ErrInvalidOrderStatus
	}
	now := time.Now()
	o.Status = StatusCancelled
	o.CancelReason = &reason
	o.CancelledAt = &now
	o.UpdatedAt = now
	return nil
}

// MarkAsRefunded cancels the order and records when the captured payment
// was handed back to the gateway for refund.
func (o *Order) MarkAsRefunded(reason string) error {
	if err := o.Cancel(reason); err != nil {
		return err
	}
	now := time.Now()
	o.RefundedAt = &now
	return nil
}

func NewOrder(customerID int64, paymentMethod string, dto PlaceOrderDTO, items []Item) *Order {
	now := time.Now()

	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotal()
	}
	fee := ShippingFee(dto.DeliveryProvince, subtotal)

	return &Order{
		CustomerID:       customerID,
		Status:           StatusPending,
		PaymentMethod:    paymentMethod,
		Subtotal:         subtotal,
		ShippingFee:      fee,
		TotalAmount:      subtotal + fee,
		Currency:         DefaultCurrency,
		DeliveryName:     dto.DeliveryName,
		DeliveryPhone:    dto.DeliveryPhone,
		DeliveryAddress:  dto.DeliveryAddress,
		DeliveryProvince: dto.DeliveryProvince,
		CreatedAt:        now,
		UpdatedAt:        now,
		Items:            items,
	}
}

func ToDataModel(o *Order) *orderDatamodel.Order {
	items := make([]orderDatamodel.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderDatamodel.OrderItem{
			ID:           item.ID,
			OrderID:      o.ID,
			ProductID:    item.ProductID,
			ProductTitle: item.ProductTitle,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			CreatedAt:    item.CreatedAt,
		}
	}

	return &orderDatamodel.Order{
		ID:                   o.ID,
		CustomerID:           o.CustomerID,
		Status:               o.Status,
		PaymentMethod:        o.PaymentMethod,
		Subtotal:             o.Subtotal,
		ShippingFee:          o.ShippingFee,
		TotalAmount:          o.TotalAmount,
		Currency:             o.Currency,
		DeliveryName:         o.DeliveryName,
		DeliveryPhone:        o.DeliveryPhone,
		DeliveryAddress:      o.DeliveryAddress,
		DeliveryProvince:     o.DeliveryProvince,
		CancelReason:         o.CancelReason,
		PaymentFailureReason: o.PaymentFailureReason,
		PaidAt:               o.PaidAt,
		CancelledAt:          o.CancelledAt,
		RefundedAt:           o.RefundedAt,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Items:                items,
	}
}

func FromDataModel(o *orderDatamodel.Order) *Order {
	items := make([]Item, len(o.Items))
	for i, item := range o.Items {
		items[i] = Item{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductTitle: item.ProductTitle,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			CreatedAt:    item.CreatedAt,
		}
	}

	return &Order{
		ID:                   o.ID,
		CustomerID:           o.CustomerID,
		Status:               o.Status,
		PaymentMethod:        o.PaymentMethod,
		Subtotal:             o.Subtotal,
		ShippingFee:          o.ShippingFee,
		TotalAmount:          o.TotalAmount,
		Currency:             o.Currency,
		DeliveryName:         o.DeliveryName,
		DeliveryPhone:        o.DeliveryPhone,
		DeliveryAddress:      o.DeliveryAddress,
		DeliveryProvince:     o.DeliveryProvince,
		CancelReason:         o.CancelReason,
		PaymentFailureReason: o.PaymentFailureReason,
		PaidAt:               o.PaidAt,
		CancelledAt:          o.CancelledAt,
		RefundedAt:           o.RefundedAt,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Items:                items,
	}
}

func FromDataModelSlice(orders []*orderDatamodel.Order) []*Order {
	result := make([]*Order, len(orders))
	for i, o := range orders {
		result[i] = FromDataModel(o)
	}
	return result
}
