package order

import (
	"errors"
	"time"
)

// PlaceOrderDTO represents the request payload for placing an order from
// the customer's cart.
type PlaceOrderDTO struct {
	PaymentMethod    string `json:"payment_method" validate:"required"`
	BankCode         string `json:"bank_code,omitempty"`
	Language         string `json:"language,omitempty" validate:"omitempty,oneof=vn en"`
	DeliveryName     string `json:"delivery_name" validate:"required"`
	DeliveryPhone    string `json:"delivery_phone" validate:"required"`
	DeliveryAddress  string `json:"delivery_address" validate:"required"`
	DeliveryProvince string `json:"delivery_province" validate:"required"`
	ReturnURL        string `json:"return_url,omitempty"`
}

// Validate validates the PlaceOrderDTO. Payment method support is decided
// by the payment coordinator, not here, so unknown methods pass through.
func (dto PlaceOrderDTO) Validate() error {
	if dto.PaymentMethod == "" {
		return errors.New("payment_method is required")
	}
	if dto.DeliveryName == "" {
		return errors.New("delivery_name is required")
	}
	if dto.DeliveryPhone == "" {
		return errors.New("delivery_phone is required")
	}
	if dto.DeliveryAddress == "" {
		return errors.New("delivery_address is required")
	}
	if dto.DeliveryProvince == "" {
		return errors.New("delivery_province is required")
	}
	if dto.Language != "" && dto.Language != "vn" && dto.Language != "en" {
		return errors.New("language must be either 'vn' or 'en'")
	}
	return nil
}

// PayOrderDTO represents the request for retrying payment on a pending order.
type PayOrderDTO struct {
	BankCode  string `json:"bank_code,omitempty"`
	Language  string `json:"language,omitempty" validate:"omitempty,oneof=vn en"`
	ReturnURL string `json:"return_url,omitempty"`
}

// Validate validates the PayOrderDTO
func (dto PayOrderDTO) Validate() error {
	if dto.Language != "" && dto.Language != "vn" && dto.Language != "en" {
		return errors.New("language must be either 'vn' or 'en'")
	}
	return nil
}

// CancelOrderDTO represents the request for cancelling an order.
type CancelOrderDTO struct {
	Reason string `json:"reason,omitempty"`
}

// ItemResponse is one order line in API responses.
type ItemResponse struct {
	ProductID    int64  `json:"product_id"`
	ProductTitle string `json:"product_title"`
	UnitPrice    int64  `json:"unit_price"`
	Quantity     int    `json:"quantity"`
	LineTotal    int64  `json:"line_total"`
}

// OrderResponse is the API shape of an order.
type OrderResponse struct {
	ID                   int64          `json:"id"`
	Status               string         `json:"status"`
	PaymentMethod        string         `json:"payment_method"`
	Subtotal             int64          `json:"subtotal"`
	ShippingFee          int64          `json:"shipping_fee"`
	TotalAmount          int64          `json:"total_amount"`
	Currency             string         `json:"currency"`
	DeliveryName         string         `json:"delivery_name"`
	DeliveryPhone        string         `json:"delivery_phone"`
	DeliveryAddress      string         `json:"delivery_address"`
	DeliveryProvince     string         `json:"delivery_province"`
	CancelReason         *string        `json:"cancel_reason,omitempty"`
	PaymentFailureReason *string        `json:"payment_failure_reason,omitempty"`
	PaidAt               *time.Time     `json:"paid_at,omitempty"`
	CancelledAt          *time.Time     `json:"cancelled_at,omitempty"`
	RefundedAt           *time.Time     `json:"refunded_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	Items                []ItemResponse `json:"items"`
}

func ToResponse(o *Order) *OrderResponse {
	items := make([]ItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = ItemResponse{
			ProductID:    item.ProductID,
			ProductTitle: item.ProductTitle,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal(),
		}
	}

	return &OrderResponse{
		ID:                   o.ID,
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
		Items:                items,
	}
}

func ToResponseSlice(orders []*Order) []*OrderResponse {
	result := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		result[i] = ToResponse(o)
	}
	return result
}
