package order

import (
	"time"
)

type Order struct {
	ID                   int64       `gorm:"primaryKey"`
	CustomerID           int64       `gorm:"column:customer_id;not null;index"`
	Status               string      `gorm:"column:status;default:pending"`
	PaymentMethod        string      `gorm:"column:payment_method;not null"`
	Subtotal             int64       `gorm:"column:subtotal;not null"`
	ShippingFee          int64       `gorm:"column:shipping_fee;not null"`
	TotalAmount          int64       `gorm:"column:total_amount;not null"`
	Currency             string      `gorm:"column:currency;default:VND"`
	DeliveryName         string      `gorm:"column:delivery_name;not null"`
	DeliveryPhone        string      `gorm:"column:delivery_phone;not null"`
	DeliveryAddress      string      `gorm:"column:delivery_address;not null"`
	DeliveryProvince     string      `gorm:"column:delivery_province;not null"`
	CancelReason         *string     `gorm:"column:cancel_reason"`
	PaymentFailureReason *string     `gorm:"column:payment_failure_reason"`
	PaidAt               *time.Time  `gorm:"column:paid_at"`
	CancelledAt          *time.Time  `gorm:"column:cancelled_at"`
	RefundedAt           *time.Time  `gorm:"column:refunded_at"`
	CreatedAt            time.Time   `gorm:"column:created_at;default:now()"`
	UpdatedAt            time.Time   `gorm:"column:updated_at;default:now()"`
	Items                []OrderItem `gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	ID           int64     `gorm:"primaryKey"`
	OrderID      int64     `gorm:"column:order_id;not null;index"`
	ProductID    int64     `gorm:"column:product_id;not null"`
	ProductTitle string    `gorm:"column:product_title;not null"`
	UnitPrice    int64     `gorm:"column:unit_price;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
}
