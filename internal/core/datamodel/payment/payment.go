package payment

import (
	"encoding/json"
	"time"
)

type PaymentTransaction struct {
	ID                   int64           `gorm:"primaryKey"`
	OrderID              string          `gorm:"column:order_id;not null;index"`
	TxnRef               string          `gorm:"column:txn_ref;not null;uniqueIndex"`
	Amount               int64           `gorm:"column:amount;not null"`
	Currency             string          `gorm:"column:currency;default:VND"`
	PaymentMethod        string          `gorm:"column:payment_method;not null"`
	BankCode             *string         `gorm:"column:bank_code"`
	Status               string          `gorm:"column:status;default:initiated"`
	ResponseCode         *string         `gorm:"column:response_code"`
	GatewayTransactionNo *string         `gorm:"column:gateway_transaction_no"`
	GatewayResponse      json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	FailureReason        *string         `gorm:"column:failure_reason"`
	RefundID             *string         `gorm:"column:refund_id"`
	PaidAt               *time.Time      `gorm:"column:paid_at"`
	RefundedAt           *time.Time      `gorm:"column:refunded_at"`
	CreatedAt            time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;default:now()"`
}
