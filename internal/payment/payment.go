package payment

import (
	"context"
	"time"

	errors "github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/core/common/validation"
	"github.com/frahmantamala/aims-commerce/internal/core/datamodel/payment"
	"github.com/frahmantamala/aims-commerce/internal/vnpay"
)

// Payment methods the coordinator can route.
const (
	MethodVNPay        = "vnpay"
	MethodCOD          = "cod"
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
)

// Factory regions.
const (
	RegionVietnam = "VN"
	RegionGlobal  = "GLOBAL"
)

// Transaction statuses. One PaymentTransaction row tracks one payment attempt.
const (
	StatusInitiated        = "initiated"
	StatusCallbackReceived = "callback_received"
	StatusSuccess          = "success"
	StatusFailed           = "failed"
	StatusInvalidSignature = "invalid_signature"
	StatusRefundPending    = "refund_pending"
	StatusRefunded         = "refunded"
)

// RefundWindowDays bounds how long after settlement a refund may be issued.
const RefundWindowDays = 30

// RefundProcessingDays is how long the gateway takes to settle an accepted
// refund; it feeds the ExpectedCompletion estimate.
const RefundProcessingDays = 7

var statusTransitions = map[string][]string{
	StatusInitiated:        {StatusCallbackReceived},
	StatusCallbackReceived: {StatusSuccess, StatusFailed, StatusInvalidSignature},
	StatusSuccess:          {StatusRefundPending},
	StatusRefundPending:    {StatusRefunded},
}

// CanTransitionTo reports whether the status machine allows moving a
// transaction from one status to another. failed, invalid_signature and
// refunded are terminal.
func CanTransitionTo(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsSettled reports whether a transaction already carries an outcome.
// Settled transactions treat further callbacks as replays.
func IsSettled(status string) bool {
	return status != StatusInitiated && status != StatusCallbackReceived
}

// PaymentRequest carries everything a domain service needs to start a payment
// attempt. Amounts are VND major units; the gateway adapter converts to minor
// units exactly once.
type PaymentRequest struct {
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency,omitempty"`
	BankCode   string `json:"bank_code,omitempty"`
	Language   string `json:"language,omitempty"`
	CustomerID int64  `json:"customer_id,omitempty"`
	ReturnURL  string `json:"return_url,omitempty"`
	ClientIP   string `json:"client_ip,omitempty"`
}

func (r *PaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("order_id", r.OrderID).Required()
	validator.Field("amount", r.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("currency", r.Currency).OneOf("VND")
	validator.Field("language", r.Language).OneOf("vn", "en")

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// PaymentResult is the outcome of a payment attempt. Gateway failures come
// back as failure-shaped results carrying a response code, never as raw
// transport errors.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	PaymentURL    string `json:"payment_url,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
	Message       string `json:"message,omitempty"`
}

type RefundRequest struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Reason        string `json:"reason"`
	RequestedBy   string `json:"requested_by"`
}

func (r *RefundRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("order_id", r.OrderID).Required()
	validator.Field("reason", r.Reason).Required().MaxLength(255)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type RefundResult struct {
	Success            bool       `json:"success"`
	RefundID           string     `json:"refund_id,omitempty"`
	Status             string     `json:"status,omitempty"`
	ExpectedCompletion *time.Time `json:"expected_completion,omitempty"`
	ErrorCode          string     `json:"error_code,omitempty"`
	Message            string     `json:"message,omitempty"`
}

type PaymentStatusResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	ResponseCode  string `json:"response_code,omitempty"`
	Message       string `json:"message,omitempty"`
}

// DomainService is the only payment abstraction the order and transport
// layers see. One implementation exists per payment method.
type DomainService interface {
	PaymentMethodName() string
	ProcessPayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error)
	ProcessRefund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
	GetPaymentStatus(ctx context.Context, orderID string) (*PaymentStatusResult, error)
	ValidateTransaction(ctx context.Context, transactionID string) (bool, error)
}

// Repository defines the data access methods for payment transactions.
type Repository interface {
	Create(txn *payment.PaymentTransaction) error
	GetByTxnRef(txnRef string) (*payment.PaymentTransaction, error)
	GetLatestByOrderID(orderID string) (*payment.PaymentTransaction, error)
	ListByStatus(status string) ([]*payment.PaymentTransaction, error)
	Update(txn *payment.PaymentTransaction) error
}

// Gateway is the slice of the VNPay adapter the payment services consume.
type Gateway interface {
	CreatePaymentURL(req vnpay.PaymentURLRequest) (*vnpay.PaymentURLResult, error)
	ValidateCallback(params map[string]string) bool
	QueryTransaction(ctx context.Context, req vnpay.QueryRequest) (*vnpay.QueryResult, error)
	Refund(ctx context.Context, req vnpay.RefundCall) (*vnpay.RefundCallResult, error)
}

// OrderAccessChecker lets the payment handler verify order ownership without
// depending on the order package.
type OrderAccessChecker interface {
	CanAccessOrder(ctx context.Context, customerID int64, orderID string) error
}
