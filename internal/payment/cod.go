package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/core/datamodel/payment"
)

// CODService settles payment on delivery. There is no gateway involved: the
// transaction is recorded as success at checkout and the courier collects.
type CODService struct {
	repo   Repository
	logger *slog.Logger
}

func NewCODService(repo Repository, logger *slog.Logger) *CODService {
	return &CODService{
		repo:   repo,
		logger: logger,
	}
}

func (s *CODService) PaymentMethodName() string {
	return MethodCOD
}

func (s *CODService) ProcessPayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if err := req.Validate(); err != nil {
		s.logger.Error("payment request validation failed", "error", err, "order_id", req.OrderID)
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "VND"
	}

	txnRef := "COD-" + uuid.New().String()
	now := time.Now()

	txn := &payment.PaymentTransaction{
		OrderID:       req.OrderID,
		TxnRef:        txnRef,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentMethod: MethodCOD,
		Status:        StatusSuccess,
		PaidAt:        &now,
	}

	if err := s.repo.Create(txn); err != nil {
		s.logger.Error("failed to persist payment transaction",
			"error", err,
			"order_id", req.OrderID,
			"txn_ref", txnRef)
		return nil, errors.NewInternalError("failed to persist payment transaction", err)
	}

	s.logger.Info("cash on delivery accepted",
		"order_id", req.OrderID,
		"txn_ref", txnRef,
		"amount", req.Amount)

	return &PaymentResult{
		Success:       true,
		TransactionID: txnRef,
		Message:       "payment will be collected on delivery",
	}, nil
}

func (s *CODService) ProcessRefund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	s.logger.Warn("refund requested for cash on delivery order", "order_id", req.OrderID)
	return &RefundResult{
		Success:   false,
		ErrorCode: string(errors.ErrCodeRefundNotAllowed),
		Message:   "cash payments are settled on delivery and cannot be refunded online",
	}, nil
}

// GetPaymentStatus echoes the stored transaction; there is no gateway to ask.
func (s *CODService) GetPaymentStatus(ctx context.Context, orderID string) (*PaymentStatusResult, error) {
	txn, err := s.repo.GetLatestByOrderID(orderID)
	if err != nil {
		return nil, err
	}

	return &PaymentStatusResult{
		Success:       txn.Status == StatusSuccess,
		TransactionID: txn.TxnRef,
		Message:       "cash on delivery transaction is " + txn.Status,
	}, nil
}

func (s *CODService) ValidateTransaction(ctx context.Context, transactionID string) (bool, error) {
	txn, err := s.repo.GetByTxnRef(transactionID)
	if err != nil {
		return false, err
	}
	return txn.Status == StatusSuccess, nil
}
