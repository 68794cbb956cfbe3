package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/core/datamodel/payment"
	"github.com/frahmantamala/aims-commerce/internal/vnpay"
)

// VNPayService drives redirect payments through the VNPay gateway. Expected
// gateway failures surface as failure-shaped results; only persistence
// problems come back as errors.
type VNPayService struct {
	gateway Gateway
	repo    Repository
	logger  *slog.Logger
}

func NewVNPayService(gateway Gateway, repo Repository, logger *slog.Logger) *VNPayService {
	return &VNPayService{
		gateway: gateway,
		repo:    repo,
		logger:  logger,
	}
}

func (s *VNPayService) PaymentMethodName() string {
	return MethodVNPay
}

// ProcessPayment builds the signed redirect URL and records the attempt as an
// initiated transaction. The outcome arrives later through the callback.
func (s *VNPayService) ProcessPayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if err := req.Validate(); err != nil {
		s.logger.Error("payment request validation failed", "error", err, "order_id", req.OrderID)
		return nil, err
	}

	created, err := s.gateway.CreatePaymentURL(vnpay.PaymentURLRequest{
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		BankCode:  req.BankCode,
		Locale:    req.Language,
		ClientIP:  req.ClientIP,
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		s.logger.Error("payment URL creation failed", "error", err, "order_id", req.OrderID)
		return failureResult(vnpay.CodeUnknownError), nil
	}

	currency := req.Currency
	if currency == "" {
		currency = "VND"
	}

	txn := &payment.PaymentTransaction{
		OrderID:       req.OrderID,
		TxnRef:        created.TxnRef,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentMethod: MethodVNPay,
		Status:        StatusInitiated,
	}
	if req.BankCode != "" {
		txn.BankCode = &req.BankCode
	}

	if err := s.repo.Create(txn); err != nil {
		s.logger.Error("failed to persist payment transaction",
			"error", err,
			"order_id", req.OrderID,
			"txn_ref", created.TxnRef)
		return nil, errors.NewInternalError("failed to persist payment transaction", err)
	}

	s.logger.Info("payment initiated",
		"order_id", req.OrderID,
		"txn_ref", created.TxnRef,
		"amount", req.Amount,
		"expires_at", created.ExpiresAt)

	return &PaymentResult{
		Success:       true,
		TransactionID: created.TxnRef,
		PaymentURL:    created.PaymentURL,
	}, nil
}

// ProcessRefund issues a full refund for the latest settled transaction of an
// order. Eligibility is checked before any gateway call; an ineligible or
// rejected refund is a failure result, not an error, so callers can keep the
// order untouched and retry later.
func (s *VNPayService) ProcessRefund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	if err := req.Validate(); err != nil {
		s.logger.Error("refund request validation failed", "error", err, "order_id", req.OrderID)
		return nil, err
	}

	txn, err := s.repo.GetLatestByOrderID(req.OrderID)
	if err != nil {
		s.logger.Error("no transaction found for refund", "error", err, "order_id", req.OrderID)
		return nil, err
	}

	if txn.Status != StatusSuccess {
		s.logger.Warn("refund rejected: transaction not refundable",
			"order_id", req.OrderID,
			"txn_ref", txn.TxnRef,
			"status", txn.Status)
		return &RefundResult{
			Success:   false,
			ErrorCode: string(errors.ErrCodeRefundNotAllowed),
			Message:   fmt.Sprintf("transaction in status %s cannot be refunded", txn.Status),
		}, nil
	}

	settledAt := txn.CreatedAt
	if txn.PaidAt != nil {
		settledAt = *txn.PaidAt
	}
	if time.Since(settledAt) > RefundWindowDays*24*time.Hour {
		s.logger.Warn("refund rejected: outside refund window",
			"order_id", req.OrderID,
			"txn_ref", txn.TxnRef,
			"settled_at", settledAt)
		return &RefundResult{
			Success:   false,
			ErrorCode: string(errors.ErrCodeRefundNotAllowed),
			Message:   fmt.Sprintf("refunds are only accepted within %d days of payment", RefundWindowDays),
		}, nil
	}

	if req.Amount != 0 && req.Amount != txn.Amount {
		return &RefundResult{
			Success:   false,
			ErrorCode: string(errors.ErrCodeInvalidAmount),
			Message:   "only full refunds are supported",
		}, nil
	}

	call := vnpay.RefundCall{
		TxnRef:          txn.TxnRef,
		Amount:          txn.Amount,
		TransactionDate: vnpay.FormatDate(settledAt),
		CreatedBy:       req.RequestedBy,
		Reason:          req.Reason,
	}
	if txn.GatewayTransactionNo != nil {
		call.TransactionNo = *txn.GatewayTransactionNo
	}

	res, err := s.gateway.Refund(ctx, call)
	if err != nil {
		s.logger.Error("refund call failed", "error", err, "order_id", req.OrderID, "txn_ref", txn.TxnRef)
		return &RefundResult{
			Success:   false,
			ErrorCode: vnpay.CodeUnknownError,
			Message:   "payment gateway unreachable, refund was not submitted",
		}, nil
	}

	if !vnpay.IsSuccessCode(res.ResponseCode) {
		s.logger.Warn("refund rejected by gateway",
			"order_id", req.OrderID,
			"txn_ref", txn.TxnRef,
			"response_code", res.ResponseCode)
		return &RefundResult{
			Success:   false,
			ErrorCode: res.ResponseCode,
			Message:   vnpay.ResponseMessage(res.ResponseCode),
		}, nil
	}

	refundID := uuid.New().String()
	now := time.Now()
	txn.Status = StatusRefundPending
	txn.RefundID = &refundID
	txn.UpdatedAt = now

	if err := s.repo.Update(txn); err != nil {
		s.logger.Error("failed to record refund",
			"error", err,
			"order_id", req.OrderID,
			"txn_ref", txn.TxnRef,
			"refund_id", refundID)
		return nil, errors.NewInternalError("failed to record refund", err)
	}

	expected := now.Add(RefundProcessingDays * 24 * time.Hour)

	s.logger.Info("refund accepted by gateway",
		"order_id", req.OrderID,
		"txn_ref", txn.TxnRef,
		"refund_id", refundID,
		"amount", txn.Amount)

	return &RefundResult{
		Success:            true,
		RefundID:           refundID,
		Status:             "pending",
		ExpectedCompletion: &expected,
		Message:            "refund accepted and pending settlement",
	}, nil
}

// GetPaymentStatus asks the gateway for the live state of the latest
// transaction on an order.
func (s *VNPayService) GetPaymentStatus(ctx context.Context, orderID string) (*PaymentStatusResult, error) {
	txn, err := s.repo.GetLatestByOrderID(orderID)
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.QueryTransaction(ctx, vnpay.QueryRequest{
		TxnRef:          txn.TxnRef,
		TransactionDate: vnpay.FormatDate(txn.CreatedAt),
	})
	if err != nil {
		s.logger.Error("status query failed", "error", err, "order_id", orderID, "txn_ref", txn.TxnRef)
		return &PaymentStatusResult{
			Success:       false,
			TransactionID: txn.TxnRef,
			ResponseCode:  vnpay.CodeUnknownError,
			Message:       vnpay.ResponseMessage(vnpay.CodeUnknownError),
		}, nil
	}

	message := res.Message
	if message == "" {
		message = vnpay.ResponseMessage(res.ResponseCode)
	}

	return &PaymentStatusResult{
		Success:       vnpay.IsSuccessCode(res.ResponseCode) && res.TransactionStatus == vnpay.CodeSuccess,
		TransactionID: txn.TxnRef,
		ResponseCode:  res.ResponseCode,
		Message:       message,
	}, nil
}

// ValidateTransaction cross-checks a locally successful transaction against
// the gateway.
func (s *VNPayService) ValidateTransaction(ctx context.Context, transactionID string) (bool, error) {
	txn, err := s.repo.GetByTxnRef(transactionID)
	if err != nil {
		return false, err
	}
	if txn.Status != StatusSuccess {
		return false, nil
	}

	res, err := s.gateway.QueryTransaction(ctx, vnpay.QueryRequest{
		TxnRef:          txn.TxnRef,
		TransactionDate: vnpay.FormatDate(txn.CreatedAt),
	})
	if err != nil {
		return false, errors.NewGatewayError("transaction verification failed", err)
	}

	return vnpay.IsSuccessCode(res.ResponseCode) && res.TransactionStatus == vnpay.CodeSuccess, nil
}

// FinalizeRefunds flips refund_pending transactions to refunded once the
// gateway stops reporting them as plain settled payments. The reconcile
// command runs this periodically; failures are skipped and retried on the
// next run.
func (s *VNPayService) FinalizeRefunds(ctx context.Context) (int, error) {
	txns, err := s.repo.ListByStatus(StatusRefundPending)
	if err != nil {
		return 0, err
	}

	finalized := 0
	for _, txn := range txns {
		settledAt := txn.CreatedAt
		if txn.PaidAt != nil {
			settledAt = *txn.PaidAt
		}

		res, err := s.gateway.QueryTransaction(ctx, vnpay.QueryRequest{
			TxnRef:          txn.TxnRef,
			TransactionDate: vnpay.FormatDate(settledAt),
		})
		if err != nil {
			s.logger.Warn("refund check failed, will retry on next run", "error", err, "txn_ref", txn.TxnRef)
			continue
		}

		// Still reported as a settled payment means the refund has not been
		// applied on the gateway side yet.
		if !vnpay.IsSuccessCode(res.ResponseCode) || res.TransactionStatus == vnpay.CodeSuccess {
			continue
		}

		now := time.Now()
		txn.Status = StatusRefunded
		txn.RefundedAt = &now
		txn.UpdatedAt = now
		if err := s.repo.Update(txn); err != nil {
			s.logger.Error("failed to mark transaction refunded", "error", err, "txn_ref", txn.TxnRef)
			continue
		}

		finalized++
		s.logger.Info("refund finalized", "txn_ref", txn.TxnRef, "order_id", txn.OrderID)
	}

	return finalized, nil
}

// StaleInitiated lists transactions stuck in initiated longer than the given
// age. Their gateway sessions have expired; they are reported, never mutated,
// since initiated only ever moves on a callback.
func (s *VNPayService) StaleInitiated(olderThan time.Duration) ([]*payment.PaymentTransaction, error) {
	txns, err := s.repo.ListByStatus(StatusInitiated)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-olderThan)
	var stale []*payment.PaymentTransaction
	for _, txn := range txns {
		if txn.CreatedAt.Before(cutoff) {
			stale = append(stale, txn)
		}
	}
	return stale, nil
}

func failureResult(code string) *PaymentResult {
	return &PaymentResult{
		Success:   false,
		ErrorCode: code,
		Message:   vnpay.ResponseMessage(code),
	}
}
