package postgres

import (
	"errors"
	"time"

	apperrors "github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/aims-commerce/internal/payment"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.Repository {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(txn *payment.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

func (r *PaymentRepository) GetByTxnRef(txnRef string) (*payment.PaymentTransaction, error) {
	var txn payment.PaymentTransaction
	err := r.db.Where("txn_ref = ?", txnRef).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *PaymentRepository) GetLatestByOrderID(orderID string) (*payment.PaymentTransaction, error) {
	var txn payment.PaymentTransaction
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *PaymentRepository) ListByStatus(status string) ([]*payment.PaymentTransaction, error) {
	var txns []*payment.PaymentTransaction
	err := r.db.Where("status = ?", status).Order("created_at ASC").Find(&txns).Error
	return txns, err
}

func (r *PaymentRepository) Update(txn *payment.PaymentTransaction) error {
	txn.UpdatedAt = time.Now()
	return r.db.Save(txn).Error
}
