package postgres

import (
	"errors"

	apperrors "github.com/frahmantamala/aims-commerce/internal"
	orderDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/order"
	orderpkg "github.com/frahmantamala/aims-commerce/internal/order"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) orderpkg.Repository {
	return &OrderRepository{
		db: db,
	}
}

// Create persists the order and its items in one transaction. The generated
// IDs are written back onto the domain order.
func (r *OrderRepository) Create(o *orderpkg.Order) error {
	dm := orderpkg.ToDataModel(o)
	if err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(dm).Error
	}); err != nil {
		return err
	}

	o.ID = dm.ID
	for i := range dm.Items {
		if i < len(o.Items) {
			o.Items[i].ID = dm.Items[i].ID
		}
	}
	return nil
}

func (r *OrderRepository) GetByID(id int64) (*orderpkg.Order, error) {
	var dm orderDatamodel.Order
	err := r.db.Preload("Items").First(&dm, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return orderpkg.FromDataModel(&dm), nil
}

func (r *OrderRepository) ListByCustomer(customerID int64, limit, offset int) ([]*orderpkg.Order, error) {
	var dms []*orderDatamodel.Order
	err := r.db.Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return orderpkg.FromDataModelSlice(dms), nil
}

// Update persists order fields only; items are immutable once placed.
func (r *OrderRepository) Update(o *orderpkg.Order) error {
	dm := orderpkg.ToDataModel(o)
	return r.db.Omit("Items").Save(dm).Error
}
