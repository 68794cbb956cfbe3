package postgres

import (
	"errors"
	"time"

	apperrors "github.com/frahmantamala/aims-commerce/internal"
	cartpkg "github.com/frahmantamala/aims-commerce/internal/cart"
	cartDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/cart"
	"gorm.io/gorm"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) cartpkg.Repository {
	return &CartRepository{
		db: db,
	}
}

// GetOrCreateByCustomer loads the customer's cart with its items, creating an
// empty cart on first access.
func (r *CartRepository) GetOrCreateByCustomer(customerID int64) (*cartDatamodel.Cart, error) {
	var dm cartDatamodel.Cart
	err := r.db.Preload("Items").Where("customer_id = ?", customerID).First(&dm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		dm = cartDatamodel.Cart{CustomerID: customerID}
		if createErr := r.db.Create(&dm).Error; createErr != nil {
			// Two first requests can race on the unique customer index; the
			// loser picks up the winner's cart.
			if retryErr := r.db.Preload("Items").Where("customer_id = ?", customerID).First(&dm).Error; retryErr != nil {
				return nil, createErr
			}
		}
		return &dm, nil
	}
	if err != nil {
		return nil, err
	}
	return &dm, nil
}

// UpsertItem sets the quantity for a product row, creating the row when the
// product is not in the cart yet.
func (r *CartRepository) UpsertItem(cartID, productID int64, quantity int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var row cartDatamodel.CartItem
		err := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if createErr := tx.Create(&cartDatamodel.CartItem{
				CartID:    cartID,
				ProductID: productID,
				Quantity:  quantity,
			}).Error; createErr != nil {
				return createErr
			}
			return touchCart(tx, cartID)
		}
		if err != nil {
			return err
		}
		if updateErr := tx.Model(&row).Update("quantity", quantity).Error; updateErr != nil {
			return updateErr
		}
		return touchCart(tx, cartID)
	})
}

func (r *CartRepository) UpdateItemQuantity(cartID, productID int64, quantity int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&cartDatamodel.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrCartItemNotFound
		}
		return touchCart(tx, cartID)
	})
}

// RemoveItem deletes a product row. Deleting a row that does not exist is not
// an error.
func (r *CartRepository) RemoveItem(cartID, productID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).
			Delete(&cartDatamodel.CartItem{}).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
}

func (r *CartRepository) Clear(cartID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).
			Delete(&cartDatamodel.CartItem{}).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
}

// touchCart bumps the cart's updated_at so the view reflects item mutations.
func touchCart(tx *gorm.DB, cartID int64) error {
	return tx.Model(&cartDatamodel.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
}
