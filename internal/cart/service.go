package cart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/aims-commerce/internal"
	cartDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/cart"
	"github.com/frahmantamala/aims-commerce/internal/product"
)

// Repository defines persistence for carts. A customer owns at most one cart,
// created lazily on first access.
type Repository interface {
	GetOrCreateByCustomer(customerID int64) (*cartDatamodel.Cart, error)
	UpsertItem(cartID, productID int64, quantity int) error
	UpdateItemQuantity(cartID, productID int64, quantity int) error
	RemoveItem(cartID, productID int64) error
	Clear(cartID int64) error
}

// ProductCatalog is the slice of the product service the cart needs: pricing
// for reads and availability gating for writes.
type ProductCatalog interface {
	GetByID(ctx context.Context, id int64) (*product.Product, error)
	EnsureAvailable(ctx context.Context, id int64, quantity int) (*product.Product, error)
}

type Service struct {
	repo    Repository
	catalog ProductCatalog
	logger  *slog.Logger
}

func NewService(repo Repository, catalog ProductCatalog, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// GetCart returns the customer's cart priced against the current catalog.
func (s *Service) GetCart(ctx context.Context, customerID int64) (*Cart, error) {
	dm, err := s.repo.GetOrCreateByCustomer(customerID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, dm)
}

// AddItem puts a product in the cart or tops up its quantity. The combined
// quantity is gated against current stock so the cart never promises more
// than the warehouse holds.
func (s *Service) AddItem(ctx context.Context, customerID int64, dto AddItemDTO) (*Cart, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetOrCreateByCustomer(customerID)
	if err != nil {
		return nil, err
	}

	quantity := dto.Quantity
	for _, row := range dm.Items {
		if row.ProductID == dto.ProductID {
			quantity += row.Quantity
			break
		}
	}

	if _, err := s.catalog.EnsureAvailable(ctx, dto.ProductID, quantity); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertItem(dm.ID, dto.ProductID, quantity); err != nil {
		s.logger.Error("failed to upsert cart item",
			"cart_id", dm.ID,
			"product_id", dto.ProductID,
			"error", err)
		return nil, err
	}

	return s.GetCart(ctx, customerID)
}

// UpdateItemQuantity replaces the quantity of an item already in the cart.
func (s *Service) UpdateItemQuantity(ctx context.Context, customerID, productID int64, dto UpdateItemDTO) (*Cart, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetOrCreateByCustomer(customerID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, row := range dm.Items {
		if row.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return nil, internal.ErrCartItemNotFound
	}

	if _, err := s.catalog.EnsureAvailable(ctx, productID, dto.Quantity); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateItemQuantity(dm.ID, productID, dto.Quantity); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, customerID)
}

// RemoveItem drops a product from the cart. Removing a product that is not in
// the cart is a no-op, matching DELETE semantics.
func (s *Service) RemoveItem(ctx context.Context, customerID, productID int64) (*Cart, error) {
	dm, err := s.repo.GetOrCreateByCustomer(customerID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RemoveItem(dm.ID, productID); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, customerID)
}

// Clear empties the cart. Order placement calls this after the cart has been
// snapshotted into order items.
func (s *Service) Clear(ctx context.Context, customerID int64) error {
	dm, err := s.repo.GetOrCreateByCustomer(customerID)
	if err != nil {
		return err
	}
	return s.repo.Clear(dm.ID)
}

// CheckoutLines prices the cart for order placement. An empty cart yields an
// empty slice, not an error; a product that left the catalog since it was
// added fails the checkout instead of being silently dropped.
func (s *Service) CheckoutLines(ctx context.Context, customerID int64) ([]CheckoutLine, error) {
	dm, err := s.repo.GetOrCreateByCustomer(customerID)
	if err != nil {
		return nil, err
	}

	lines := make([]CheckoutLine, 0, len(dm.Items))
	for _, row := range dm.Items {
		p, err := s.catalog.GetByID(ctx, row.ProductID)
		if err != nil {
			if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeProductNotFound {
				return nil, internal.NewConflictError(
					fmt.Sprintf("product %d is no longer sold, remove it from the cart", row.ProductID),
					internal.ErrCodeProductNotFound)
			}
			return nil, err
		}
		lines = append(lines, CheckoutLine{
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: p.Price,
			Quantity:  row.Quantity,
		})
	}
	return lines, nil
}

// hydrate prices the stored rows against the catalog. Rows whose product was
// pulled from the catalog are dropped from storage as well, so they cannot
// block a later checkout.
func (s *Service) hydrate(ctx context.Context, dm *cartDatamodel.Cart) (*Cart, error) {
	c := &Cart{
		ID:         dm.ID,
		CustomerID: dm.CustomerID,
		Items:      make([]Item, 0, len(dm.Items)),
		UpdatedAt:  dm.UpdatedAt,
	}

	for _, row := range dm.Items {
		p, err := s.catalog.GetByID(ctx, row.ProductID)
		if err != nil {
			if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeProductNotFound {
				s.logger.Info("dropping stale cart item",
					"cart_id", dm.ID,
					"product_id", row.ProductID)
				if removeErr := s.repo.RemoveItem(dm.ID, row.ProductID); removeErr != nil {
					s.logger.Error("failed to drop stale cart item",
						"cart_id", dm.ID,
						"product_id", row.ProductID,
						"error", removeErr)
				}
				continue
			}
			return nil, err
		}

		item := Item{
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: p.Price,
			Quantity:  row.Quantity,
			LineTotal: p.Price * int64(row.Quantity),
			InStock:   p.Available(row.Quantity),
		}
		c.Items = append(c.Items, item)
		c.Subtotal += item.LineTotal
	}

	return c, nil
}
