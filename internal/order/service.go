package order

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/frahmantamala/aims-commerce/internal"
)

// Repository defines the data access methods for orders. Create persists the
// order together with its items; Update only touches the order row.
type Repository interface {
	Create(o *Order) error
	GetByID(id int64) (*Order, error)
	ListByCustomer(customerID int64, limit, offset int) ([]*Order, error)
	Update(o *Order) error
}

// Service serves order reads. Writes go through the command handlers.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetOrderForCustomer(ctx context.Context, customerID, orderID int64) (*Order, error) {
	o, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		s.logger.Warn("order access denied",
			"order_id", orderID,
			"customer_id", customerID,
			"owner_id", o.CustomerID)
		return nil, internal.ErrUnauthorizedAccess
	}
	return o, nil
}

func (s *Service) ListOrdersForCustomer(ctx context.Context, customerID int64, limit, offset int) ([]*Order, error) {
	orders, err := s.repo.ListByCustomer(customerID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list orders", "error", err, "customer_id", customerID)
		return nil, err
	}
	return orders, nil
}

// CanAccessOrder verifies order ownership for the payment endpoints, which
// address orders by the string ID embedded in gateway references.
func (s *Service) CanAccessOrder(ctx context.Context, customerID int64, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return internal.ErrOrderNotFound
	}
	_, err = s.GetOrderForCustomer(ctx, customerID, id)
	return err
}

// CustomerIDForOrder resolves the owner of an order for notification fan-out.
func (s *Service) CustomerIDForOrder(ctx context.Context, orderID int64) (int64, error) {
	o, err := s.repo.GetByID(orderID)
	if err != nil {
		return 0, err
	}
	return o.CustomerID, nil
}
