package product

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/aims-commerce/internal"
	productDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/product"
)

// Repository defines the data access methods for the catalog. Stock moves
// through guarded updates so two checkouts can never oversell a product.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*productDatamodel.Product, error)
	List(ctx context.Context, limit, offset int) ([]*productDatamodel.Product, error)
	DecrementStock(ctx context.Context, id int64, quantity int) error
	IncrementStock(ctx context.Context, id int64, quantity int) error
}

// Service serves catalog reads and stock movements. The catalog itself is
// maintained by the seeder; there is no product write API.
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

func (s *Service) GetByID(ctx context.Context, id int64) (*Product, error) {
	dm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dm.IsActive {
		return nil, internal.ErrProductNotFound
	}
	return FromDataModel(dm), nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Product, error) {
	dms, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list products", "error", err)
		return nil, err
	}
	return FromDataModelSlice(dms), nil
}

// EnsureAvailable loads a product and verifies the requested quantity can be
// sold. Inactive products are reported as not found.
func (s *Service) EnsureAvailable(ctx context.Context, id int64, quantity int) (*Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Available(quantity) {
		s.logger.Warn("product unavailable",
			"product_id", id,
			"requested", quantity,
			"stock", p.Stock)
		return nil, internal.ErrInsufficientStock
	}
	return p, nil
}

// DecrementStock reserves stock for checkout. The repository refuses the
// update when stock would go negative, which is mapped onto the typed
// insufficient-stock error.
func (s *Service) DecrementStock(ctx context.Context, id int64, quantity int) error {
	if err := s.repo.DecrementStock(ctx, id, quantity); err != nil {
		s.logger.Warn("stock reservation failed",
			"product_id", id,
			"quantity", quantity,
			"error", err)
		return err
	}
	return nil
}

// IncrementStock releases stock back after a cancellation or a failed
// placement.
func (s *Service) IncrementStock(ctx context.Context, id int64, quantity int) error {
	if err := s.repo.IncrementStock(ctx, id, quantity); err != nil {
		s.logger.Error("failed to release stock",
			"product_id", id,
			"quantity", quantity,
			"error", err)
		return err
	}
	return nil
}
