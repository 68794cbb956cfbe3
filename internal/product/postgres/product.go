package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/frahmantamala/aims-commerce/internal"
	productDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/product"
	productpkg "github.com/frahmantamala/aims-commerce/internal/product"
)

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) productpkg.Repository {
	return &ProductRepository{
		db: db,
	}
}

const productColumns = `id, title, category, description, barcode, price, stock, image_url, is_active, created_at, updated_at`

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*productDatamodel.Product, error) {
	var p productDatamodel.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*productDatamodel.Product, error) {
	var products []*productDatamodel.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = true ORDER BY title ASC LIMIT $1 OFFSET $2`

	if err := r.db.SelectContext(ctx, &products, query, limit, offset); err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock only succeeds when enough stock remains, so concurrent
// checkouts cannot oversell. Zero rows affected means the guard refused.
func (r *ProductRepository) DecrementStock(ctx context.Context, id int64, quantity int) error {
	query := `UPDATE products
	          SET stock = stock - $2, updated_at = now()
	          WHERE id = $1 AND is_active = true AND stock >= $2`

	res, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrInsufficientStock
	}
	return nil
}

func (r *ProductRepository) IncrementStock(ctx context.Context, id int64, quantity int) error {
	query := `UPDATE products
	          SET stock = stock + $2, updated_at = now()
	          WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}
