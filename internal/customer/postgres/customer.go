package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/frahmantamala/aims-commerce/internal"
	customerDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/customer"
	customerpkg "github.com/frahmantamala/aims-commerce/internal/customer"
)

type CustomerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) customerpkg.Repository {
	return &CustomerRepository{
		db: db,
	}
}

const customerColumns = `id, email, password_hash, name, phone, address, is_active, created_at, updated_at`

// uniqueViolation is the Postgres class 23 code raised by the unique email index.
const uniqueViolation = "23505"

func (r *CustomerRepository) Create(ctx context.Context, dm *customerDatamodel.Customer) error {
	query := `INSERT INTO customers (email, password_hash, name, phone, address, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		dm.Email, dm.PasswordHash, dm.Name, dm.Phone, dm.Address, dm.IsActive,
	).Scan(&dm.ID, &dm.CreatedAt, &dm.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.ErrEmailAlreadyUsed
		}
		return err
	}
	return nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customerDatamodel.Customer, error) {
	var c customerDatamodel.Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`

	if err := r.db.GetContext(ctx, &c, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customerDatamodel.Customer, error) {
	var c customerDatamodel.Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}
