package product

import (
	"time"
)

// Product rows are read and mutated through sqlx, hence the db tags.
type Product struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Category    string    `db:"category"`
	Description *string   `db:"description"`
	Barcode     string    `db:"barcode"`
	Price       int64     `db:"price"`
	Stock       int       `db:"stock"`
	ImageURL    *string   `db:"image_url"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
