package product

import (
	"time"

	productDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/product"
)

// Catalog categories. AIMS sells physical media only.
const (
	CategoryBook = "book"
	CategoryCD   = "cd"
	CategoryDVD  = "dvd"
)

type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description *string   `json:"description,omitempty"`
	Barcode     string    `json:"barcode"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Available reports whether the requested quantity can be sold right now.
func (p *Product) Available(quantity int) bool {
	return p.IsActive && p.Stock >= quantity
}

func FromDataModel(p *productDatamodel.Product) *Product {
	return &Product{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		Description: p.Description,
		Barcode:     p.Barcode,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromDataModelSlice(products []*productDatamodel.Product) []*Product {
	result := make([]*Product, len(products))
	for i, p := range products {
		result[i] = FromDataModel(p)
	}
	return result
}
