package product

// ProductResponse is the API shape of one catalog entry. Stock is exposed as
// a coarse availability flag, not the exact count.
type ProductResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Description *string `json:"description,omitempty"`
	Barcode     string  `json:"barcode"`
	Price       int64   `json:"price"`
	InStock     bool    `json:"in_stock"`
	ImageURL    *string `json:"image_url,omitempty"`
}

func ToResponse(p *Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		Description: p.Description,
		Barcode:     p.Barcode,
		Price:       p.Price,
		InStock:     p.Stock > 0,
		ImageURL:    p.ImageURL,
	}
}

func ToResponseSlice(products []*Product) []*ProductResponse {
	result := make([]*ProductResponse, len(products))
	for i, p := range products {
		result[i] = ToResponse(p)
	}
	return result
}
