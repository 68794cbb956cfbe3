package cart

import (
	"time"
)

// Cart is the customer's basket as served to the client. Cart rows store only
// product references and quantities; titles and prices are resolved against
// the live catalog on every read, so the customer always checks out at the
// current price.
type Cart struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Items      []Item    `json:"items"`
	Subtotal   int64     `json:"subtotal"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Item is one priced cart row. InStock reflects whether the stored quantity
// can still be fulfilled, so the client can flag rows that went stale since
// they were added.
type Item struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
	InStock   bool   `json:"in_stock"`
}

// CheckoutLine is a priced cart row handed to order placement. Lines are only
// produced when every product in the cart is still purchasable, so an order
// never snapshots an item the warehouse cannot ship.
type CheckoutLine struct {
	ProductID int64
	Title     string
	UnitPrice int64
	Quantity  int
}
