package domain

import "time"

// LineItem is a product/quantity pair written before the order that owns it
// exists. It carries no back-reference to an order.
type LineItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`

	// Product is filled on read paths that resolve references; it is never
	// persisted with the item.
	Product *Product `json:"product,omitempty"`
}
