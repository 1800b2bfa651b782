package domain

import "time"

// MaxGalleryImages caps the number of gallery images per product.
const MaxGalleryImages = 10

// Product represents an item in the catalog. Price is stored in minor
// currency units.
type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	RichDescription string    `json:"rich_description,omitempty"`
	Image           string    `json:"image"`
	Images          []string  `json:"images"`
	Brand           string    `json:"brand,omitempty"`
	Price           int64     `json:"price"`
	CategoryID      string    `json:"category_id"`
	Category        *Category `json:"category,omitempty"`
	CountInStock    int       `json:"count_in_stock"`
	Rating          float64   `json:"rating"`
	NumReviews      int       `json:"num_reviews"`
	IsFeatured      bool      `json:"is_featured"`
	DateCreated     time.Time `json:"date_created"`
	UpdatedAt       time.Time `json:"updated_at"`
}
