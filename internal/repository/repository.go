package repository

import (
	"context"

	"github.com/mfkarayel/eshop/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	CategoryIDs []string
	Featured    *bool
	Limit       int
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID *string
	Status *string
}

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	UpdateGallery(ctx context.Context, id string, images []string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// LineItemRepository defines line item persistence operations. Line items
// commit independently of the orders that later reference them.
type LineItemRepository interface {
	Create(ctx context.Context, item *domain.LineItem) error
	GetByID(ctx context.Context, id string) (*domain.LineItem, error)
	Delete(ctx context.Context, id string) error
}

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status string) error

	// Delete removes the order row and returns the line item IDs it
	// referenced so the caller can fan out their cleanup.
	Delete(ctx context.Context, id string) ([]string, error)

	Count(ctx context.Context) (int, error)
	TotalSales(ctx context.Context) (int64, error)
}
