package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mfkarayel/eshop/internal/domain"
	"github.com/mfkarayel/eshop/internal/repository"
	"github.com/mfkarayel/eshop/pkg/database"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
)

// ProductRepository implements product persistence using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, rich_description, image, images,
			brand, price, category_id, count_in_stock, rating, num_reviews, is_featured,
			date_created, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.RichDescription,
		p.Image,
		p.Images,
		p.Brand,
		p.Price,
		p.CategoryID,
		p.CountInStock,
		p.Rating,
		p.NumReviews,
		p.IsFeatured,
		p.DateCreated,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product with its category populated.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.rich_description, p.image, p.images,
			p.brand, p.price, p.category_id, p.count_in_stock, p.rating, p.num_reviews,
			p.is_featured, p.date_created, p.updated_at,
			c.id, c.name, c.icon, c.color, c.created_at, c.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`

	var (
		p domain.Product
		c domain.Category
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.RichDescription,
		&p.Image,
		&p.Images,
		&p.Brand,
		&p.Price,
		&p.CategoryID,
		&p.CountInStock,
		&p.Rating,
		&p.NumReviews,
		&p.IsFeatured,
		&p.DateCreated,
		&p.UpdatedAt,
		&c.ID,
		&c.Name,
		&c.Icon,
		&c.Color,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	p.Category = &c
	return &p, nil
}

// List returns products matching the filter, newest first.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if len(filter.CategoryIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("category_id = ANY($%d)", argIndex))
		args = append(args, filter.CategoryIDs)
		argIndex++
	}

	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("is_featured = $%d", argIndex))
		args = append(args, *filter.Featured)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limitClause := ""
	if filter.Limit > 0 {
		limitClause = fmt.Sprintf("LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	query := fmt.Sprintf(`
		SELECT id, name, description, rich_description, image, images, brand, price,
			category_id, count_in_stock, rating, num_reviews, is_featured,
			date_created, updated_at
		FROM products
		%s
		ORDER BY date_created DESC
		%s`, whereClause, limitClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.RichDescription,
			&p.Image,
			&p.Images,
			&p.Brand,
			&p.Price,
			&p.CategoryID,
			&p.CountInStock,
			&p.Rating,
			&p.NumReviews,
			&p.IsFeatured,
			&p.DateCreated,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// Update overwrites a product's mutable fields.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, rich_description = $4, image = $5,
			brand = $6, price = $7, category_id = $8, count_in_stock = $9,
			rating = $10, num_reviews = $11, is_featured = $12, updated_at = $13
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.RichDescription,
		p.Image,
		p.Brand,
		p.Price,
		p.CategoryID,
		p.CountInStock,
		p.Rating,
		p.NumReviews,
		p.IsFeatured,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// UpdateGallery replaces the product's gallery image list.
func (r *ProductRepository) UpdateGallery(ctx context.Context, id string, images []string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET images = $2, updated_at = now() WHERE id = $1`,
		id, images,
	)
	if err != nil {
		return fmt.Errorf("update product gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Count returns the total number of products.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}
