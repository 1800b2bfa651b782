package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mfkarayel/eshop/internal/domain"
	"github.com/mfkarayel/eshop/pkg/database"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
)

// LineItemRepository implements line item persistence using PostgreSQL.
// Each write commits on its own; line items are not created inside the
// transaction that writes the order referencing them.
type LineItemRepository struct {
	pool database.DBTX
}

// NewLineItemRepository creates a PostgreSQL-backed line item repository.
func NewLineItemRepository(pool database.DBTX) *LineItemRepository {
	return &LineItemRepository{pool: pool}
}

// Create inserts a line item.
func (r *LineItemRepository) Create(ctx context.Context, item *domain.LineItem) error {
	query := `
		INSERT INTO line_items (id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.ProductID,
		item.Quantity,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert line item: %w", err)
	}

	return nil
}

// GetByID retrieves a line item by ID.
func (r *LineItemRepository) GetByID(ctx context.Context, id string) (*domain.LineItem, error) {
	query := `SELECT id, product_id, quantity, created_at FROM line_items WHERE id = $1`

	var item domain.LineItem
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan line item: %w", err)
	}

	return &item, nil
}

// Delete removes a line item by ID. Deleting an absent item is not an error;
// the order cascade may race with concurrent cleanup.
func (r *LineItemRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM line_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	return nil
}
