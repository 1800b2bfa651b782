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

const orderColumns = `id, line_item_ids, shipping_address1, shipping_address2,
	city, zip, country, phone, status, total_price, user_id, date_ordered`

// OrderRepository implements order persistence using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts an order row. The referenced line items were already
// committed by the caller before this runs.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (id, line_item_ids, shipping_address1, shipping_address2,
			city, zip, country, phone, status, total_price, user_id, date_ordered)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		o.ID,
		o.LineItemIDs,
		o.ShippingAddress1,
		o.ShippingAddress2,
		o.City,
		o.Zip,
		o.Country,
		o.Phone,
		o.Status,
		o.TotalPrice,
		o.UserID,
		o.DateOrdered,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by ID. Line items are resolved separately by
// the service layer.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	var o domain.Order
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.LineItemIDs,
		&o.ShippingAddress1,
		&o.ShippingAddress2,
		&o.City,
		&o.Zip,
		&o.Country,
		&o.Phone,
		&o.Status,
		&o.TotalPrice,
		&o.UserID,
		&o.DateOrdered,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	return &o, nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY date_ordered DESC`, orderColumns, whereClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.LineItemIDs,
			&o.ShippingAddress1,
			&o.ShippingAddress2,
			&o.City,
			&o.Zip,
			&o.Country,
			&o.Phone,
			&o.Status,
			&o.TotalPrice,
			&o.UserID,
			&o.DateOrdered,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus changes the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes the order row and returns the line item IDs it referenced.
// The order row goes first; the caller cleans up the items afterwards.
func (r *OrderRepository) Delete(ctx context.Context, id string) ([]string, error) {
	var lineItemIDs []string
	err := r.pool.QueryRow(ctx,
		`DELETE FROM orders WHERE id = $1 RETURNING line_item_ids`, id,
	).Scan(&lineItemIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("delete order: %w", err)
	}

	return lineItemIDs, nil
}

// Count returns the total number of orders.
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// TotalSales returns the sum of total_price across all orders.
func (r *OrderRepository) TotalSales(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_price), 0) FROM orders`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum order totals: %w", err)
	}
	return total, nil
}
