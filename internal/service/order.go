package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mfkarayel/eshop/internal/domain"
	"github.com/mfkarayel/eshop/internal/event"
	"github.com/mfkarayel/eshop/internal/repository"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
)

// OrderService implements the business logic for order operations.
type OrderService struct {
	orders    repository.OrderRepository
	lineItems repository.LineItemRepository
	products  repository.ProductRepository
	producer  *event.Producer
	logger    *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	lineItems repository.LineItemRepository,
	products repository.ProductRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		lineItems: lineItems,
		products:  products,
		producer:  producer,
		logger:    logger,
	}
}

// PlaceOrderItemInput is one product/quantity pair in a placement request.
type PlaceOrderItemInput struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderInput holds the parameters for placing an order.
type PlaceOrderInput struct {
	UserID           string
	Items            []PlaceOrderItemInput
	ShippingAddress1 string
	ShippingAddress2 string
	City             string
	Zip              string
	Country          string
	Phone            string
	Status           string
}

// PlaceOrder places a new order. Line items are written first, concurrently
// and each committed on its own; the total is then computed from the current
// product prices, not from any price the client sent; finally the order row
// referencing the item IDs is written. If the later stages fail, the items
// already written are cleaned up best-effort.
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.InvalidInput("item quantity must be greater than zero")
		}
	}

	status := input.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			status, strings.Join(domain.ValidOrderStatuses(), ", ")))
	}

	// Every product must exist before any item is written.
	if err := s.checkProductsExist(ctx, input.Items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Stage one: write the line items concurrently. Each insert commits on
	// its own; there is no shared transaction with the order row.
	itemIDs := make([]string, len(input.Items))
	g, gctx := errgroup.WithContext(ctx)
	for i, itemInput := range input.Items {
		item := &domain.LineItem{
			ID:        uuid.New().String(),
			ProductID: itemInput.ProductID,
			Quantity:  itemInput.Quantity,
			CreatedAt: now,
		}
		itemIDs[i] = item.ID
		g.Go(func() error {
			if err := s.lineItems.Create(gctx, item); err != nil {
				return fmt.Errorf("create line item for product %s: %w", item.ProductID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cleanupLineItems(ctx, itemIDs)
		return nil, err
	}

	// Stage two: price each item from the product's current price.
	subtotals := make([]int64, len(itemIDs))
	g, gctx = errgroup.WithContext(ctx)
	for i, id := range itemIDs {
		g.Go(func() error {
			item, err := s.lineItems.GetByID(gctx, id)
			if err != nil {
				return fmt.Errorf("read back line item %s: %w", id, err)
			}
			product, err := s.products.GetByID(gctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("price line item %s: %w", id, err)
			}
			subtotals[i] = product.Price * int64(item.Quantity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cleanupLineItems(ctx, itemIDs)
		return nil, err
	}

	var total int64
	for _, sub := range subtotals {
		total += sub
	}

	order := &domain.Order{
		ID:               uuid.New().String(),
		LineItemIDs:      itemIDs,
		ShippingAddress1: input.ShippingAddress1,
		ShippingAddress2: input.ShippingAddress2,
		City:             input.City,
		Zip:              input.Zip,
		Country:          input.Country,
		Phone:            input.Phone,
		Status:           status,
		TotalPrice:       total,
		UserID:           input.UserID,
		DateOrdered:      now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.cleanupLineItems(ctx, itemIDs)
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int("items", len(itemIDs)),
		slog.Int64("total_price", order.TotalPrice),
	)

	return order, nil
}

// checkProductsExist verifies all referenced products concurrently.
func (s *OrderService) checkProductsExist(ctx context.Context, items []PlaceOrderItemInput) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			if _, err := s.products.GetByID(gctx, item.ProductID); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return apperrors.InvalidInput(fmt.Sprintf("product %s does not exist", item.ProductID))
				}
				return fmt.Errorf("check product %s: %w", item.ProductID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// cleanupLineItems removes items written during a failed placement.
// Failures here are logged, not returned; the placement error wins.
func (s *OrderService) cleanupLineItems(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.lineItems.Delete(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "orphaned line item left behind after failed placement",
				slog.String("line_item_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
}

// GetOrder retrieves an order and resolves its line items and their products
// concurrently. Item order in the response matches the order in which they
// were placed. A product that has been deleted since placement is left nil
// rather than failing the whole read.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	if err := s.resolveLineItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// resolveLineItems fills order.LineItems from its item IDs, resolving each
// item and its product concurrently. Response order matches placement order.
func (s *OrderService) resolveLineItems(ctx context.Context, order *domain.Order) error {
	items := make([]domain.LineItem, len(order.LineItemIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, itemID := range order.LineItemIDs {
		g.Go(func() error {
			item, err := s.lineItems.GetByID(gctx, itemID)
			if err != nil {
				return fmt.Errorf("resolve line item %s: %w", itemID, err)
			}

			product, err := s.products.GetByID(gctx, item.ProductID)
			switch {
			case err == nil:
				item.Product = product
			case errors.Is(err, apperrors.ErrNotFound):
				s.logger.WarnContext(gctx, "line item references a deleted product",
					slog.String("line_item_id", itemID),
					slog.String("product_id", item.ProductID),
				)
			default:
				return fmt.Errorf("resolve product %s: %w", item.ProductID, err)
			}

			items[i] = *item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	order.LineItems = items
	return nil
}

// ListOrders returns all orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListUserOrders returns a user's orders, newest first, with line items and
// products resolved the same way a single-order read resolves them.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx, repository.OrderFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	for i := range orders {
		if err := s.resolveLineItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateOrderStatus transitions an order to a new status with validation.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, newStatus string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			newStatus, strings.Join(domain.ValidOrderStatuses(), ", ")))
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	if !order.CanTransitionTo(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot transition from %q to %q", order.Status, newStatus))
	}

	oldStatus := order.Status

	if err := s.orders.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, newStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	order.Status = newStatus
	return order, nil
}

// DeleteOrder removes an order and then fans out deletion of its line items.
// The order row is removed first; a missing order is a not-found error and
// repeating the call is safe. Item deletions that fail leave the order gone
// and are reported in the returned error.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	lineItemIDs, err := s.orders.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	// Collect per-item failures instead of stopping at the first one; the
	// order row is already gone, so every deletable item should go too.
	failed := make([]string, 0)
	results := make([]error, len(lineItemIDs))
	var g errgroup.Group
	for i, itemID := range lineItemIDs {
		g.Go(func() error {
			results[i] = s.lineItems.Delete(ctx, itemID)
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if res != nil {
			failed = append(failed, lineItemIDs[i])
			s.logger.ErrorContext(ctx, "failed to delete line item during order cascade",
				slog.String("order_id", id),
				slog.String("line_item_id", lineItemIDs[i]),
				slog.String("error", res.Error()),
			)
		}
	}

	if err := s.producer.PublishOrderDeleted(ctx, id, lineItemIDs, failed); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", id),
		slog.Int("line_items", len(lineItemIDs)),
		slog.Int("failed_items", len(failed)),
	)

	if len(failed) > 0 {
		return fmt.Errorf("order deleted but %d of %d line items could not be removed: %s",
			len(failed), len(lineItemIDs), strings.Join(failed, ", "))
	}

	return nil
}

// CountOrders returns the total number of orders.
func (s *OrderService) CountOrders(ctx context.Context) (int, error) {
	count, err := s.orders.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// TotalSales returns the sum of all order totals.
func (s *OrderService) TotalSales(ctx context.Context) (int64, error) {
	total, err := s.orders.TotalSales(ctx)
	if err != nil {
		return 0, fmt.Errorf("total sales: %w", err)
	}
	return total, nil
}
