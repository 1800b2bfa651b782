package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfkarayel/eshop/internal/domain"
	pkgkafka "github.com/mfkarayel/eshop/pkg/kafka"
)

// Kafka topics for shop domain events.
const (
	TopicOrderCreated       = "eshop.order.created"
	TopicOrderStatusChanged = "eshop.order.status_changed"
	TopicOrderDeleted       = "eshop.order.deleted"
	TopicUserRegistered     = "eshop.user.registered"
)

const (
	aggregateTypeOrder = "order"
	aggregateTypeUser  = "user"
	source             = "eshop"
)

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Status      string   `json:"status"`
	LineItemIDs []string `json:"line_item_ids"`
	TotalPrice  int64    `json:"total_price"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderDeletedData is the payload for an order.deleted event.
type OrderDeletedData struct {
	OrderID          string   `json:"order_id"`
	LineItemIDs      []string `json:"line_item_ids"`
	FailedItemIDs    []string `json:"failed_item_ids,omitempty"`
	ItemsFullyPurged bool     `json:"items_fully_purged"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Producer publishes shop domain events to Kafka. A nil Producer is a no-op,
// so event publishing can be disabled in tests and local setups.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := OrderCreatedData{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		LineItemIDs: order.LineItemIDs,
		TotalPrice:  order.TotalPrice,
		City:        order.City,
		Country:     order.Country,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.ID, aggregateTypeOrder, source, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
	)

	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID, oldStatus, newStatus string) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, orderID, aggregateTypeOrder, source, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	return nil
}

// PublishOrderDeleted publishes an order.deleted event after the cascade has
// run, reporting any line items that survived the cleanup.
func (p *Producer) PublishOrderDeleted(ctx context.Context, orderID string, lineItemIDs, failedItemIDs []string) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := OrderDeletedData{
		OrderID:          orderID,
		LineItemIDs:      lineItemIDs,
		FailedItemIDs:    failedItemIDs,
		ItemsFullyPurged: len(failedItemIDs) == 0,
	}

	event, err := pkgkafka.NewEvent(TopicOrderDeleted, orderID, aggregateTypeOrder, source, data)
	if err != nil {
		return fmt.Errorf("create order.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderDeleted, event); err != nil {
		return fmt.Errorf("publish order.deleted event: %w", err)
	}

	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := UserRegisteredData{
		UserID: user.ID,
		Email:  user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, aggregateTypeUser, source, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	return nil
}
