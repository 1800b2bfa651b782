package domain

import "time"

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
)

// Order represents a placed customer order. LineItemIDs references line items
// stored independently of the order row; the order owns them by ID only.
type Order struct {
	ID               string     `json:"id"`
	LineItemIDs      []string   `json:"line_item_ids"`
	LineItems        []LineItem `json:"line_items,omitempty"`
	ShippingAddress1 string     `json:"shipping_address1"`
	ShippingAddress2 string     `json:"shipping_address2,omitempty"`
	City             string     `json:"city"`
	Zip              string     `json:"zip"`
	Country          string     `json:"country"`
	Phone            string     `json:"phone"`
	Status           string     `json:"status"`
	TotalPrice       int64      `json:"total_price"`
	UserID           string     `json:"user_id"`
	DateOrdered      time.Time  `json:"date_ordered"`
}

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCanceled,
	}
}

// IsValidOrderStatus checks if a status string is valid.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:    {OrderStatusProcessing, OrderStatusCanceled},
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusCanceled},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {},
		OrderStatusCanceled:   {},
	}
}

// CanTransitionTo checks if the order can move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
