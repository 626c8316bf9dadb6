package event

import (
	"encoding/json"
	"time"
)

const (
	// OrderStatusTopicPrefix is the per-order push channel. Subscriptions
	// are keyed by the public tracking id, never the internal order id,
	// so sequential ids are not leaked through subjects.
	OrderStatusTopicPrefix = "orders.status."

	// OrderStatusTopicWildcard matches every per-order channel; the SSE
	// bridge subscribes here and fans out per tracking id.
	OrderStatusTopicWildcard = "orders.status.>"

	EventOrderCreated           = "order.created"
	EventOrderStatusChanged     = "order.status.changed"
	EventOrderItemsAdded        = "order.items.added"
	EventOrderItemStatusChanged = "order.item.status.changed"
)

// OrderStatusTopic returns the push subject for a single order.
func OrderStatusTopic(trackingID string) string {
	return OrderStatusTopicPrefix + trackingID
}

// OrderStatusEvent is published on every order mutation. It carries
// enough summary fields for a tracker to render a confirmation view
// without an extra round-trip.
type OrderStatusEvent struct {
	EventType          string    `json:"event_type"`
	OccurredAt         time.Time `json:"occurred_at"`
	OrderID            int64     `json:"order_id"`
	TrackingID         string    `json:"tracking_id"`
	TableID            int64     `json:"table_id"`
	TableNumber        string    `json:"table_number,omitempty"`
	Status             string    `json:"status"`
	PaymentType        string    `json:"payment_type,omitempty"`
	Total              float64   `json:"total"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
}

// StatusMessage is one push event routed to a single tracking id,
// either an order-level or an item-level change. Payload carries the
// original bus bytes so relays forward exactly what was published.
type StatusMessage struct {
	EventType  string
	TrackingID string
	Payload    json.RawMessage
}

// OrderItemStatusEvent accompanies item-level workflow changes so
// customer views can reflect kitchen progress line by line.
type OrderItemStatusEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	OrderID     int64     `json:"order_id"`
	TrackingID  string    `json:"tracking_id"`
	OrderItemID int64     `json:"order_item_id"`
	DishName    string    `json:"dish_name,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	ItemStatus  string    `json:"item_status"`
}
