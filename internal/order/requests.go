package order

import (
	"github.com/quicktab/quicktab/internal/tables"
)

type ItemRequest struct {
	DishID   int64 `json:"dish_id" validate:"required"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type OrderCreateRequest struct {
	TableID     int64         `json:"table_id" validate:"required"`
	Items       []ItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentType string        `json:"payment_type" validate:"omitempty,oneof=ONLINE PAY_AT_COUNTER"`
	Notes       string        `json:"notes"`
}

type OrderAppendRequest struct {
	Items []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderStatusUpdateRequest struct {
	Status             string `json:"status" validate:"required"`
	CancellationReason string `json:"cancellation_reason"`
}

type ItemStatusUpdateRequest struct {
	ItemStatus string `json:"item_status" validate:"required"`
}

// OrderView is the order plus its lines, the shape every mutating
// endpoint returns so clients can atomically replace their cached
// total with the server-computed one.
type OrderView struct {
	Order
	Items []*OrderItem `json:"items"`
}

// ServiceTasks aggregates the three staff queues in one read.
type ServiceTasks struct {
	ReadyItems       []*OrderItem    `json:"ready_items"`
	AssistanceTables []*tables.Table `json:"assistance_tables"`
	PaymentOrders    []*OrderView    `json:"payment_orders"`
}
