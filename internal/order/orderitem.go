package order

import (
	"time"

	"github.com/quicktab/quicktab/pkg/enums/itemstatus"
)

// OrderItem is one line within an order. Dish name and unit price are
// captured at add time so later menu edits do not rewrite old tabs.
// TableNumber is denormalized for the kitchen display.
type OrderItem struct {
	ID          int64             `json:"id" bson:"_id"`
	OrderID     int64             `json:"order_id" bson:"order_id"`
	DishID      int64             `json:"dish_id" bson:"dish_id"`
	DishName    string            `json:"dish_name" bson:"dish_name"`
	UnitPrice   float64           `json:"unit_price" bson:"unit_price"`
	Quantity    int               `json:"quantity" bson:"quantity"`
	LineTotal   float64           `json:"line_total" bson:"line_total"`
	Status      itemstatus.Status `json:"item_status" bson:"item_status"`
	TableNumber string            `json:"table_number,omitempty" bson:"table_number,omitempty"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
}

func NewOrderItem() *OrderItem {
	return &OrderItem{
		Status: itemstatus.NeedsPreparation,
	}
}

func (oi *OrderItem) BeforeCreate() {
	oi.CreatedAt = time.Now()
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) BeforeUpdate() {
	oi.UpdatedAt = time.Now()
}

// SetQuantity adjusts the quantity and keeps the line total in step.
// Quantity must stay positive; a zero-quantity line is removed by the
// caller, never stored.
func (oi *OrderItem) SetQuantity(quantity int) {
	oi.Quantity = quantity
	oi.LineTotal = oi.UnitPrice * float64(quantity)
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) MarkInProgress() {
	oi.Status = itemstatus.InProgress
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) MarkReady() {
	oi.Status = itemstatus.Ready
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) MarkDelivered() {
	now := time.Now()
	oi.Status = itemstatus.Delivered
	oi.DeliveredAt = &now
	oi.UpdatedAt = now
}

// sumLineTotals is the single place the order total is derived from
// its lines. The stored order total always comes through here.
func sumLineTotals(items []*OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.LineTotal
	}
	return total
}

func (oi *OrderItem) ApplyStatus(next itemstatus.Status) {
	switch next {
	case itemstatus.InProgress:
		oi.MarkInProgress()
	case itemstatus.Ready:
		oi.MarkReady()
	case itemstatus.Delivered:
		oi.MarkDelivered()
	default:
		oi.Status = next
		oi.BeforeUpdate()
	}
}
