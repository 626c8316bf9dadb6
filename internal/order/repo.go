package order

import (
	"context"

	"github.com/quicktab/quicktab/pkg/enums/itemstatus"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
)

type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id int64) (*Order, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*Order, error)
	// GetActiveByTable returns nil, nil when the table has no open tab.
	GetActiveByTable(ctx context.Context, tableID int64) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByTable(ctx context.Context, tableID int64) ([]*Order, error)
	ListByStatus(ctx context.Context, status orderstatus.Status) ([]*Order, error)
	Save(ctx context.Context, o *Order) error
}

type OrderItemRepo interface {
	Create(ctx context.Context, item *OrderItem) error
	Get(ctx context.Context, id int64) (*OrderItem, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*OrderItem, error)
	ListByStatuses(ctx context.Context, statuses []itemstatus.Status) ([]*OrderItem, error)
	Save(ctx context.Context, item *OrderItem) error
	Delete(ctx context.Context, id int64) error
}

// Sequencer hands out server-assigned integer ids.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}
