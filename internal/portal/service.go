package portal

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/quicktab/quicktab/internal/client"
	"github.com/quicktab/quicktab/pkg/enums/itemstatus"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
)

// ServiceAPI is the slice of the ordering client the floor staff view
// needs.
type ServiceAPI interface {
	ServiceTasks(ctx context.Context) (*client.ServiceTasks, error)
	UpdateItemStatus(ctx context.Context, itemID int64, itemStatus string) (*client.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status, cancellationReason string) (*client.OrderView, error)
	ClearAssistance(ctx context.Context, tableID int64) error
}

const servicePollInterval = 15 * time.Second

// ServiceView aggregates the floor staff task queues: dishes ready to
// run out, tables calling for help, and tabs awaiting settlement at
// the counter. Same optimistic-then-reconcile discipline as the
// kitchen view.
type ServiceView struct {
	api    ServiceAPI
	logger apt.Logger

	mu    sync.RWMutex
	tasks client.ServiceTasks

	cancel context.CancelFunc
}

func NewServiceView(api ServiceAPI, logger apt.Logger) *ServiceView {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &ServiceView{
		api:    api,
		logger: logger,
	}
}

func (v *ServiceView) Start(ctx context.Context) error {
	if err := v.Refresh(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	v.mu.Lock()
	v.cancel = cancel
	v.mu.Unlock()

	go func() {
		ticker := time.NewTicker(servicePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := v.Refresh(ctx); err != nil {
					v.logger.Error("service refresh failed", "error", err)
				}
			}
		}
	}()

	return nil
}

func (v *ServiceView) Stop(ctx context.Context) error {
	v.mu.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (v *ServiceView) Refresh(ctx context.Context) error {
	tasks, err := v.api.ServiceTasks(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.tasks = *tasks
	v.mu.Unlock()
	return nil
}

// Tasks returns a copy of the current queues.
func (v *ServiceView) Tasks() client.ServiceTasks {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := client.ServiceTasks{
		ReadyItems:       make([]*client.OrderItem, len(v.tasks.ReadyItems)),
		AssistanceTables: make([]*client.Table, len(v.tasks.AssistanceTables)),
		PaymentOrders:    make([]*client.OrderView, len(v.tasks.PaymentOrders)),
	}
	copy(out.ReadyItems, v.tasks.ReadyItems)
	copy(out.AssistanceTables, v.tasks.AssistanceTables)
	copy(out.PaymentOrders, v.tasks.PaymentOrders)
	return out
}

// DeliverItem marks a ready dish delivered and removes it from the
// run-out queue.
func (v *ServiceView) DeliverItem(ctx context.Context, itemID int64) error {
	v.mu.Lock()
	for i, item := range v.tasks.ReadyItems {
		if item.ID == itemID {
			v.tasks.ReadyItems = append(v.tasks.ReadyItems[:i], v.tasks.ReadyItems[i+1:]...)
			break
		}
	}
	v.mu.Unlock()

	if _, err := v.api.UpdateItemStatus(ctx, itemID, string(itemstatus.Delivered)); err != nil {
		v.reconcile(ctx)
		return err
	}
	return nil
}

// Settle completes a counter-paid tab.
func (v *ServiceView) Settle(ctx context.Context, orderID int64) error {
	v.mu.Lock()
	for i, o := range v.tasks.PaymentOrders {
		if o.ID == orderID {
			v.tasks.PaymentOrders = append(v.tasks.PaymentOrders[:i], v.tasks.PaymentOrders[i+1:]...)
			break
		}
	}
	v.mu.Unlock()

	if _, err := v.api.UpdateOrderStatus(ctx, orderID, string(orderstatus.Completed), ""); err != nil {
		v.reconcile(ctx)
		return err
	}
	return nil
}

// ClearAssistance acknowledges a table's help request.
func (v *ServiceView) ClearAssistance(ctx context.Context, tableID int64) error {
	v.mu.Lock()
	for i, t := range v.tasks.AssistanceTables {
		if t.ID == tableID {
			v.tasks.AssistanceTables = append(v.tasks.AssistanceTables[:i], v.tasks.AssistanceTables[i+1:]...)
			break
		}
	}
	v.mu.Unlock()

	if err := v.api.ClearAssistance(ctx, tableID); err != nil {
		v.reconcile(ctx)
		return err
	}
	return nil
}

func (v *ServiceView) reconcile(ctx context.Context) {
	if err := v.Refresh(ctx); err != nil {
		v.logger.Error("service reconcile failed", "error", err)
	}
}
