package portal

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/quicktab/quicktab/internal/client"
	"github.com/quicktab/quicktab/pkg/enums/itemstatus"
)

// KitchenAPI is the slice of the ordering client the kitchen view
// needs.
type KitchenAPI interface {
	KitchenQueue(ctx context.Context) ([]*client.OrderItem, error)
	UpdateItemStatus(ctx context.Context, itemID int64, itemStatus string) (*client.OrderItem, error)
}

const kitchenPollInterval = 15 * time.Second

// KitchenView is the kanban the kitchen display renders: every item
// still needing work, refreshed on a timer. Actions mutate the local
// copy immediately and fall back to a refetch when the server
// disagrees, so a stale card never sticks.
type KitchenView struct {
	api    KitchenAPI
	logger apt.Logger

	mu    sync.RWMutex
	items []*client.OrderItem

	cancel context.CancelFunc
}

func NewKitchenView(api KitchenAPI, logger apt.Logger) *KitchenView {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &KitchenView{
		api:    api,
		logger: logger,
	}
}

// Start primes the view and keeps it fresh on a poll loop until the
// context ends.
func (v *KitchenView) Start(ctx context.Context) error {
	if err := v.Refresh(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	v.mu.Lock()
	v.cancel = cancel
	v.mu.Unlock()

	go func() {
		ticker := time.NewTicker(kitchenPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := v.Refresh(ctx); err != nil {
					v.logger.Error("kitchen refresh failed", "error", err)
				}
			}
		}
	}()

	return nil
}

func (v *KitchenView) Stop(ctx context.Context) error {
	v.mu.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (v *KitchenView) Refresh(ctx context.Context) error {
	items, err := v.api.KitchenQueue(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.items = items
	v.mu.Unlock()
	return nil
}

// Items returns a copy of the current queue.
func (v *KitchenView) Items() []*client.OrderItem {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*client.OrderItem, len(v.items))
	copy(out, v.items)
	return out
}

// StartPreparation moves an item to IN_PROGRESS.
func (v *KitchenView) StartPreparation(ctx context.Context, itemID int64) error {
	return v.updateItem(ctx, itemID, itemstatus.InProgress)
}

// MarkReady moves an item to READY, which removes it from the queue.
func (v *KitchenView) MarkReady(ctx context.Context, itemID int64) error {
	return v.updateItem(ctx, itemID, itemstatus.Ready)
}

func (v *KitchenView) updateItem(ctx context.Context, itemID int64, next itemstatus.Status) error {
	// Mutate locally first so the card moves under the cook's finger.
	v.applyLocal(itemID, next)

	if _, err := v.api.UpdateItemStatus(ctx, itemID, string(next)); err != nil {
		// The server refused; a refetch puts the card back where the
		// server says it belongs.
		if refreshErr := v.Refresh(ctx); refreshErr != nil {
			v.logger.Error("kitchen reconcile failed", "error", refreshErr)
		}
		return err
	}
	return nil
}

func (v *KitchenView) applyLocal(itemID int64, next itemstatus.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, item := range v.items {
		if item.ID != itemID {
			continue
		}
		if next == itemstatus.Ready || next == itemstatus.Delivered {
			v.items = append(v.items[:i], v.items[i+1:]...)
		} else {
			updated := *item
			updated.ItemStatus = string(next)
			v.items[i] = &updated
		}
		return
	}
}
