package order

import (
	"context"
	"sync"

	"github.com/quicktab/quicktab/internal/menu"
	"github.com/quicktab/quicktab/internal/tables"
	"github.com/quicktab/quicktab/pkg/enums/itemstatus"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
)

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu          sync.Mutex
	Published   []string
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, topic)
	return nil
}

// MockOrderRepo is a mock implementation of OrderRepo for testing
type MockOrderRepo struct {
	mu         sync.RWMutex
	orders     map[int64]*Order
	CreateFunc func(ctx context.Context, o *Order) error
	SaveFunc   func(ctx context.Context, o *Order) error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{
		orders: make(map[int64]*Order),
	}
}

func (m *MockOrderRepo) Create(ctx context.Context, o *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *o
	m.orders[o.ID] = &copied
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *o
	return &copied, nil
}

func (m *MockOrderRepo) GetByTrackingID(ctx context.Context, trackingID string) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.TrackingID == trackingID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepo) GetActiveByTable(ctx context.Context, tableID int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.TableID == tableID && o.Status.Active() {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepo) List(ctx context.Context) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		copied := *o
		result = append(result, &copied)
	}
	return result, nil
}

func (m *MockOrderRepo) ListByTable(ctx context.Context, tableID int64) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if o.TableID == tableID {
			copied := *o
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByStatus(ctx context.Context, status orderstatus.Status) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if o.Status == status {
			copied := *o
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) Save(ctx context.Context, o *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *o
	m.orders[o.ID] = &copied
	return nil
}

// MockOrderItemRepo is a mock implementation of OrderItemRepo for testing
type MockOrderItemRepo struct {
	mu         sync.RWMutex
	items      map[int64]*OrderItem
	CreateFunc func(ctx context.Context, item *OrderItem) error
}

func NewMockOrderItemRepo() *MockOrderItemRepo {
	return &MockOrderItemRepo{
		items: make(map[int64]*OrderItem),
	}
}

func (m *MockOrderItemRepo) Create(ctx context.Context, item *OrderItem) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *MockOrderItemRepo) store(item *OrderItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *item
	m.items[item.ID] = &copied
}

func (m *MockOrderItemRepo) Get(ctx context.Context, id int64) (*OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (m *MockOrderItemRepo) ListByOrder(ctx context.Context, orderID int64) ([]*OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*OrderItem
	for _, item := range m.items {
		if item.OrderID == orderID {
			copied := *item
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockOrderItemRepo) ListByStatuses(ctx context.Context, statuses []itemstatus.Status) ([]*OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*OrderItem
	for _, item := range m.items {
		for _, s := range statuses {
			if item.Status == s {
				copied := *item
				result = append(result, &copied)
				break
			}
		}
	}
	return result, nil
}

func (m *MockOrderItemRepo) Save(ctx context.Context, item *OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *MockOrderItemRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// MockSequencer hands out ids from an in-memory counter
type MockSequencer struct {
	mu   sync.Mutex
	next map[string]int64
}

func NewMockSequencer() *MockSequencer {
	return &MockSequencer{
		next: make(map[string]int64),
	}
}

func (m *MockSequencer) Next(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next[name]++
	return m.next[name], nil
}

// MockDishRepo is a mock implementation of menu.DishRepo for testing
type MockDishRepo struct {
	mu     sync.RWMutex
	dishes map[int64]*menu.Dish
}

func NewMockDishRepo() *MockDishRepo {
	return &MockDishRepo{
		dishes: make(map[int64]*menu.Dish),
	}
}

func (m *MockDishRepo) Add(d *menu.Dish) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dishes[d.ID] = d
}

func (m *MockDishRepo) Create(ctx context.Context, d *menu.Dish) error {
	m.Add(d)
	return nil
}

func (m *MockDishRepo) Get(ctx context.Context, id int64) (*menu.Dish, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dishes[id]
	if !ok {
		return nil, nil
	}
	return d, nil
}

func (m *MockDishRepo) List(ctx context.Context) ([]*menu.Dish, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*menu.Dish
	for _, d := range m.dishes {
		result = append(result, d)
	}
	return result, nil
}

func (m *MockDishRepo) ListAvailable(ctx context.Context) ([]*menu.Dish, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*menu.Dish
	for _, d := range m.dishes {
		if d.Available {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *MockDishRepo) Save(ctx context.Context, d *menu.Dish) error {
	m.Add(d)
	return nil
}

// MockTableRepo is a mock implementation of tables.Repo for testing
type MockTableRepo struct {
	mu     sync.RWMutex
	tables map[int64]*tables.Table
}

func NewMockTableRepo() *MockTableRepo {
	return &MockTableRepo{
		tables: make(map[int64]*tables.Table),
	}
}

func (m *MockTableRepo) Add(t *tables.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.ID] = t
}

func (m *MockTableRepo) Create(ctx context.Context, t *tables.Table) error {
	m.Add(t)
	return nil
}

func (m *MockTableRepo) Get(ctx context.Context, id int64) (*tables.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (m *MockTableRepo) GetByQRCode(ctx context.Context, qrCode string) (*tables.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tables {
		if t.QRCode == qrCode {
			return t, nil
		}
	}
	return nil, nil
}

func (m *MockTableRepo) List(ctx context.Context) ([]*tables.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*tables.Table
	for _, t := range m.tables {
		result = append(result, t)
	}
	return result, nil
}

func (m *MockTableRepo) ListAssistanceRequested(ctx context.Context) ([]*tables.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*tables.Table
	for _, t := range m.tables {
		if t.AssistanceRequested {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockTableRepo) Save(ctx context.Context, t *tables.Table) error {
	m.Add(t)
	return nil
}
