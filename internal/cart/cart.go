package cart

import (
	"sync"

	"github.com/quicktab/quicktab/internal/client"
)

// Line is one dish in the cart with its captured name and price.
type Line struct {
	DishID    int64
	DishName  string
	UnitPrice float64
	Quantity  int
}

func (l Line) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart accumulates dish selections before checkout. Lines keep
// insertion order; adjusting a quantity to zero removes the line. The
// cart total is advisory only, the server recomputes it from stored
// prices at order time.
type Cart struct {
	mu    sync.Mutex
	lines []*Line
	index map[int64]*Line
}

func New() *Cart {
	return &Cart{
		index: make(map[int64]*Line),
	}
}

// Add puts one unit of the dish in the cart, merging with an existing
// line for the same dish.
func (c *Cart) Add(dish *client.Dish) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.index[dish.ID]; ok {
		line.Quantity++
		return
	}

	line := &Line{
		DishID:    dish.ID,
		DishName:  dish.Name,
		UnitPrice: dish.Price,
		Quantity:  1,
	}
	c.lines = append(c.lines, line)
	c.index[dish.ID] = line
}

func (c *Cart) Increment(dishID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.index[dishID]; ok {
		line.Quantity++
	}
}

// Decrement lowers a line's quantity by one and drops the line when it
// reaches zero.
func (c *Cart) Decrement(dishID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.index[dishID]
	if !ok {
		return
	}
	line.Quantity--
	if line.Quantity <= 0 {
		c.removeLocked(dishID)
	}
}

func (c *Cart) Remove(dishID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(dishID)
}

func (c *Cart) removeLocked(dishID int64) {
	delete(c.index, dishID)
	for i, line := range c.lines {
		if line.DishID == dishID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, line := range c.lines {
		total += line.Total()
	}
	return total
}

// Lines returns a copy in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, *line)
	}
	return out
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.index = make(map[int64]*Line)
}

// Items converts the cart to the request shape the ordering API takes.
func (c *Cart) Items() []client.ItemRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]client.ItemRequest, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, client.ItemRequest{
			DishID:   line.DishID,
			Quantity: line.Quantity,
		})
	}
	return out
}
