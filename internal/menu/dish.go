package menu

import "time"

// Dish is a menu entry. Orders capture its name and price at add time,
// so edits here never rewrite existing tabs.
type Dish struct {
	ID        int64     `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Category  string    `json:"category" bson:"category"`
	Price     float64   `json:"price" bson:"price"`
	Available bool      `json:"available" bson:"available"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func NewDish() *Dish {
	return &Dish{
		Available: true,
	}
}

func (d *Dish) BeforeCreate() {
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
}

func (d *Dish) BeforeUpdate() {
	d.UpdatedAt = time.Now()
}
