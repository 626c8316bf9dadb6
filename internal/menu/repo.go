package menu

import "context"

type DishRepo interface {
	Create(ctx context.Context, d *Dish) error
	Get(ctx context.Context, id int64) (*Dish, error)
	List(ctx context.Context) ([]*Dish, error)
	ListAvailable(ctx context.Context) ([]*Dish, error)
	Save(ctx context.Context, d *Dish) error
}
