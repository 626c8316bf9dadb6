package menu

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/quicktab/quicktab/internal/tables"
)

// Sequencer hands out server-assigned ids from a named counter.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Seeder loads a starter menu and floor plan into an empty database.
// It is gated behind configuration and skips anything already present,
// so running it twice is harmless.
type Seeder struct {
	logger    apt.Logger
	dishRepo  DishRepo
	tableRepo tables.Repo
	seq       Sequencer
}

func NewSeeder(dishRepo DishRepo, tableRepo tables.Repo, seq Sequencer, logger apt.Logger) *Seeder {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Seeder{
		logger:    logger,
		dishRepo:  dishRepo,
		tableRepo: tableRepo,
		seq:       seq,
	}
}

func (s *Seeder) Run(ctx context.Context) error {
	if err := s.seedDishes(ctx); err != nil {
		return err
	}
	return s.seedTables(ctx)
}

func (s *Seeder) seedDishes(ctx context.Context) error {
	existing, err := s.dishRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot check existing dishes: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug("dishes already present, skipping seed", "count", len(existing))
		return nil
	}

	starters := []struct {
		name     string
		category string
		price    float64
	}{
		{"Paneer Tikka", "Starters", 220},
		{"Veg Spring Rolls", "Starters", 180},
		{"Butter Chicken", "Mains", 340},
		{"Dal Makhani", "Mains", 260},
		{"Veg Biryani", "Mains", 280},
		{"Garlic Naan", "Breads", 60},
		{"Gulab Jamun", "Desserts", 120},
		{"Masala Chai", "Beverages", 50},
		{"Fresh Lime Soda", "Beverages", 80},
	}

	for _, d := range starters {
		dish := NewDish()
		dish.Name = d.name
		dish.Category = d.category
		dish.Price = d.price

		dish.ID, err = s.seq.Next(ctx, "dishes")
		if err != nil {
			return fmt.Errorf("cannot assign dish id: %w", err)
		}

		dish.BeforeCreate()
		if err := s.dishRepo.Create(ctx, dish); err != nil {
			return fmt.Errorf("cannot seed dish %s: %w", d.name, err)
		}
	}

	s.logger.Infof("Seeded %d dishes", len(starters))
	return nil
}

func (s *Seeder) seedTables(ctx context.Context) error {
	existing, err := s.tableRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot check existing tables: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug("tables already present, skipping seed", "count", len(existing))
		return nil
	}

	for i := 1; i <= 10; i++ {
		t := tables.NewTable()
		t.Number = fmt.Sprintf("T%d", i)
		t.Capacity = 4

		t.ID, err = s.seq.Next(ctx, "tables")
		if err != nil {
			return fmt.Errorf("cannot assign table id: %w", err)
		}

		t.BeforeCreate()
		if err := s.tableRepo.Create(ctx, t); err != nil {
			return fmt.Errorf("cannot seed table %s: %w", t.Number, err)
		}
	}

	s.logger.Info("Seeded 10 tables")
	return nil
}
