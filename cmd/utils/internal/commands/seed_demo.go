package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/quicktab/quicktab/internal/menu"
	"github.com/quicktab/quicktab/internal/mongo"
	"github.com/quicktab/quicktab/internal/order"
	"github.com/quicktab/quicktab/internal/tables"
	"github.com/quicktab/quicktab/pkg/enums/itemstatus"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
)

const demoSeedID = "demo_orders_v1"

// SeedDemo creates a handful of tabs spread across the order flow so the
// kitchen and service portals have something to show. It runs the baseline
// menu/table seed first if the database is empty, and records what it
// created so clear-demo can undo it.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding...")

	baseRepo := mongo.NewBaseRepo(config, logger)
	if err := baseRepo.Start(ctx); err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer baseRepo.Stop(ctx)

	db := baseRepo.GetDatabase()

	// Check if already seeded
	seedsCollection := db.Collection("_seeds")
	count, err := seedsCollection.CountDocuments(ctx, bson.M{"_id": demoSeedID})
	if err != nil {
		return fmt.Errorf("check seed status: %w", err)
	}
	if count > 0 {
		logger.Info("Demo seeds already applied, skipping")
		return nil
	}

	counters := mongo.NewCounterRepo(db)
	orderRepo := mongo.NewOrderRepo(db)
	itemRepo := mongo.NewOrderItemRepo(db)
	tableRepo := mongo.NewTableRepo(db)
	dishRepo := mongo.NewDishRepo(db)

	// Baseline menu and floor plan, skipped if already present.
	baseline := menu.NewSeeder(dishRepo, tableRepo, counters, logger)
	if err := baseline.Run(ctx); err != nil {
		return fmt.Errorf("baseline seed: %w", err)
	}

	dishes, err := dishRepo.ListAvailable(ctx)
	if err != nil {
		return fmt.Errorf("cannot fetch dishes: %w", err)
	}
	floorTables, err := tableRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot fetch tables: %w", err)
	}
	if len(dishes) < 3 || len(floorTables) < 3 {
		return fmt.Errorf("need at least 3 dishes and 3 tables for demo data (found %d/%d)", len(dishes), len(floorTables))
	}

	seeder := &demoSeeder{
		counters:  counters,
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
	}

	// Scenario 1: a tab just placed, nothing picked up yet.
	if err := seeder.createTab(ctx, floorTables[0], orderstatus.Pending,
		demoLine{dishes[0], 2, itemstatus.NeedsPreparation},
		demoLine{dishes[1], 1, itemstatus.NeedsPreparation},
	); err != nil {
		return fmt.Errorf("seed pending tab: %w", err)
	}

	// Scenario 2: kitchen mid-flight, one dish plated.
	if err := seeder.createTab(ctx, floorTables[1], orderstatus.Processing,
		demoLine{dishes[1], 1, itemstatus.InProgress},
		demoLine{dishes[2], 2, itemstatus.Ready},
	); err != nil {
		return fmt.Errorf("seed processing tab: %w", err)
	}

	// Scenario 3: everything plated, guests asked for the bill at the counter.
	if err := seeder.createCounterTab(ctx, floorTables[2],
		demoLine{dishes[0], 1, itemstatus.Delivered},
		demoLine{dishes[2], 1, itemstatus.Delivered},
	); err != nil {
		return fmt.Errorf("seed ready tab: %w", err)
	}

	_, err = seedsCollection.InsertOne(ctx, bson.M{
		"_id":         demoSeedID,
		"description": "Demo tabs spread across the order flow",
		"order_ids":   seeder.orderIDs,
		"item_ids":    seeder.itemIDs,
		"applied_at":  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("cannot mark seed as applied: %w", err)
	}

	logger.Infof("Seeded %d demo tabs", len(seeder.orderIDs))
	return nil
}

type demoLine struct {
	dish     *menu.Dish
	quantity int
	status   itemstatus.Status
}

type demoSeeder struct {
	counters  *mongo.CounterRepo
	orderRepo *mongo.OrderRepo
	itemRepo  *mongo.OrderItemRepo
	orderIDs  []int64
	itemIDs   []int64
}

func (s *demoSeeder) createTab(ctx context.Context, table *tables.Table, status orderstatus.Status, lines ...demoLine) error {
	o := order.NewOrder()
	o.TableID = table.ID
	o.TableNumber = table.Number
	o.Status = status

	id, err := s.counters.Next(ctx, "orders")
	if err != nil {
		return fmt.Errorf("cannot assign order id: %w", err)
	}
	o.ID = id

	items := make([]*order.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := order.NewOrderItem()
		item.OrderID = o.ID
		item.DishID = line.dish.ID
		item.DishName = line.dish.Name
		item.UnitPrice = line.dish.Price
		item.TableNumber = table.Number
		item.SetQuantity(line.quantity)
		item.Status = line.status

		item.ID, err = s.counters.Next(ctx, "order_items")
		if err != nil {
			return fmt.Errorf("cannot assign item id: %w", err)
		}

		o.Total += item.LineTotal
		items = append(items, item)
	}

	o.BeforeCreate()
	if err := s.orderRepo.Create(ctx, o); err != nil {
		return fmt.Errorf("cannot create demo order: %w", err)
	}
	s.orderIDs = append(s.orderIDs, o.ID)

	for _, item := range items {
		item.BeforeCreate()
		if err := s.itemRepo.Create(ctx, item); err != nil {
			return fmt.Errorf("cannot create demo item %s: %w", item.DishName, err)
		}
		s.itemIDs = append(s.itemIDs, item.ID)
	}

	return nil
}

func (s *demoSeeder) createCounterTab(ctx context.Context, table *tables.Table, lines ...demoLine) error {
	if err := s.createTab(ctx, table, orderstatus.Ready, lines...); err != nil {
		return err
	}

	// Flag the tab for counter payment so it lands in the service
	// portal's payment queue.
	lastID := s.orderIDs[len(s.orderIDs)-1]
	o, err := s.orderRepo.Get(ctx, lastID)
	if err != nil || o == nil {
		return fmt.Errorf("cannot reload demo order %d: %w", lastID, err)
	}
	o.PaymentType = order.PaymentAtCounter
	o.BeforeUpdate()
	return s.orderRepo.Save(ctx, o)
}
