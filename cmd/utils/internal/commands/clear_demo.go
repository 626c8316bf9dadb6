package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"

	"github.com/quicktab/quicktab/internal/mongo"
)

// ClearDemo removes the tabs created by seed-demo. It only touches
// documents recorded in the seed tracker, so real orders survive.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	baseRepo := mongo.NewBaseRepo(config, logger)
	if err := baseRepo.Start(ctx); err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer baseRepo.Stop(ctx)

	db := baseRepo.GetDatabase()
	seedsCollection := db.Collection("_seeds")

	var tracker struct {
		OrderIDs []int64 `bson:"order_ids"`
		ItemIDs  []int64 `bson:"item_ids"`
	}
	err := seedsCollection.FindOne(ctx, bson.M{"_id": demoSeedID}).Decode(&tracker)
	if errors.Is(err, driver.ErrNoDocuments) {
		logger.Info("No demo seeds recorded, nothing to clear")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seed tracker: %w", err)
	}

	itemsResult, err := db.Collection("order_items").DeleteMany(ctx, bson.M{"_id": bson.M{"$in": tracker.ItemIDs}})
	if err != nil {
		return fmt.Errorf("delete demo order items: %w", err)
	}
	logger.Info("Deleted demo order items", "count", itemsResult.DeletedCount)

	ordersResult, err := db.Collection("orders").DeleteMany(ctx, bson.M{"_id": bson.M{"$in": tracker.OrderIDs}})
	if err != nil {
		return fmt.Errorf("delete demo orders: %w", err)
	}
	logger.Info("Deleted demo orders", "count", ordersResult.DeletedCount)

	if _, err := seedsCollection.DeleteOne(ctx, bson.M{"_id": demoSeedID}); err != nil {
		return fmt.Errorf("delete seed tracker: %w", err)
	}
	logger.Info("Cleared seed tracker")

	return nil
}
