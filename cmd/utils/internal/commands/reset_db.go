package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/quicktab/quicktab/internal/mongo"
)

// ResetDB drops the whole database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop the QuickTab database!")
	logger.Infof("⚠️  This action cannot be undone!")

	baseRepo := mongo.NewBaseRepo(config, logger)
	if err := baseRepo.Start(ctx); err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer baseRepo.Stop(ctx)

	db := baseRepo.GetDatabase()
	logger.Info("Dropping database", "database", db.Name())

	if err := db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}

	logger.Info("Database dropped")
	return nil
}
