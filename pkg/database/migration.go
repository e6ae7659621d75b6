package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type migrationStep struct {
	name string
	run  func(tx *gorm.DB) error
}

var migrationSteps = []migrationStep{
	{
		name: "users",
		run:  func(tx *gorm.DB) error { return tx.AutoMigrate(&model.User{}) },
	},
}

// AutoMigrate brings the schema up to date. Steps run in order and the first
// failure stops the run.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	return runMigrations(ctx, db, migrationSteps)
}

func runMigrations(ctx context.Context, db *gorm.DB, steps []migrationStep) error {
	tx := db.WithContext(ctx)
	for _, step := range steps {
		start := time.Now()
		if err := step.run(tx); err != nil {
			return fmt.Errorf("migration %q failed: %w", step.name, err)
		}
		logger.GetLogger().Debug("Migration applied",
			zap.String("step", step.name),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return nil
}
