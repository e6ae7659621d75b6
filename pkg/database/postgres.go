package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// NewPostgresDB opens the connection pool, applies the pool limits from cfg
// and verifies the server answers.
func NewPostgresDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	startTime := time.Now()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DatabaseConnectionString(),
	}), GormConfig(cfg.App.Environment))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := ConfigurePool(db, cfg.Database); err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := Ping(pingCtx, db); err != nil {
		_ = CloseDB(db)
		return nil, err
	}

	logger.GetLogger().Info("Database connected successfully",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("connection_time", time.Since(startTime)),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	return db, nil
}

// GormConfig returns the gorm settings for an environment. Driver errors are
// translated so duplicate keys surface as gorm.ErrDuplicatedKey.
func GormConfig(environment string) *gorm.Config {
	var level gormLogger.LogLevel
	switch environment {
	case constants.EnvProduction:
		level = gormLogger.Silent
	case constants.EnvStaging:
		level = gormLogger.Warn
	default:
		level = gormLogger.Info
	}

	return &gorm.Config{
		Logger:                                   gormLogger.Default.LogMode(level),
		TranslateError:                           true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// ConfigurePool applies the connection pool limits. Zero values keep the
// database/sql defaults.
func ConfigurePool(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return nil
}

// Ping checks the server is reachable. It backs the database health check.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance for closing: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	logger.GetLogger().Info("Database connection closed successfully")
	return nil
}
