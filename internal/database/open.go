package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gymchain/gymchain-api/internal/config"
	"github.com/gymchain/gymchain-api/internal/observability"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects with the configured driver. Driver errors such as unique
// violations are translated into gorm sentinels.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		observability.RecordDatabaseStartupEvent(ctx, "connect", outcome)
		observability.RecordDatabaseStartupDuration(ctx, "connect", time.Since(start))
	}()

	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		outcome = "error"
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("open %s: %w", cfg.DatabaseDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		outcome = "error"
		return nil, err
	}
	if cfg.DatabaseDriver == DriverSQLite {
		// one writer keeps sqlite from returning SQLITE_BUSY under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		outcome = "error"
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DatabaseDriver, err)
	}
	return db, nil
}
