package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/observability"
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{&domain.Account{}, &domain.Workout{}}
}

func Migrate(ctx context.Context, db *gorm.DB) error {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "migrate", time.Since(start))
	}()
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "migrate", "error")
		return fmt.Errorf("auto migrate: %w", err)
	}
	observability.RecordDatabaseStartupEvent(ctx, "migrate", "success")
	return nil
}

// Plan describes the schema changes Migrate would make without applying them.
// It only detects missing tables and columns.
func Plan(ctx context.Context, db *gorm.DB) ([]string, error) {
	tx := db.WithContext(ctx)
	migrator := tx.Migrator()
	var steps []string
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: tx}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		table := stmt.Schema.Table
		if !migrator.HasTable(model) {
			steps = append(steps, "create table "+table)
			continue
		}
		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}
			if !migrator.HasColumn(model, field.DBName) {
				steps = append(steps, fmt.Sprintf("add column %s.%s", table, field.DBName))
			}
		}
	}
	return steps, nil
}
