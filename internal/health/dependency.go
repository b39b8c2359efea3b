package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	sqlDB, err := c.db.DB()
	if err != nil {
		return failed(res, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return failed(res, err)
	}
	return res
}

// SchemaChecker reports unready until every table the API serves exists, so
// a replica started before migrations ran stays out of rotation.
type SchemaChecker struct {
	db     *gorm.DB
	models []any
}

func NewSchemaChecker(db *gorm.DB, models ...any) Checker {
	if db == nil || len(models) == 0 {
		return nil
	}
	return &SchemaChecker{db: db, models: models}
}

func (c *SchemaChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "schema", Healthy: true}
	migrator := c.db.WithContext(ctx).Migrator()
	var missing []string
	for _, m := range c.models {
		if !migrator.HasTable(m) {
			missing = append(missing, fmt.Sprintf("%T", m))
		}
	}
	if len(missing) > 0 {
		return failed(res, fmt.Errorf("missing tables for %s", strings.Join(missing, ", ")))
	}
	return res
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "redis", Healthy: true}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return failed(res, err)
	}
	return res
}

func failed(res CheckResult, err error) CheckResult {
	res.Healthy = false
	res.Error = err.Error()
	return res
}
