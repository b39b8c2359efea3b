package observability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentRedisClient installs a command hook recording count and latency
// for every Redis round-trip made by the rate limiter and list cache.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	hook, err := newRedisMetricsHook(otel.Meter(meterName))
	if err != nil {
		logger.Warn("redis observability instrumentation disabled", "error", err)
		return
	}
	client.AddHook(hook)
	logger.Info("redis observability instrumentation enabled")
}

type redisMetricsHook struct {
	commands metric.Int64Counter
	latency  metric.Float64Histogram
}

func newRedisMetricsHook(meter metric.Meter) (*redisMetricsHook, error) {
	commands, err := meter.Int64Counter("redis.command.total",
		metric.WithDescription("Total number of Redis commands executed"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("redis.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency in seconds"))
	if err != nil {
		return nil, err
	}
	return &redisMetricsHook{commands: commands, latency: latency}, nil
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.record(ctx, strings.ToLower(cmd.Name()), redisCommandStatus(err), time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.record(ctx, "pipeline", redisCommandStatus(err), time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) record(ctx context.Context, command, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	)
	h.commands.Add(ctx, 1, attrs)
	h.latency.Record(ctx, d.Seconds(), attrs)
}

func redisCommandStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "miss"
	default:
		return "error"
	}
}
