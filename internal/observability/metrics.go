package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gymchain/gymchain-api/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

const meterName = "gymchain-api"

type AppMetrics struct {
	accountOperationCounter  metric.Int64Counter
	accountOperationDuration metric.Float64Histogram
	workoutOperationCounter  metric.Int64Counter
	workoutOperationDuration metric.Float64Histogram
	workoutRewardPoints      metric.Int64Histogram
	gateDecisionCounter      metric.Int64Counter
	repositoryOpsCounter     metric.Int64Counter
	listCacheEvents          metric.Int64Counter
	accessTokenValidation    metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
	rateLimitRetryAfter      metric.Float64Histogram
	middlewareValidation     metric.Int64Counter
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
	databaseStartupCounter   metric.Int64Counter
	databaseStartupDuration  metric.Float64Histogram
	toolCommandRuns          metric.Int64Counter
	toolCommandDuration      metric.Float64Histogram
	loadgenRequests          metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}
	res, err := serviceResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	latencyBuckets := sdkmetric.Stream{
		Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
			Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(
			sdkmetric.NewView(sdkmetric.Instrument{Name: "account.operation.duration"}, latencyBuckets),
			sdkmetric.NewView(sdkmetric.Instrument{Name: "workout.operation.duration"}, latencyBuckets),
		),
	)
	otel.SetMeterProvider(mp)

	m, err := NewAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

// NewAppMetrics creates every instrument on meter. The first failing
// instrument aborts construction.
func NewAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	b := &instrumentBuilder{meter: meter}
	m := &AppMetrics{
		accountOperationCounter:  b.counter("account.operation.events"),
		accountOperationDuration: b.seconds("account.operation.duration", "Duration of account service operations in seconds"),
		workoutOperationCounter:  b.counter("workout.operation.events"),
		workoutOperationDuration: b.seconds("workout.operation.duration", "Duration of workout service operations in seconds"),
		workoutRewardPoints:      b.intHistogram("workout.reward_points", "Reward points granted per saved workout"),
		gateDecisionCounter:      b.counter("authz.gate.decisions"),
		repositoryOpsCounter:     b.counter("repository.operations"),
		listCacheEvents:          b.counter("list.cache.events"),
		accessTokenValidation:    b.counter("auth.access_token.validation.events"),
		rateLimitDecisionCounter: b.counter("http.rate_limit.decisions"),
		rateLimitRetryAfter:      b.seconds("http.rate_limit.retry_after", "Retry-after duration in seconds for throttled requests"),
		middlewareValidation:     b.counter("http.middleware.validation.events"),
		healthCheckResultCounter: b.counter("health.check.results"),
		healthCheckDuration:      b.seconds("health.check.duration", "Duration of health dependency checks in seconds"),
		databaseStartupCounter:   b.counter("database.startup.events"),
		databaseStartupDuration:  b.seconds("database.startup.duration", "Duration of database startup phases in seconds"),
		toolCommandRuns:          b.counter("tool.command.runs"),
		toolCommandDuration:      b.seconds("tool.command.duration", "Duration of CLI tool commands in seconds"),
		loadgenRequests:          b.counter("loadgen.requests"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

type instrumentBuilder struct {
	meter metric.Meter
	err   error
}

func (b *instrumentBuilder) counter(name string) metric.Int64Counter {
	if b.err != nil {
		return nil
	}
	c, err := b.meter.Int64Counter(name)
	if err != nil {
		b.err = fmt.Errorf("create counter %s: %w", name, err)
	}
	return c
}

func (b *instrumentBuilder) seconds(name, description string) metric.Float64Histogram {
	if b.err != nil {
		return nil
	}
	h, err := b.meter.Float64Histogram(name, metric.WithUnit("s"), metric.WithDescription(description))
	if err != nil {
		b.err = fmt.Errorf("create histogram %s: %w", name, err)
	}
	return h
}

func (b *instrumentBuilder) intHistogram(name, description string) metric.Int64Histogram {
	if b.err != nil {
		return nil
	}
	h, err := b.meter.Int64Histogram(name, metric.WithDescription(description))
	if err != nil {
		b.err = fmt.Errorf("create histogram %s: %w", name, err)
	}
	return h
}

func currentMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAccountOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.accountOperationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.accountOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func RecordWorkoutOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.workoutOperationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.workoutOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func RecordWorkoutRewardPoints(ctx context.Context, operation string, points int) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.workoutRewardPoints.Record(ctx, int64(points), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordGateDecision counts one authorization decision. layer tells the
// router pre-check apart from the service check of the same request.
func RecordGateDecision(ctx context.Context, layer, role, scope, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.gateDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("layer", layer),
		attribute.String("role", role),
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.repositoryOpsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordListCacheEvent(ctx context.Context, namespace, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.listCacheEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("outcome", outcome),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.accessTokenValidation.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode, keyType string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
		attribute.String("mode", mode),
		attribute.String("key_type", keyType),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope, reason string, retryAfter time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("reason", reason),
	))
}

func RecordMiddlewareValidationEvent(ctx context.Context, check, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.middlewareValidation.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("check", check),
	))
}

func RecordDatabaseStartupEvent(ctx context.Context, phase, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.databaseStartupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("outcome", outcome),
	))
}

func RecordDatabaseStartupDuration(ctx context.Context, phase string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.databaseStartupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("phase", phase),
	))
}

func RecordToolCommandRun(ctx context.Context, tool, command, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.toolCommandRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func RecordToolCommandDuration(ctx context.Context, tool, command, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.toolCommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func RecordLoadgenRequest(ctx context.Context, statusClass, profile string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.loadgenRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status_class", statusClass),
		attribute.String("profile", profile),
	))
}
