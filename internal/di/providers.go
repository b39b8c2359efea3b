package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gymchain/gymchain-api/internal/app"
	"github.com/gymchain/gymchain-api/internal/config"
	"github.com/gymchain/gymchain-api/internal/database"
	"github.com/gymchain/gymchain-api/internal/health"
	"github.com/gymchain/gymchain-api/internal/http/handler"
	"github.com/gymchain/gymchain-api/internal/http/middleware"
	"github.com/gymchain/gymchain-api/internal/http/router"
	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/repository"
	"github.com/gymchain/gymchain-api/internal/security"
	"github.com/gymchain/gymchain-api/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewAccountStore,
	repository.NewWorkoutStore,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	security.NewArgon2Hasher,
	wire.Bind(new(security.PasswordHasher), new(*security.Argon2Hasher)),
)

var ServiceSet = wire.NewSet(
	service.NewClaimsGate,
	provideListCache,
	service.NewAccountService,
	service.NewWorkoutService,
	wire.Bind(new(service.Gate), new(*service.ClaimsGate)),
	wire.Bind(new(service.AccountService), new(*service.AccountServiceImpl)),
	wire.Bind(new(service.WorkoutService), new(*service.WorkoutServiceImpl)),
)

var HTTPSet = wire.NewSet(
	handler.NewAccountHandler,
	handler.NewWorkoutHandler,
	provideGlobalRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(
	provideBootstrapSeed,
	provideApp,
)

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	ctx := context.Background()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.UsesRedis() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
}

func provideListCache(cfg *config.Config, redisClient redis.UniversalClient) *service.ListCache {
	if !cfg.ListCacheEnabled {
		return nil
	}
	if cfg.ListCacheRedisEnabled && redisClient != nil {
		return service.NewListCache(service.NewRedisListCacheStore(redisClient, cfg.RedisPrefix+":lists"), cfg.ListCacheTTL)
	}
	return service.NewListCache(service.NewInMemoryListCacheStore(), cfg.ListCacheTTL)
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, jwt *security.JWTManager) router.GlobalRateLimiterFunc {
	keyFunc := middleware.SubjectOrIPKeyFunc(jwt)
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		return middleware.NewDistributedRateLimiterWithKey(
			middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RedisPrefix+":rl:api"),
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
			keyFunc,
		).Middleware()
	}
	return middleware.NewDistributedRateLimiterWithKey(
		middleware.NewLocalFixedWindowLimiter(),
		cfg.APIRateLimitPerMin,
		time.Minute,
		middleware.FailClosed,
		"api",
		keyFunc,
	).Middleware()
}

func provideRouterDependencies(
	accountHandler *handler.AccountHandler,
	workoutHandler *handler.WorkoutHandler,
	jwt *security.JWTManager,
	gate service.Gate,
	globalRateLimiter router.GlobalRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AccountHandler:    accountHandler,
		WorkoutHandler:    workoutHandler,
		JWTManager:        jwt,
		Gate:              gate,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
		EnablePrometheus:  cfg.PrometheusEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod,
		health.NewDBChecker(db),
		health.NewSchemaChecker(db, database.Models()...),
		health.NewRedisChecker(redisClient),
	)
}

// provideBootstrapSeed creates the configured admin account on startup. With
// no BOOTSTRAP_ADMIN_EMAIL it does nothing.
func provideBootstrapSeed(cfg *config.Config, accounts service.AccountService, workouts service.WorkoutService) (*database.SeedReport, error) {
	return database.Seed(context.Background(), accounts, workouts, database.SeedInput{
		AdminEmail:    cfg.BootstrapAdminEmail,
		AdminPassword: cfg.BootstrapAdminPassword,
	})
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
	bootstrap *database.SeedReport,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness, bootstrap)
}
