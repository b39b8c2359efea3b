package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gymchain/gymchain-api/internal/health"
	"github.com/gymchain/gymchain-api/internal/http/handler"
	"github.com/gymchain/gymchain-api/internal/http/middleware"
	"github.com/gymchain/gymchain-api/internal/http/response"
	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/security"
	"github.com/gymchain/gymchain-api/internal/service"
)

type Dependencies struct {
	AccountHandler    *handler.AccountHandler
	WorkoutHandler    *handler.WorkoutHandler
	JWTManager        *security.JWTManager
	Gate              service.Gate
	CORSOrigins       []string
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
	EnablePrometheus  bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})
	if dep.EnablePrometheus {
		r.Method(http.MethodGet, "/metrics", observability.PrometheusHandler())
	}

	limiter := dep.GlobalRateLimiter
	if limiter == nil {
		limiter = middleware.NewDistributedRateLimiterWithKey(
			middleware.NewLocalFixedWindowLimiter(),
			dep.APIRateLimitRPM,
			time.Minute,
			middleware.FailClosed,
			"api",
			middleware.SubjectOrIPKeyFunc(dep.JWTManager),
		).Middleware()
	}
	authority := func(role, scope string) func(http.Handler) http.Handler {
		return middleware.RequireAuthority(dep.Gate, role, scope)
	}

	r.Group(func(r chi.Router) {
		r.Use(limiter)
		r.Use(middleware.AuthMiddleware(dep.JWTManager))

		r.Route("/users", func(r chi.Router) {
			r.With(authority(service.RoleSearchUser, service.ScopeRead)).Get("/", dep.AccountHandler.List)
			r.With(authority(service.RoleSearchUser, service.ScopeRead)).Get("/{id}", dep.AccountHandler.GetByID)
			r.Group(func(r chi.Router) {
				r.Use(authority(service.RoleRegisterUser, service.ScopeWrite))
				r.Post("/", dep.AccountHandler.Create)
				r.Put("/{id}", dep.AccountHandler.Update)
				r.Put("/{id}/active", dep.AccountHandler.SetActive)
			})
			r.With(authority(service.RoleRemoveUser, service.ScopeWrite)).Delete("/{id}", dep.AccountHandler.Delete)
		})

		r.Route("/workouts", func(r chi.Router) {
			r.With(authority(service.RoleSearchWorkout, service.ScopeRead)).Get("/", dep.WorkoutHandler.List)
			r.With(authority(service.RoleSearchWorkout, service.ScopeRead)).Get("/{id}", dep.WorkoutHandler.GetByID)
			r.Group(func(r chi.Router) {
				r.Use(authority(service.RoleRegisterWorkout, service.ScopeWrite))
				r.Post("/", dep.WorkoutHandler.Create)
				r.Put("/{id}", dep.WorkoutHandler.Update)
			})
			r.With(authority(service.RoleRemoveWorkout, service.ScopeWrite)).Delete("/{id}", dep.WorkoutHandler.Delete)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
