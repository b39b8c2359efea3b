package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gymchain/gymchain-api/internal/http/middleware"
	"github.com/gymchain/gymchain-api/internal/security"
	"github.com/gymchain/gymchain-api/internal/service"
)

const testJWTSecret = "abcdefghijklmnopqrstuvwxyz123456"

func newJWTForTest() *security.JWTManager {
	return security.NewJWTManager("iss", "aud", testJWTSecret)
}

func accessTokenForTest(t *testing.T, roles []string, scopes ...string) string {
	t.Helper()
	tok, err := newJWTForTest().SignAccessToken("42", roles, scopes, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func newAccountRouterForTest(h *AccountHandler) http.Handler {
	gate := service.NewClaimsGate()
	r := chi.NewRouter()
	r.Use(middleware.AuthMiddleware(newJWTForTest()))
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireAuthority(gate, service.RoleSearchUser, service.ScopeRead)).Get("/", h.List)
		r.With(middleware.RequireAuthority(gate, service.RoleSearchUser, service.ScopeRead)).Get("/{id}", h.GetByID)
		r.With(middleware.RequireAuthority(gate, service.RoleRegisterUser, service.ScopeWrite)).Post("/", h.Create)
		r.With(middleware.RequireAuthority(gate, service.RoleRegisterUser, service.ScopeWrite)).Put("/{id}", h.Update)
		r.With(middleware.RequireAuthority(gate, service.RoleRegisterUser, service.ScopeWrite)).Put("/{id}/active", h.SetActive)
		r.With(middleware.RequireAuthority(gate, service.RoleRemoveUser, service.ScopeWrite)).Delete("/{id}", h.Delete)
	})
	return r
}

func newWorkoutRouterForTest(h *WorkoutHandler) http.Handler {
	gate := service.NewClaimsGate()
	r := chi.NewRouter()
	r.Use(middleware.AuthMiddleware(newJWTForTest()))
	r.Route("/workouts", func(r chi.Router) {
		r.With(middleware.RequireAuthority(gate, service.RoleSearchWorkout, service.ScopeRead)).Get("/", h.List)
		r.With(middleware.RequireAuthority(gate, service.RoleSearchWorkout, service.ScopeRead)).Get("/{id}", h.GetByID)
		r.With(middleware.RequireAuthority(gate, service.RoleRegisterWorkout, service.ScopeWrite)).Post("/", h.Create)
		r.With(middleware.RequireAuthority(gate, service.RoleRegisterWorkout, service.ScopeWrite)).Put("/{id}", h.Update)
		r.With(middleware.RequireAuthority(gate, service.RoleRemoveWorkout, service.ScopeWrite)).Delete("/{id}", h.Delete)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type envelopeForTest struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelopeForTest {
	t.Helper()
	var env envelopeForTest
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	return env
}
