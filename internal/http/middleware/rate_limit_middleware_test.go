package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gymchain/gymchain-api/internal/security"
)

type mockLimiter struct {
	allow bool
	retry time.Duration
	err   error
}

func (m mockLimiter) Allow(context.Context, string, int, time.Duration) (Decision, error) {
	return Decision{
		Allowed:    m.allow,
		RetryAfter: m.retry,
		Remaining:  0,
		ResetAt:    time.Now().Add(m.retry),
	}, m.err
}

type recordingLimiter struct {
	lastKey string
	allow   bool
}

func (r *recordingLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	r.lastKey = key
	return Decision{
		Allowed:   r.allow,
		Remaining: max(limit-1, 0),
		ResetAt:   time.Now().Add(window),
	}, nil
}

func TestDistributedRateLimiterFailOpenOnBackendError(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{err: errors.New("redis down")},
		10,
		time.Minute,
		FailOpen,
		"api",
	)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open to allow request, got %d", rr.Code)
	}
}

func TestDistributedRateLimiterFailClosedOnBackendError(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{err: errors.New("redis down")},
		10,
		time.Minute,
		FailClosed,
		"workouts",
	)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/workouts", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected fail-closed to reject request, got %d", rr.Code)
	}
}

func TestDistributedRateLimiterDeniedSetsRetryAfter(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{allow: false, retry: 5 * time.Second},
		1,
		time.Minute,
		FailClosed,
		"api",
	)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got == "" {
		t.Fatal("expected Retry-After header")
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Fatalf("expected X-RateLimit-Limit=1, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining=0, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Reset"); got == "" {
		t.Fatal("expected X-RateLimit-Reset header")
	} else if _, err := strconv.ParseInt(got, 10, 64); err != nil {
		t.Fatalf("expected numeric X-RateLimit-Reset, got %q", got)
	}
}

func TestDistributedRateLimiterAllowedSetsRateLimitHeaders(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{allow: true, retry: time.Minute},
		3,
		time.Minute,
		FailClosed,
		"api",
	)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("expected X-RateLimit-Limit=3, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining=0 from mock limiter, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Reset"); got == "" {
		t.Fatal("expected X-RateLimit-Reset header")
	}
	if got := rr.Header().Get("Retry-After"); got != "" {
		t.Fatalf("did not expect Retry-After on allowed response, got %q", got)
	}
}

func TestSubjectOrIPKeyFuncUsesSubjectWhenAccessTokenValid(t *testing.T) {
	jwtMgr := security.NewJWTManager(
		"iss",
		"aud",
		"abcdefghijklmnopqrstuvwxyz123456",
	)
	token, err := jwtMgr.SignAccessToken("42", nil, nil, 15*time.Minute)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	limiter := &recordingLimiter{allow: true}
	rl := NewDistributedRateLimiterWithKey(
		limiter,
		10,
		time.Minute,
		FailClosed,
		"api",
		SubjectOrIPKeyFunc(jwtMgr),
	)

	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected request to pass, got %d", rr.Code)
	}
	if limiter.lastKey != "sub:42" {
		t.Fatalf("expected subject key, got %q", limiter.lastKey)
	}
}

func TestSubjectOrIPKeyFuncFallsBackToIPWhenTokenInvalid(t *testing.T) {
	jwtMgr := security.NewJWTManager(
		"iss",
		"aud",
		"abcdefghijklmnopqrstuvwxyz123456",
	)
	limiter := &recordingLimiter{allow: true}
	rl := NewDistributedRateLimiterWithKey(
		limiter,
		10,
		time.Minute,
		FailClosed,
		"api",
		SubjectOrIPKeyFunc(jwtMgr),
	)

	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected request to pass, got %d", rr.Code)
	}
	if limiter.lastKey != "10.0.0.1" {
		t.Fatalf("expected IP key fallback, got %q", limiter.lastKey)
	}
}

func TestLocalFixedWindowLimiterDeniesAfterLimit(t *testing.T) {
	h := NewRateLimiter(2, time.Minute).Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.RemoteAddr = "10.0.0.9:2222"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/users", nil)
	other.RemoteAddr = "10.0.0.10:2222"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected separate bucket per client ip, got %d", rr.Code)
	}
}

func TestLocalFixedWindowLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewLocalFixedWindowLimiter()
	ctx := context.Background()
	if d, _ := limiter.Allow(ctx, "k", 1, 20*time.Millisecond); !d.Allowed || d.Remaining != 0 {
		t.Fatalf("expected first call allowed with no remaining budget: %+v", d)
	}
	if d, _ := limiter.Allow(ctx, "k", 1, 20*time.Millisecond); d.Allowed || d.RetryAfter <= 0 {
		t.Fatalf("expected second call denied with retry-after: %+v", d)
	}
	time.Sleep(30 * time.Millisecond)
	if d, _ := limiter.Allow(ctx, "k", 1, 20*time.Millisecond); !d.Allowed {
		t.Fatalf("expected new window to allow: %+v", d)
	}
}

func TestRetryAfterHeaderRoundsUpToOneSecond(t *testing.T) {
	if got := retryAfterHeader(200 * time.Millisecond); got != "1" {
		t.Fatalf("expected minimum of 1 second, got %q", got)
	}
	if got := retryAfterHeader(4600 * time.Millisecond); got != "5" {
		t.Fatalf("expected rounding to 5, got %q", got)
	}
}
