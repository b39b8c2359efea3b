package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRunSendsBearerTokenAndCountsStatusClasses(t *testing.T) {
	var (
		mu      sync.Mutex
		paths   = map[string]int{}
		badAuth int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths[r.Method+" "+r.URL.Path]++
		if r.Header.Get("Authorization") != "Bearer tkn" {
			badAuth++
		}
		mu.Unlock()
		if strings.HasPrefix(r.URL.Path, "/workouts") && r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := Run(context.Background(), Config{
		BaseURL:     srv.URL + "/",
		Profile:     "MIXED",
		Token:       "tkn",
		Duration:    400 * time.Millisecond,
		RPS:         50,
		Concurrency: 2,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalRequests == 0 || res.Status2xx != res.TotalRequests {
		t.Fatalf("unexpected result %+v", res)
	}
	mu.Lock()
	defer mu.Unlock()
	if badAuth != 0 {
		t.Fatalf("expected every request to carry the bearer token, %d did not", badAuth)
	}
	for p := range paths {
		if !strings.HasPrefix(p, "GET /users") && !strings.HasPrefix(p, "GET /workouts") && p != "POST /workouts" {
			t.Fatalf("unexpected request %q", p)
		}
	}
}

func TestRunErrorHeavyProfileCountsClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	res, err := Run(context.Background(), Config{BaseURL: srv.URL, Profile: "error-heavy", Duration: 300 * time.Millisecond, RPS: 40, Concurrency: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalRequests == 0 || res.Status4xx != res.TotalRequests {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunRejectsUnknownProfile(t *testing.T) {
	if _, err := Run(context.Background(), Config{Profile: "chaos"}); err == nil {
		t.Fatal("expected unknown profile error")
	}
}

func TestRequestsForProfileUsesUserID(t *testing.T) {
	reqs := requestsForProfile("mixed", 7)
	var sawUser, sawBody bool
	for _, r := range reqs {
		if r.path == "/users/7" {
			sawUser = true
		}
		if strings.Contains(string(r.body), `"user":{"id":7}`) {
			sawBody = true
		}
	}
	if !sawUser || !sawBody {
		t.Fatalf("expected user id 7 in paths and bodies: %+v", reqs)
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 204: "2xx", 302: "other", 404: "4xx", 429: "4xx", 503: "5xx"}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Fatalf("statusClass(%d)=%q want %q", code, got, want)
		}
	}
}
