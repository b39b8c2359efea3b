package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gymchain/gymchain-api/internal/observability"
)

type Config struct {
	BaseURL     string
	Profile     string
	Token       string
	UserID      uint
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

type request struct {
	method string
	path   string
	body   []byte
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.UserID == 0 {
		cfg.UserID = 1
	}
	profile := strings.ToLower(cfg.Profile)
	if profile == "" {
		profile = "mixed"
	}

	requests := requestsForProfile(profile, cfg.UserID)
	if len(requests) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan request, cfg.Concurrency*2)
	wg := sync.WaitGroup{}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				req, err := http.NewRequestWithContext(ctx, job.method, cfg.BaseURL+job.path, bytes.NewReader(job.body))
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if job.body != nil {
					req.Header.Set("Content-Type", "application/json")
				}
				if cfg.Token != "" {
					req.Header.Set("Authorization", "Bearer "+cfg.Token)
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				class := statusClass(resp.StatusCode)
				switch class {
				case "2xx":
					atomic.AddInt64(&s2xx, 1)
				case "4xx":
					atomic.AddInt64(&s4xx, 1)
				case "5xx":
					atomic.AddInt64(&s5xx, 1)
				}
				observability.RecordLoadgenRequest(ctx, class, profile)
			}
		}()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Result{TotalRequests: total, Failures: failures, Status2xx: s2xx, Status4xx: s4xx, Status5xx: s5xx}, nil
		case <-ticker.C:
			select {
			case jobs <- requests[rng.Intn(len(requests))]:
			case <-ctx.Done():
			}
		}
	}
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}

func requestsForProfile(profile string, userID uint) []request {
	workout := func(minutes int) []byte {
		return []byte(fmt.Sprintf(`{"user":{"id":%d},"description":"loadgen","workout_type":"cardio","duration_minutes":%d}`, userID, minutes))
	}
	reads := []request{
		{method: http.MethodGet, path: "/users"},
		{method: http.MethodGet, path: fmt.Sprintf("/users/%d", userID)},
		{method: http.MethodGet, path: "/workouts"},
	}
	switch profile {
	case "read":
		return reads
	case "mixed":
		return append(reads,
			request{method: http.MethodPost, path: "/workouts", body: workout(30)},
			request{method: http.MethodPost, path: "/workouts", body: workout(55)},
		)
	case "error-heavy":
		return []request{
			{method: http.MethodGet, path: "/users/999999999"},
			{method: http.MethodGet, path: "/workouts/abc"},
			{method: http.MethodPost, path: "/workouts", body: []byte(`{"description":"no owner","duration_minutes":10}`)},
			{method: http.MethodPost, path: "/workouts", body: workout(-5)},
		}
	default:
		return nil
	}
}
