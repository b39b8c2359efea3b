package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gymchain/gymchain-api/internal/observability"
)

const (
	accountListNamespace = "accounts"
	workoutListNamespace = "workouts"
	listCacheKey         = "all"

	listLoadTimeout = 10 * time.Second
)

// ListCacheStore holds cached collections per namespace. InvalidateNamespace
// must advance the namespace generation so entries keyed under an older
// generation are never read again.
type ListCacheStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context, namespace string) (uint64, error)
	InvalidateNamespace(ctx context.Context, namespace string) error
}

type NoopListCacheStore struct{}

func NewNoopListCacheStore() *NoopListCacheStore {
	return &NoopListCacheStore{}
}

func (s *NoopListCacheStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoopListCacheStore) Set(context.Context, string, string, []byte, time.Duration) error {
	return nil
}

func (s *NoopListCacheStore) Generation(context.Context, string) (uint64, error) {
	return 0, nil
}

func (s *NoopListCacheStore) InvalidateNamespace(context.Context, string) error {
	return nil
}

type memoryCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryListCacheStore is process-local. Writes on another replica do not
// invalidate it, so non-local environments must use the Redis store.
type InMemoryListCacheStore struct {
	mu          sync.RWMutex
	store       map[string]map[string]memoryCacheEntry
	generations map[string]uint64
}

func NewInMemoryListCacheStore() *InMemoryListCacheStore {
	return &InMemoryListCacheStore{
		store:       make(map[string]map[string]memoryCacheEntry),
		generations: make(map[string]uint64),
	}
}

func (s *InMemoryListCacheStore) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.store[namespace][key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		s.mu.Lock()
		if ns, ok := s.store[namespace]; ok {
			delete(ns, key)
			if len(ns) == 0 {
				delete(s.store, namespace)
			}
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (s *InMemoryListCacheStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.store[namespace]
	if !ok {
		ns = make(map[string]memoryCacheEntry)
		s.store[namespace] = ns
	}
	ns[key] = memoryCacheEntry{
		payload:   append([]byte(nil), value...),
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *InMemoryListCacheStore) Generation(_ context.Context, namespace string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generations[namespace], nil
}

func (s *InMemoryListCacheStore) InvalidateNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[namespace]++
	delete(s.store, namespace)
	return nil
}

// ListCache is a read-through cache for full-collection reads. Concurrent
// misses for one namespace share a single store load. A nil *ListCache
// disables caching.
type ListCache struct {
	store ListCacheStore
	ttl   time.Duration
	group singleflight.Group
}

func NewListCache(store ListCacheStore, ttl time.Duration) *ListCache {
	if store == nil {
		store = NewNoopListCacheStore()
	}
	return &ListCache{store: store, ttl: ttl}
}

func (c *ListCache) invalidate(ctx context.Context, namespace string) {
	if c == nil {
		return
	}
	// the write has committed; a caller that goes away must not skip this
	if err := c.store.InvalidateNamespace(context.WithoutCancel(ctx), namespace); err != nil {
		observability.RecordListCacheEvent(ctx, namespace, "invalidate_error")
		slog.WarnContext(ctx, "list cache invalidation failed", "namespace", namespace, "error", err)
		return
	}
	observability.RecordListCacheEvent(ctx, namespace, "invalidate")
}

// cachedList returns the cached collection for namespace or runs load and
// caches its result. Cache faults degrade to a direct load. Entries are keyed
// by namespace generation, so a load that overlaps a write caches under a
// generation nobody reads once the write has invalidated.
func cachedList[T any](ctx context.Context, c *ListCache, namespace string, load func(context.Context) ([]T, error)) ([]T, error) {
	if c == nil {
		return load(ctx)
	}
	gen, err := c.store.Generation(ctx, namespace)
	if err != nil {
		observability.RecordListCacheEvent(ctx, namespace, "error")
		slog.WarnContext(ctx, "list cache generation read failed", "namespace", namespace, "error", err)
		return load(ctx)
	}
	key := generationKey(gen)

	if raw, ok, err := c.store.Get(ctx, namespace, key); err != nil {
		observability.RecordListCacheEvent(ctx, namespace, "error")
		slog.WarnContext(ctx, "list cache read failed", "namespace", namespace, "error", err)
	} else if ok {
		var items []T
		if err := json.Unmarshal(raw, &items); err == nil {
			observability.RecordListCacheEvent(ctx, namespace, "hit")
			return items, nil
		}
		observability.RecordListCacheEvent(ctx, namespace, "decode_error")
	}
	observability.RecordListCacheEvent(ctx, namespace, "miss")

	// The shared load outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := c.group.DoChan(namespace+":"+key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listLoadTimeout)
		defer cancel()
		items, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(items); err == nil {
			if err := c.store.Set(loadCtx, namespace, key, raw, c.ttl); err != nil {
				slog.WarnContext(ctx, "list cache write failed", "namespace", namespace, "error", err)
			}
		}
		return items, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

func generationKey(gen uint64) string {
	return fmt.Sprintf("g%d:%s", gen, listCacheKey)
}
