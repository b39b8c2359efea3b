package service

import (
	"context"
	"sort"
	"strings"

	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/repository"
)

type stubStore[T any] struct {
	items  map[uint]T
	nextID uint
	idOf   func(*T) *uint
	saves  int
	dels   int
	err    error
}

func newStubStore[T any](idOf func(*T) *uint) *stubStore[T] {
	return &stubStore[T]{items: map[uint]T{}, nextID: 1, idOf: idOf}
}

func newAccountStubStore() *stubStore[domain.Account] {
	return newStubStore(func(a *domain.Account) *uint { return &a.ID })
}

func newWorkoutStubStore() *stubStore[domain.Workout] {
	return newStubStore(func(w *domain.Workout) *uint { return &w.ID })
}

func (s *stubStore[T]) FindAll(context.Context) ([]T, error) {
	if s.err != nil {
		return nil, s.err
	}
	ids := make([]int, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[uint(id)])
	}
	return out, nil
}

func (s *stubStore[T]) FindByID(_ context.Context, id uint) (*T, error) {
	if s.err != nil {
		return nil, s.err
	}
	item, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (s *stubStore[T]) Save(_ context.Context, entity *T) error {
	if s.err != nil {
		return s.err
	}
	id := s.idOf(entity)
	if *id == 0 {
		*id = s.nextID
		s.nextID++
	}
	s.saves++
	s.items[*id] = *entity
	return nil
}

func (s *stubStore[T]) DeleteByID(_ context.Context, id uint) error {
	if s.err != nil {
		return s.err
	}
	s.dels++
	delete(s.items, id)
	return nil
}

type prefixHasher struct{ calls int }

func (h *prefixHasher) Hash(password string) (string, error) {
	h.calls++
	return "hashed:" + strings.ToUpper(password), nil
}

type allowGate struct{}

func (allowGate) Authorize(context.Context, string, string) error { return nil }

type denyGate struct{ err error }

func (g denyGate) Authorize(context.Context, string, string) error { return g.err }

func boolPtr(v bool) *bool { return &v }

func uintPtr(v uint) *uint { return &v }
