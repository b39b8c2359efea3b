package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/observability"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing record")
)

// Store is the persistence contract the services depend on. Save inserts
// when the entity has no identifier yet and updates it otherwise.
type Store[T any] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	DeleteByID(ctx context.Context, id uint) error
}

type AccountStore = Store[domain.Account]

type WorkoutStore = Store[domain.Workout]

type GormStore[T any] struct {
	db     *gorm.DB
	entity string
}

func NewGormStore[T any](db *gorm.DB, entity string) *GormStore[T] {
	return &GormStore[T]{db: db, entity: entity}
}

func NewAccountStore(db *gorm.DB) AccountStore {
	return NewGormStore[domain.Account](db, "account")
}

func NewWorkoutStore(db *gorm.DB) WorkoutStore {
	return NewGormStore[domain.Workout](db, "workout")
}

func (s *GormStore[T]) FindAll(ctx context.Context) ([]T, error) {
	var items []T
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, s.entity, "find_all", "error")
		return nil, fmt.Errorf("list %s: %w", s.entity, err)
	}
	observability.RecordRepositoryOperation(ctx, s.entity, "find_all", "success")
	return items, nil
}

func (s *GormStore[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, s.entity, "find_by_id", "not_found")
			return nil, ErrNotFound
		}
		observability.RecordRepositoryOperation(ctx, s.entity, "find_by_id", "error")
		return nil, fmt.Errorf("find %s %d: %w", s.entity, id, err)
	}
	observability.RecordRepositoryOperation(ctx, s.entity, "find_by_id", "success")
	return &item, nil
}

func (s *GormStore[T]) Save(ctx context.Context, entity *T) error {
	if err := s.db.WithContext(ctx).Save(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, s.entity, "save", "conflict")
			return fmt.Errorf("save %s: %w", s.entity, ErrConflict)
		}
		observability.RecordRepositoryOperation(ctx, s.entity, "save", "error")
		return fmt.Errorf("save %s: %w", s.entity, err)
	}
	observability.RecordRepositoryOperation(ctx, s.entity, "save", "success")
	return nil
}

// DeleteByID removes the record if present. Deleting a missing id is not an error.
func (s *GormStore[T]) DeleteByID(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, s.entity, "delete_by_id", "error")
		return fmt.Errorf("delete %s %d: %w", s.entity, id, res.Error)
	}
	outcome := "success"
	if res.RowsAffected == 0 {
		outcome = "noop"
	}
	observability.RecordRepositoryOperation(ctx, s.entity, "delete_by_id", outcome)
	return nil
}
