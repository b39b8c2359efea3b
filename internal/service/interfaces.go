package service

import (
	"context"

	"github.com/gymchain/gymchain-api/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=gomock/mock_interfaces.go -package=gomock

type AccountService interface {
	List(ctx context.Context) ([]domain.Account, error)
	Get(ctx context.Context, id uint) (*domain.Account, error)
	Create(ctx context.Context, input AccountInput) (*domain.Account, error)
	Update(ctx context.Context, id uint, input AccountInput) (*domain.Account, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
}

type WorkoutService interface {
	List(ctx context.Context) ([]domain.Workout, error)
	Get(ctx context.Context, id uint) (*domain.Workout, error)
	Create(ctx context.Context, input WorkoutInput) (*domain.Workout, error)
	Update(ctx context.Context, id uint, input WorkoutInput) (*domain.Workout, error)
	Delete(ctx context.Context, id uint) error
}

var (
	_ AccountService = (*AccountServiceImpl)(nil)
	_ WorkoutService = (*WorkoutServiceImpl)(nil)
	_ Gate           = (*ClaimsGate)(nil)
)
