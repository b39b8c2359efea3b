package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/repository"
)

const rewardPointStep = 10

var (
	ErrWorkoutNotFound           = errors.New("workout not found")
	ErrWorkoutUserRequired       = errors.New("workout user is required")
	ErrWorkoutUserInactive       = errors.New("workout user does not exist or is inactive")
	ErrWorkoutInvalidDuration    = errors.New("duration_minutes must be >= 0")
	ErrWorkoutInvalidDescription = errors.New("description must be <= 500 characters")
	ErrWorkoutInvalidType        = errors.New("workout_type must be <= 64 characters")
)

// WorkoutInput carries the caller-editable workout fields. A nil UserID
// means the owning account reference is missing. A nil PerformedAt means
// now on create and unchanged on update.
type WorkoutInput struct {
	UserID          *uint
	Description     string
	WorkoutType     string
	DurationMinutes int
	PerformedAt     *time.Time
}

type WorkoutServiceImpl struct {
	store    repository.WorkoutStore
	accounts repository.AccountStore
	gate     Gate
	cache    *ListCache
}

func NewWorkoutService(store repository.WorkoutStore, accounts repository.AccountStore, gate Gate, cache *ListCache) *WorkoutServiceImpl {
	return &WorkoutServiceImpl{store: store, accounts: accounts, gate: gate, cache: cache}
}

// RewardPoints grants ten points per complete ten minutes of exercise.
func RewardPoints(durationMinutes int) int {
	if durationMinutes <= 0 {
		return 0
	}
	return (durationMinutes / rewardPointStep) * rewardPointStep
}

func (s *WorkoutServiceImpl) List(ctx context.Context) ([]domain.Workout, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordWorkoutOperation(ctx, "list", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleSearchWorkout, ScopeRead); err != nil {
		outcome = gateOutcome(err)
		return nil, err
	}
	workouts, err := cachedList(ctx, s.cache, workoutListNamespace, s.store.FindAll)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return workouts, nil
}

func (s *WorkoutServiceImpl) Get(ctx context.Context, id uint) (*domain.Workout, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordWorkoutOperation(ctx, "get", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleSearchWorkout, ScopeRead); err != nil {
		outcome = gateOutcome(err)
		return nil, err
	}
	workout, err := s.find(ctx, id)
	if err != nil {
		outcome = lookupOutcome(err)
		return nil, err
	}
	return workout, nil
}

func (s *WorkoutServiceImpl) Create(ctx context.Context, input WorkoutInput) (*domain.Workout, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordWorkoutOperation(ctx, "create", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleRegisterWorkout, ScopeWrite); err != nil {
		outcome = gateOutcome(err)
		return nil, err
	}
	if err := s.requireActiveAccount(ctx, input.UserID); err != nil {
		outcome = validationOutcome(err)
		return nil, err
	}
	if err := validateWorkoutInput(input); err != nil {
		outcome = "bad_request"
		return nil, err
	}

	workout := mergeWorkout(domain.Workout{PerformedAt: time.Now().UTC()}, input)
	workout.TotalHPEarned = RewardPoints(workout.DurationMinutes)
	if err := s.save(ctx, &workout); err != nil {
		outcome = "error"
		return nil, err
	}
	observability.RecordWorkoutRewardPoints(ctx, "create", workout.TotalHPEarned)
	return &workout, nil
}

func (s *WorkoutServiceImpl) Update(ctx context.Context, id uint, input WorkoutInput) (*domain.Workout, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordWorkoutOperation(ctx, "update", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleRegisterWorkout, ScopeWrite); err != nil {
		outcome = gateOutcome(err)
		return nil, err
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		outcome = lookupOutcome(err)
		return nil, err
	}
	if err := s.requireActiveAccount(ctx, input.UserID); err != nil {
		outcome = validationOutcome(err)
		return nil, err
	}
	if err := validateWorkoutInput(input); err != nil {
		outcome = "bad_request"
		return nil, err
	}

	workout := mergeWorkout(*existing, input)
	workout.TotalHPEarned = RewardPoints(workout.DurationMinutes)
	if err := s.save(ctx, &workout); err != nil {
		outcome = "error"
		return nil, err
	}
	observability.RecordWorkoutRewardPoints(ctx, "update", workout.TotalHPEarned)
	return &workout, nil
}

func (s *WorkoutServiceImpl) Delete(ctx context.Context, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordWorkoutOperation(ctx, "delete", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleRemoveWorkout, ScopeWrite); err != nil {
		outcome = gateOutcome(err)
		return err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		outcome = "error"
		return err
	}
	s.cache.invalidate(ctx, workoutListNamespace)
	return nil
}

// requireActiveAccount rejects a missing reference and any reference to an
// account that is absent or inactive.
func (s *WorkoutServiceImpl) requireActiveAccount(ctx context.Context, userID *uint) error {
	if userID == nil || *userID == 0 {
		return ErrWorkoutUserRequired
	}
	account, err := s.accounts.FindByID(ctx, *userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrWorkoutUserInactive
	}
	if err != nil {
		return err
	}
	if !account.Active {
		return ErrWorkoutUserInactive
	}
	return nil
}

func (s *WorkoutServiceImpl) find(ctx context.Context, id uint) (*domain.Workout, error) {
	workout, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrWorkoutNotFound
	}
	return workout, err
}

func (s *WorkoutServiceImpl) save(ctx context.Context, workout *domain.Workout) error {
	if err := s.store.Save(ctx, workout); err != nil {
		return err
	}
	s.cache.invalidate(ctx, workoutListNamespace)
	observability.RecordWorkoutPersisted(time.Now())
	return nil
}

// mergeWorkout copies the caller-editable fields of input onto existing.
// ID, TotalHPEarned and CreatedAt always keep the existing values.
func mergeWorkout(existing domain.Workout, input WorkoutInput) domain.Workout {
	if input.UserID != nil {
		existing.UserID = *input.UserID
	}
	existing.Description = strings.TrimSpace(input.Description)
	existing.WorkoutType = strings.TrimSpace(input.WorkoutType)
	existing.DurationMinutes = input.DurationMinutes
	if input.PerformedAt != nil {
		existing.PerformedAt = input.PerformedAt.UTC()
	}
	return existing
}

func validateWorkoutInput(input WorkoutInput) error {
	if input.DurationMinutes < 0 {
		return ErrWorkoutInvalidDuration
	}
	if len(strings.TrimSpace(input.Description)) > 500 {
		return ErrWorkoutInvalidDescription
	}
	if len(strings.TrimSpace(input.WorkoutType)) > 64 {
		return ErrWorkoutInvalidType
	}
	return nil
}

func validationOutcome(err error) string {
	if IsValidationError(err) {
		return "bad_request"
	}
	return "error"
}

// IsValidationError reports whether err is a caller input fault.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrAccountInvalidName,
		ErrAccountInvalidEmail,
		ErrAccountInvalidPhone,
		ErrAccountPasswordMissing,
		ErrAccountPasswordTooWeak,
		ErrWorkoutUserRequired,
		ErrWorkoutUserInactive,
		ErrWorkoutInvalidDuration,
		ErrWorkoutInvalidDescription,
		ErrWorkoutInvalidType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
