package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/repository"
	"github.com/gymchain/gymchain-api/internal/security"
)

const minPasswordLength = 8

var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountInvalidName     = errors.New("name must be between 1 and 255 characters")
	ErrAccountInvalidEmail    = errors.New("email must be a valid address")
	ErrAccountInvalidPhone    = errors.New("phone must be <= 32 characters")
	ErrAccountPasswordMissing = errors.New("password is required")
	ErrAccountPasswordTooWeak = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrAccountEmailTaken      = errors.New("email is already registered")
)

// AccountInput carries the caller-editable account fields.
type AccountInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	// Active is nil when the body omits it: active on create, unchanged on
	// update. Every other field is overwritten on update even when empty.
	Active *bool
}

type AccountServiceImpl struct {
	store  repository.AccountStore
	hasher security.PasswordHasher
	gate   Gate
	cache  *ListCache
}

func NewAccountService(store repository.AccountStore, hasher security.PasswordHasher, gate Gate, cache *ListCache) *AccountServiceImpl {
	return &AccountServiceImpl{store: store, hasher: hasher, gate: gate, cache: cache}
}

func (s *AccountServiceImpl) List(ctx context.Context) ([]domain.Account, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordAccountOperation(ctx, "list", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleSearchUser, ScopeRead); err != nil {
		outcome = gateOutcome(err)
		return nil, err
	}
	accounts, err := cachedList(ctx, s.cache, accountListNamespace, s.store.FindAll)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return accounts, nil
}

func (s *AccountServiceImpl) Get(ctx context.Context, id uint) (*domain.Account, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordAccountOperation(ctx, "get", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleSearchUser, ScopeRead); err != nil {
		outcome = gateOutcome(err)
		return nil, err
	}
	account, err := s.find(ctx, id)
	if err != nil {
		outcome = lookupOutcome(err)
		return nil, err
	}
	return account, nil
}

func (s *AccountServiceImpl) Create(ctx context.Context, input AccountInput) (*domain.Account, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordAccountOperation(ctx, "create", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleRegisterUser, ScopeWrite); err != nil {
		outcome = gateOutcome(err)
		return nil, err
	}
	if err := validateAccountInput(input, true); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := mergeAccount(domain.Account{Active: true}, input)
	account.PasswordHash = hash
	if err := s.save(ctx, &account); err != nil {
		outcome = saveOutcome(err)
		return nil, err
	}
	return &account, nil
}

func (s *AccountServiceImpl) Update(ctx context.Context, id uint, input AccountInput) (*domain.Account, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordAccountOperation(ctx, "update", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleRegisterUser, ScopeWrite); err != nil {
		outcome = gateOutcome(err)
		return nil, err
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		outcome = lookupOutcome(err)
		return nil, err
	}
	if err := validateAccountInput(input, false); err != nil {
		outcome = "bad_request"
		return nil, err
	}

	account := mergeAccount(*existing, input)
	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			outcome = "error"
			return nil, fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = hash
	}
	if err := s.save(ctx, &account); err != nil {
		outcome = saveOutcome(err)
		return nil, err
	}
	return &account, nil
}

func (s *AccountServiceImpl) SetActive(ctx context.Context, id uint, active bool) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordAccountOperation(ctx, "set_active", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleRegisterUser, ScopeWrite); err != nil {
		outcome = gateOutcome(err)
		return err
	}
	account, err := s.find(ctx, id)
	if err != nil {
		outcome = lookupOutcome(err)
		return err
	}
	account.Active = active
	if err := s.save(ctx, account); err != nil {
		outcome = saveOutcome(err)
		return err
	}
	return nil
}

func (s *AccountServiceImpl) Delete(ctx context.Context, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordAccountOperation(ctx, "delete", outcome, time.Since(start)) }()

	if err := s.gate.Authorize(ctx, RoleRemoveUser, ScopeWrite); err != nil {
		outcome = gateOutcome(err)
		return err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		outcome = "error"
		return err
	}
	s.cache.invalidate(ctx, accountListNamespace)
	return nil
}

func (s *AccountServiceImpl) find(ctx context.Context, id uint) (*domain.Account, error) {
	account, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return account, err
}

func (s *AccountServiceImpl) save(ctx context.Context, account *domain.Account) error {
	if err := s.store.Save(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrAccountEmailTaken
		}
		return err
	}
	s.cache.invalidate(ctx, accountListNamespace)
	observability.RecordAccountPersisted(time.Now())
	return nil
}

// mergeAccount copies the caller-editable fields of input onto existing.
// ID, PasswordHash and CreatedAt always keep the existing values.
func mergeAccount(existing domain.Account, input AccountInput) domain.Account {
	existing.Name = strings.TrimSpace(input.Name)
	existing.Email = normalizeEmail(input.Email)
	existing.Phone = strings.TrimSpace(input.Phone)
	if input.Active != nil {
		existing.Active = *input.Active
	}
	return existing
}

func validateAccountInput(input AccountInput, requirePassword bool) error {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 255 {
		return ErrAccountInvalidName
	}
	email := normalizeEmail(input.Email)
	if len(email) > 255 {
		return ErrAccountInvalidEmail
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return ErrAccountInvalidEmail
	}
	if len(strings.TrimSpace(input.Phone)) > 32 {
		return ErrAccountInvalidPhone
	}
	if input.Password == "" {
		if requirePassword {
			return ErrAccountPasswordMissing
		}
		return nil
	}
	if len(input.Password) < minPasswordLength {
		return ErrAccountPasswordTooWeak
	}
	return nil
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func lookupOutcome(err error) string {
	if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrWorkoutNotFound) {
		return "not_found"
	}
	return "error"
}

func saveOutcome(err error) string {
	if errors.Is(err, ErrAccountEmailTaken) {
		return "conflict"
	}
	return "error"
}
