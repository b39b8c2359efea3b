package service

import (
	"context"
	"errors"

	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/security"
)

const (
	ScopeRead  = "read"
	ScopeWrite = "write"

	RoleSearchUser      = "ROLE_SEARCH_USER"
	RoleRegisterUser    = "ROLE_REGISTER_USER"
	RoleRemoveUser      = "ROLE_REMOVE_USER"
	RoleSearchWorkout   = "ROLE_SEARCH_WORKOUT"
	RoleRegisterWorkout = "ROLE_REGISTER_WORKOUT"
	RoleRemoveWorkout   = "ROLE_REMOVE_WORKOUT"
)

const (
	GateLayerRouter  = "router"
	GateLayerService = "service"
)

var (
	ErrUnauthenticated = errors.New("caller identity is missing")
	ErrForbidden       = errors.New("caller lacks the required authority")
)

// AllRoles lists every authority the API checks.
func AllRoles() []string {
	return []string{
		RoleSearchUser, RoleRegisterUser, RoleRemoveUser,
		RoleSearchWorkout, RoleRegisterWorkout, RoleRemoveWorkout,
	}
}

// Gate decides whether the caller bound to ctx may perform an operation
// guarded by role and scope. Both must be granted.
type Gate interface {
	Authorize(ctx context.Context, role, scope string) error
}

type gateLayerKey struct{}

// WithGateLayer labels the gate decisions made under ctx. Decisions default
// to GateLayerService.
func WithGateLayer(ctx context.Context, layer string) context.Context {
	return context.WithValue(ctx, gateLayerKey{}, layer)
}

// GateLayer reports the layer gate decisions under ctx are recorded as.
func GateLayer(ctx context.Context) string {
	if layer, ok := ctx.Value(gateLayerKey{}).(string); ok && layer != "" {
		return layer
	}
	return GateLayerService
}

type ClaimsGate struct{}

func NewClaimsGate() *ClaimsGate {
	return &ClaimsGate{}
}

func (g *ClaimsGate) Authorize(ctx context.Context, role, scope string) error {
	claims, ok := security.ClaimsFromContext(ctx)
	if !ok {
		observability.RecordGateDecision(ctx, GateLayer(ctx), role, scope, "unauthenticated")
		return ErrUnauthenticated
	}
	if !claims.HasRole(role) || !claims.HasScope(scope) {
		observability.RecordGateDecision(ctx, GateLayer(ctx), role, scope, "deny")
		return ErrForbidden
	}
	observability.RecordGateDecision(ctx, GateLayer(ctx), role, scope, "allow")
	return nil
}

func gateOutcome(err error) string {
	if errors.Is(err, ErrUnauthenticated) {
		return "unauthenticated"
	}
	return "forbidden"
}
