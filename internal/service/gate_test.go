package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gymchain/gymchain-api/internal/security"
)

func TestGateLayerDefaultsToService(t *testing.T) {
	if got := GateLayer(context.Background()); got != GateLayerService {
		t.Fatalf("expected default layer %q, got %q", GateLayerService, got)
	}
	ctx := WithGateLayer(context.Background(), GateLayerRouter)
	if got := GateLayer(ctx); got != GateLayerRouter {
		t.Fatalf("expected %q, got %q", GateLayerRouter, got)
	}
	if got := GateLayer(WithGateLayer(context.Background(), "")); got != GateLayerService {
		t.Fatalf("expected empty layer to fall back to %q, got %q", GateLayerService, got)
	}
}

func TestClaimsGateAuthorize(t *testing.T) {
	gate := NewClaimsGate()
	reader := security.WithClaims(context.Background(), &security.Claims{
		Roles: []string{RoleSearchUser},
		Scope: "read",
	})

	cases := []struct {
		name  string
		ctx   context.Context
		role  string
		scope string
		want  error
	}{
		{"missing identity", context.Background(), RoleSearchUser, ScopeRead, ErrUnauthenticated},
		{"role and scope granted", reader, RoleSearchUser, ScopeRead, nil},
		{"scope missing", reader, RoleSearchUser, ScopeWrite, ErrForbidden},
		{"role missing", reader, RoleRemoveUser, ScopeRead, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.Authorize(tc.ctx, tc.role, tc.scope)
			if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
