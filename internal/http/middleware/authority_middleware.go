package middleware

import (
	"errors"
	"net/http"

	"github.com/gymchain/gymchain-api/internal/http/response"
	"github.com/gymchain/gymchain-api/internal/service"
)

// RequireAuthority rejects the request before the handler runs when the
// caller lacks role or scope. Services enforce the same gate again; this
// check is recorded under the router layer and does not leak that label into
// the handler's context.
func RequireAuthority(gate service.Gate, role, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := gate.Authorize(service.WithGateLayer(r.Context(), service.GateLayerRouter), role, scope)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, service.ErrUnauthenticated):
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			default:
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient authority", nil)
			}
		})
	}
}
