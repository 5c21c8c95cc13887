package permissions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
	"github.com/mobil3801/dfs-manager-portal/internal/platform/httpx"
)

// Middleware wires access-guard checks into HTTP routes. Every role or
// permission branch in the portal goes through here; handlers never inspect
// roles themselves.
type Middleware struct {
	Guard  *Guard
	Logger *slog.Logger
}

// Require gates a route on one page/action pair.
func (m Middleware) Require(pageKey string, action catalog.Action) func(http.Handler) http.Handler {
	return m.gate(pageKey, action, CheckOptions{})
}

// RequireRole gates a route on a page/action pair plus a minimum role.
func (m Middleware) RequireRole(pageKey string, action catalog.Action, min Role) func(http.Handler) http.Handler {
	return m.gate(pageKey, action, CheckOptions{MinRole: min})
}

func (m Middleware) gate(pageKey string, action catalog.Action, opts CheckOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			if !principal.Active {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "account disabled")
				return
			}
			decision, err := m.Guard.Allow(r.Context(), principal, pageKey, action, opts)
			if err != nil {
				// Resolution was cancelled or superseded; neither allow nor
				// deny. 503 tells the client to retry rather than render a
				// denial it would have to explain.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					httpx.Problem(w, http.StatusServiceUnavailable, "Pending", "permissions still loading")
					return
				}
				if m.Logger != nil {
					m.Logger.Error("guard evaluation", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !decision.Allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
