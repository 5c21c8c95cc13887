package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mobil3801/dfs-manager-portal/internal/permissions"
	"github.com/mobil3801/dfs-manager-portal/internal/shared"
)

// Hydrator turns the session's user ID into a permissions.Principal on the
// request context. Requests without a resolvable identity pass through
// unauthenticated; the access guard turns that into a 401 on protected
// routes. An unreachable profile store likewise yields no principal, never a
// guessed one.
type Hydrator struct {
	Store  permissions.Store
	Logger *slog.Logger
}

// Middleware returns the hydration middleware.
func (h Hydrator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := uuid.Parse(sess.User())
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		rec, err := h.Store.GetProfile(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, permissions.ErrProfileNotFound) && h.Logger != nil {
				h.Logger.Error("principal hydration", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := permissions.ContextWithPrincipal(r.Context(), rec.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
