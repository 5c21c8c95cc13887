package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mobil3801/dfs-manager-portal/internal/permissions"
	"github.com/mobil3801/dfs-manager-portal/internal/platform/httpx"
	"github.com/mobil3801/dfs-manager-portal/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	resolver *permissions.Resolver
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, resolver *permissions.Resolver) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		resolver: resolver,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	acc, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrAccountDisabled):
			httpx.Problem(w, http.StatusForbidden, "Account Disabled", "this account has been deactivated")
		case errors.Is(err, shared.ErrInvalidCredentials):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		default:
			h.logger.Error("authenticate", slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "profile store unreachable")
		}
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(acc.ID.String())
	if err := h.service.RegisterSession(r.Context(), sess.ID, acc.ID, time.Now().Add(h.sessions.TTL()), r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":      acc.ID,
		"email":   acc.Email,
		"name":    acc.Name,
		"role":    acc.Role,
		"station": acc.Station,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessions.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

// handleMe returns the caller's identity together with the effective matrix
// the UI renders navigation from.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := permissions.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	res, err := h.resolver.Effective(r.Context(), principal)
	if err != nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Pending", "permissions still loading")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":       principal.ID,
		"role":     principal.Role,
		"station":  principal.Station,
		"active":   principal.Active,
		"source":   res.Source,
		"degraded": res.Degraded,
		"matrix":   res.Matrix,
	})
}
