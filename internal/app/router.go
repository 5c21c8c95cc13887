package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/mobil3801/dfs-manager-portal/internal/auth"
	"github.com/mobil3801/dfs-manager-portal/internal/observability"
	"github.com/mobil3801/dfs-manager-portal/internal/permissions"
	"github.com/mobil3801/dfs-manager-portal/internal/platform/httpx"
	"github.com/mobil3801/dfs-manager-portal/internal/shared"
	"github.com/mobil3801/dfs-manager-portal/internal/users"
	"github.com/mobil3801/dfs-manager-portal/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	Hydrator           auth.Hydrator
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	PermissionsHandler *permissions.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(params.Hydrator.Middleware)

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Credential guessing gets a tighter budget than the global limit.
			r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
				sess := shared.SessionFromContext(r.Context())
				token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
				if err != nil {
					httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
					return
				}
				httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
			})
			params.AuthHandler.MountRoutes(r)
		})
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
