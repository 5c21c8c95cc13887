package permissions

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
	"github.com/mobil3801/dfs-manager-portal/internal/platform/httpx"
)

// Handler exposes the permission engine over HTTP: the catalog for rendering
// the grid, the effective view, the editor surface and the access-check
// endpoint used to gate UI actions.
type Handler struct {
	logger   *slog.Logger
	store    Store
	resolver *Resolver
	editor   *Editor
	guard    *Guard
	mw       Middleware
	validate *validator.Validate
}

// NewHandler constructs the permissions HTTP handler.
func NewHandler(logger *slog.Logger, store Store, resolver *Resolver, editor *Editor, guard *Guard, mw Middleware) *Handler {
	return &Handler{
		logger:   logger,
		store:    store,
		resolver: resolver,
		editor:   editor,
		guard:    guard,
		mw:       mw,
		validate: validator.New(),
	}
}

// MountRoutes registers permission routes. The editor surface is reachable
// only by administrators; viewing and exporting follow the corresponding
// user-management actions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/catalog", h.getCatalog)
	r.Post("/access/check", h.checkAccess)

	r.Route("/users/{id}/permissions", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.mw.Require(catalog.PageUserManagement, catalog.ActionView))
			r.Get("/", h.getEffective)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.mw.Require(catalog.PageUserManagement, catalog.ActionExport))
			r.Get("/export", h.exportEffective)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.mw.RequireRole(catalog.PageUserManagement, catalog.ActionEdit, RoleAdministrator))
			// Editor mutations are interactive; anything faster is a script.
			r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Post("/draft", h.openDraft)
			r.Post("/toggle", h.toggle)
			r.Post("/bulk", h.bulkApply)
			r.Post("/template", h.applyTemplate)
			r.Post("/save", h.save)
			r.Post("/reset", h.reset)
		})
	})
}

type catalogGroup struct {
	Name  string        `json:"name"`
	Pages []catalogPage `json:"pages"`
}

type catalogPage struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func (h *Handler) getCatalog(w http.ResponseWriter, r *http.Request) {
	groups := make([]catalogGroup, 0, len(catalog.Groups()))
	for _, name := range catalog.Groups() {
		g := catalogGroup{Name: name}
		for _, p := range catalog.PagesInGroup(name) {
			g.Pages = append(g.Pages, catalogPage{Key: p.Key, Label: p.Label, Description: p.Description})
		}
		groups = append(groups, g)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"groups":   groups,
		"actions":  catalog.Actions(),
		"stations": append(catalog.Stations(), catalog.AllStations),
	})
}

type checkRequest struct {
	Page    string `json:"page" validate:"required"`
	Action  string `json:"action" validate:"required"`
	Station string `json:"station"`
	MinRole string `json:"min_role"`
}

func (h *Handler) checkAccess(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	if !principal.Active {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "account disabled")
		return
	}
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	action, ok := catalog.ParseAction(req.Action)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown action")
		return
	}
	decision, err := h.guard.Allow(r.Context(), principal, req.Page, action, CheckOptions{
		TargetStation: req.Station,
		MinRole:       ParseRole(req.MinRole),
	})
	if err != nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Pending", "permissions still loading")
		return
	}
	httpx.JSON(w, http.StatusOK, decision)
}

func (h *Handler) getEffective(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetProfile(w, r)
	if !ok {
		return
	}
	res, err := h.resolver.Effective(r.Context(), target.Principal())
	if err != nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Pending", "permissions still loading")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":  target.ID,
		"role":     target.Role,
		"station":  target.Station,
		"source":   res.Source,
		"degraded": res.Degraded,
		"matrix":   res.Matrix,
	})
}

func (h *Handler) exportEffective(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetProfile(w, r)
	if !ok {
		return
	}
	res, err := h.resolver.Effective(r.Context(), target.Principal())
	if err != nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Pending", "permissions still loading")
		return
	}
	writeMatrixCSV(w, target, res.Matrix)
}

func (h *Handler) openDraft(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetProfile(w, r)
	if !ok {
		return
	}
	draft, err := h.editor.Open(r.Context(), target.Principal())
	if err != nil {
		h.respondEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

type toggleRequest struct {
	Page   string `json:"page" validate:"required"`
	Action string `json:"action" validate:"required"`
	Value  bool   `json:"value"`
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetID(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if !h.decode(w, r, &req) {
		return
	}
	action, ok := catalog.ParseAction(req.Action)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown action")
		return
	}
	draft, err := h.editor.Toggle(r.Context(), userID, req.Page, action, req.Value)
	if err != nil {
		h.respondEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

type bulkRequest struct {
	Group string `json:"group" validate:"required"`
	Mode  string `json:"mode" validate:"required,oneof=grant_all revoke_all view_only"`
}

func (h *Handler) bulkApply(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetID(w, r)
	if !ok {
		return
	}
	var req bulkRequest
	if !h.decode(w, r, &req) {
		return
	}
	mode, _ := ParseBulkMode(req.Mode)
	draft, err := h.editor.BulkApply(r.Context(), userID, req.Group, mode)
	if err != nil {
		h.respondEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

type templateRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) applyTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetID(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if !h.decode(w, r, &req) {
		return
	}
	role := ParseRole(req.Role)
	if role == RoleUnknown {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
		return
	}
	draft, err := h.editor.ApplyTemplate(r.Context(), userID, role)
	if err != nil {
		h.respondEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetID(w, r)
	if !ok {
		return
	}
	actor, _ := PrincipalFromContext(r.Context())
	draft, err := h.editor.Save(r.Context(), actor.ID, userID)
	if err != nil {
		// A save that cannot be confirmed persisted is a hard failure.
		if errors.Is(err, ErrStoreUnavailable) {
			httpx.Problem(w, http.StatusBadGateway, "Save Failed", "permission store unavailable, changes not persisted")
			return
		}
		h.respondEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetProfile(w, r)
	if !ok {
		return
	}
	draft, err := h.editor.Reset(r.Context(), target.Principal())
	if err != nil {
		h.respondEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) targetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) targetProfile(w http.ResponseWriter, r *http.Request) (ProfileRecord, bool) {
	id, ok := h.targetID(w, r)
	if !ok {
		return ProfileRecord{}, false
	}
	rec, err := h.store.GetProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such user")
			return ProfileRecord{}, false
		}
		h.logger.Error("get profile", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "profile store unreachable")
		return ProfileRecord{}, false
	}
	return rec, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondEditorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoDraft):
		httpx.Problem(w, http.StatusConflict, "No Draft", "open a draft before editing")
	case errors.Is(err, ErrProfileNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such user")
	case errors.Is(err, ErrStoreUnavailable):
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "permission store unreachable")
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	}
}
