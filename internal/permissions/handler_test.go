package permissions

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
)

func newTestRouter(t *testing.T, store *stubStore) (chi.Router, *Resolver) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := newTestResolver(t, store)
	guard := NewGuard(resolver, nil)
	editor := NewEditor(store, resolver, testDraftStore(t), nil, logger)
	mw := Middleware{Guard: guard, Logger: logger}
	h := NewHandler(logger, store, resolver, editor, guard, mw)

	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, resolver
}

func doRequest(t *testing.T, router chi.Router, principal *Principal, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if principal != nil {
		req = req.WithContext(ContextWithPrincipal(req.Context(), *principal))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func managementProfile() ProfileRecord {
	return ProfileRecord{
		ID:         uuid.New(),
		Email:      "manager@station.test",
		Name:       "Station Manager",
		Role:       RoleManagement,
		Station:    catalog.StationAmocoRosedale,
		EmployeeID: "EMP-0207",
		Active:     true,
	}
}

func TestHandlerCatalog(t *testing.T) {
	router, _ := newTestRouter(t, newStubStore())
	rec := doRequest(t, router, nil, http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Groups []struct {
			Name  string `json:"name"`
			Pages []struct {
				Key string `json:"key"`
			} `json:"pages"`
		} `json:"groups"`
		Actions  []string `json:"actions"`
		Stations []string `json:"stations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Groups, len(catalog.Groups()))
	require.Len(t, body.Actions, len(catalog.Actions()))
	require.Contains(t, body.Stations, catalog.AllStations)

	total := 0
	for _, g := range body.Groups {
		total += len(g.Pages)
	}
	require.Equal(t, len(catalog.Pages()), total)
}

func TestHandlerCheckAccess(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	emp := employeeProfile()
	store.addProfile(admin)
	store.addProfile(emp)
	router, _ := newTestRouter(t, store)

	adminPrincipal := principalFor(admin)
	rec := doRequest(t, router, &adminPrincipal, http.MethodPost, "/access/check",
		`{"page":"user_management","action":"delete"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	require.True(t, decision.Allowed)

	empPrincipal := principalFor(emp)
	rec = doRequest(t, router, &empPrincipal, http.MethodPost, "/access/check",
		`{"page":"user_management","action":"view"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	require.False(t, decision.Allowed)
	require.Equal(t, DenyMissingPermission, decision.Reason)
}

func TestHandlerCheckAccessValidation(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	store.addProfile(admin)
	router, _ := newTestRouter(t, store)

	rec := doRequest(t, router, nil, http.MethodPost, "/access/check",
		`{"page":"sales_entry","action":"view"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	p := principalFor(admin)
	rec = doRequest(t, router, &p, http.MethodPost, "/access/check",
		`{"page":"sales_entry","action":"levitate"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, &p, http.MethodPost, "/access/check", `{"page":"sales_entry"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCheckAccessInactivePrincipal(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	admin.Active = false
	store.addProfile(admin)
	router, _ := newTestRouter(t, store)

	// A deactivated account gets the same refusal the route guards give it;
	// it cannot keep probing decisions for the rest of its session.
	p := principalFor(admin)
	rec := doRequest(t, router, &p, http.MethodPost, "/access/check",
		`{"page":"sales_entry","action":"view"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "account disabled")
}

func TestHandlerEffectiveGuarded(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	emp := employeeProfile()
	store.addProfile(admin)
	store.addProfile(emp)
	router, _ := newTestRouter(t, store)

	path := fmt.Sprintf("/users/%s/permissions/", emp.ID)

	rec := doRequest(t, router, nil, http.MethodGet, path, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	empPrincipal := principalFor(emp)
	rec = doRequest(t, router, &empPrincipal, http.MethodGet, path, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), string(DenyMissingPermission))

	adminPrincipal := principalFor(admin)
	rec = doRequest(t, router, &adminPrincipal, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UserID uuid.UUID `json:"user_id"`
		Source Source    `json:"source"`
		Matrix Matrix    `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, emp.ID, body.UserID)
	require.Equal(t, SourceTemplate, body.Source)
	require.Len(t, body.Matrix, len(catalog.Pages()))
}

func TestHandlerEffectiveUnknownUser(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	store.addProfile(admin)
	router, _ := newTestRouter(t, store)

	p := principalFor(admin)
	rec := doRequest(t, router, &p, http.MethodGet,
		fmt.Sprintf("/users/%s/permissions/", uuid.New()), "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, &p, http.MethodGet, "/users/not-a-uuid/permissions/", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerInactivePrincipal(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	admin.Active = false
	store.addProfile(admin)
	router, _ := newTestRouter(t, store)

	p := principalFor(admin)
	rec := doRequest(t, router, &p, http.MethodGet,
		fmt.Sprintf("/users/%s/permissions/", admin.ID), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "account disabled")
}

func TestHandlerEditorRequiresAdministrator(t *testing.T) {
	store := newStubStore()
	mgr := managementProfile()
	emp := employeeProfile()
	store.addProfile(mgr)
	store.addProfile(emp)
	router, _ := newTestRouter(t, store)

	// Management can view user management but cannot edit it, so the editor
	// surface reports the missing permission, not the role gap.
	mgrPrincipal := principalFor(mgr)
	rec := doRequest(t, router, &mgrPrincipal, http.MethodPost,
		fmt.Sprintf("/users/%s/permissions/draft", emp.ID), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), string(DenyMissingPermission))
}

func TestHandlerEditorFlow(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	emp := employeeProfile()
	store.addProfile(admin)
	store.addProfile(emp)
	router, _ := newTestRouter(t, store)

	p := principalFor(admin)
	base := fmt.Sprintf("/users/%s/permissions", emp.ID)

	rec := doRequest(t, router, &p, http.MethodPost, base+"/draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var draft Draft
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	require.False(t, draft.Dirty)

	rec = doRequest(t, router, &p, http.MethodPost, base+"/toggle",
		`{"page":"vendors","action":"delete","value":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	require.True(t, draft.Dirty)
	require.True(t, draft.Matrix.Cell(catalog.PageVendors).Delete)

	rec = doRequest(t, router, &p, http.MethodPost, base+"/bulk",
		`{"group":"Human Resources","mode":"grant_all"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, &p, http.MethodPost, base+"/save", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	require.False(t, draft.Dirty)
	require.Equal(t, 1, store.writes)

	// Saved state is immediately visible through the read endpoint.
	rec = doRequest(t, router, &p, http.MethodGet, base+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Source Source `json:"source"`
		Matrix Matrix `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, SourceCustom, body.Source)
	require.True(t, body.Matrix.Cell(catalog.PageVendors).Delete)
	require.Equal(t, FullCell(), body.Matrix.Cell(catalog.PageEmployees))
}

func TestHandlerEditorValidation(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	emp := employeeProfile()
	store.addProfile(admin)
	store.addProfile(emp)
	router, _ := newTestRouter(t, store)

	p := principalFor(admin)
	base := fmt.Sprintf("/users/%s/permissions", emp.ID)

	// Mutations without an open draft conflict rather than silently opening one.
	rec := doRequest(t, router, &p, http.MethodPost, base+"/toggle",
		`{"page":"vendors","action":"delete","value":true}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, router, &p, http.MethodPost, base+"/draft", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, &p, http.MethodPost, base+"/toggle",
		`{"page":"vendors","action":"levitate","value":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, &p, http.MethodPost, base+"/bulk",
		`{"group":"Human Resources","mode":"grant_some"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, &p, http.MethodPost, base+"/template",
		`{"role":"supervisor"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSaveFailure(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	emp := employeeProfile()
	store.addProfile(admin)
	store.addProfile(emp)
	router, _ := newTestRouter(t, store)

	p := principalFor(admin)
	base := fmt.Sprintf("/users/%s/permissions", emp.ID)

	rec := doRequest(t, router, &p, http.MethodPost, base+"/draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, router, &p, http.MethodPost, base+"/toggle",
		`{"page":"vendors","action":"view","value":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	store.writeErr = ErrStoreUnavailable
	rec = doRequest(t, router, &p, http.MethodPost, base+"/save", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "not persisted")
}

func TestHandlerExportCSV(t *testing.T) {
	store := newStubStore()
	admin := adminProfile()
	emp := employeeProfile()
	store.addProfile(admin)
	store.addProfile(emp)
	router, _ := newTestRouter(t, store)

	p := principalFor(admin)
	rec := doRequest(t, router, &p, http.MethodGet,
		fmt.Sprintf("/users/%s/permissions/export", emp.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), emp.ID.String())

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\r\n")
	require.Len(t, lines, len(catalog.Pages())+1)
	require.Equal(t, "group,page,label,view,create,edit,delete,export,print,approve,bulk_operations,advanced_features", lines[0])
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "Operations,sales_entry,") {
			fields := strings.Split(line, ",")
			// view,create,edit,print granted to employees, everything else off.
			require.Equal(t, []string{"true", "true", "true", "false", "false", "true", "false", "false", "false"}, fields[3:])
			return
		}
	}
	t.Fatalf("sales_entry row missing from export")
}
