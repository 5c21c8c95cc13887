package permissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
)

func newTestResolver(t *testing.T, store Store) *Resolver {
	t.Helper()
	cache := NewMatrixCache(testRedis(t), time.Minute)
	return NewResolver(store, cache, nil)
}

func TestEffectiveTemplateOnly(t *testing.T) {
	store := newStubStore()
	rec := employeeProfile()
	store.addProfile(rec)

	resolver := newTestResolver(t, store)
	res, err := resolver.Effective(context.Background(), principalFor(rec))
	require.NoError(t, err)
	require.Equal(t, SourceTemplate, res.Source)
	require.False(t, res.Degraded)
	require.Equal(t, DefaultMatrix(RoleEmployee), res.Matrix)
}

func TestEffectiveFailClosedForUnknownUser(t *testing.T) {
	store := newStubStore()
	resolver := newTestResolver(t, store)

	ghost := employeeProfile() // never added to the store
	res, err := resolver.Effective(context.Background(), principalFor(ghost))
	require.NoError(t, err)
	require.Equal(t, SourceFailClosed, res.Source)
	require.True(t, res.Matrix.Covered())
	for _, p := range catalog.Pages() {
		for _, a := range catalog.Actions() {
			require.False(t, res.Matrix.Cell(p.Key).Allows(a), "page %s action %s", p.Key, a)
		}
	}
}

func TestEffectiveOverrideReplacesPageWholesale(t *testing.T) {
	store := newStubStore()
	rec := adminProfile()
	store.addProfile(rec)

	// Template grants view on sales_entry for admins; override zeroes the
	// whole page. Override wins per page, not per action.
	raw, err := Override{catalog.PageSalesEntry: {}}.Serialize()
	require.NoError(t, err)
	store.setRawOverride(rec.ID, raw)

	resolver := newTestResolver(t, store)
	res, err := resolver.Effective(context.Background(), principalFor(rec))
	require.NoError(t, err)
	require.Equal(t, SourceCustom, res.Source)
	require.False(t, res.Matrix.Cell(catalog.PageSalesEntry).View)
	// Untouched pages keep the template.
	require.Equal(t, FullCell(), res.Matrix.Cell(catalog.PageDeliveryEntry))
}

func TestEffectiveSingleCellGrantKeepsSiblingsAsOverrideSays(t *testing.T) {
	store := newStubStore()
	rec := employeeProfile()
	store.addProfile(rec)

	raw, err := Override{catalog.PageUserManagement: {View: true}}.Serialize()
	require.NoError(t, err)
	store.setRawOverride(rec.ID, raw)

	resolver := newTestResolver(t, store)
	res, err := resolver.Effective(context.Background(), principalFor(rec))
	require.NoError(t, err)

	cell := res.Matrix.Cell(catalog.PageUserManagement)
	require.True(t, cell.View)
	// Siblings stay exactly as the override specified, not re-templated.
	require.Equal(t, Cell{View: true}, cell)
}

func TestEffectiveMalformedOverrideFallsBackToTemplate(t *testing.T) {
	store := newStubStore()
	rec := employeeProfile()
	store.addProfile(rec)
	store.setRawOverride(rec.ID, []byte(`{"sales_entry": "corrupt`))

	resolver := newTestResolver(t, store)
	res, err := resolver.Effective(context.Background(), principalFor(rec))
	require.NoError(t, err)
	require.Equal(t, SourceTemplate, res.Source)
	require.False(t, res.Degraded)
	require.Equal(t, DefaultMatrix(RoleEmployee), res.Matrix)
}

func TestEffectiveStoreUnavailableDegradesToTemplate(t *testing.T) {
	store := newStubStore()
	rec := employeeProfile()
	store.addProfile(rec)
	store.readErr = ErrStoreUnavailable

	resolver := newTestResolver(t, store)
	res, err := resolver.Effective(context.Background(), principalFor(rec))
	require.NoError(t, err)
	require.True(t, res.Degraded)
	// Degraded resolution is the template, never full access.
	require.Equal(t, DefaultMatrix(RoleEmployee), res.Matrix)
}

func TestEffectiveSkipsStalePageKeys(t *testing.T) {
	store := newStubStore()
	rec := employeeProfile()
	store.addProfile(rec)
	store.setRawOverride(rec.ID, []byte(`{"decommissioned_page": {"view": true}}`))

	resolver := newTestResolver(t, store)
	res, err := resolver.Effective(context.Background(), principalFor(rec))
	require.NoError(t, err)
	_, present := res.Matrix["decommissioned_page"]
	require.False(t, present)
	require.True(t, res.Matrix.Covered())
}

func TestEffectiveCancelledContextIsDeferred(t *testing.T) {
	store := newStubStore()
	rec := employeeProfile()
	store.addProfile(rec)

	resolver := newTestResolver(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := resolver.Effective(ctx, principalFor(rec))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestEffectiveCacheInvalidation(t *testing.T) {
	store := newStubStore()
	rec := employeeProfile()
	store.addProfile(rec)

	resolver := newTestResolver(t, store)
	ctx := context.Background()

	res, err := resolver.Effective(ctx, principalFor(rec))
	require.NoError(t, err)
	require.Equal(t, SourceTemplate, res.Source)

	raw, err := Override{catalog.PageUserManagement: {View: true}}.Serialize()
	require.NoError(t, err)
	store.setRawOverride(rec.ID, raw)

	// Cached resolution still serves until invalidated.
	res, err = resolver.Effective(ctx, principalFor(rec))
	require.NoError(t, err)
	require.Equal(t, SourceTemplate, res.Source)

	resolver.Invalidate(ctx, rec.ID)
	res, err = resolver.Effective(ctx, principalFor(rec))
	require.NoError(t, err)
	require.Equal(t, SourceCustom, res.Source)
}

func TestEffectiveRoleChangeBypassesCachedMatrix(t *testing.T) {
	store := newStubStore()
	rec := employeeProfile()
	rec.Role = RoleManagement
	store.addProfile(rec)

	resolver := newTestResolver(t, store)
	ctx := context.Background()

	// Warm the cache with the Management matrix.
	res, err := resolver.Effective(ctx, principalFor(rec))
	require.NoError(t, err)
	require.True(t, res.Matrix.Cell(catalog.PageEmployees).Delete)

	// Demotion takes effect on the very next resolution, not after the
	// cache TTL runs out.
	rec.Role = RoleEmployee
	store.addProfile(rec)
	res, err = resolver.Effective(ctx, principalFor(rec))
	require.NoError(t, err)
	require.False(t, res.Matrix.Cell(catalog.PageEmployees).Delete)
	require.Equal(t, DefaultMatrix(RoleEmployee), res.Matrix)
}
