package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
)

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleAdministrator, ParseRole("Administrator"))
	require.Equal(t, RoleAdministrator, ParseRole("ADMIN"))
	require.Equal(t, RoleManagement, ParseRole("management"))
	require.Equal(t, RoleManager, ParseRole(" Manager "))
	require.Equal(t, RoleEmployee, ParseRole("employee"))
	require.Equal(t, RoleUnknown, ParseRole("supervisor"))
	require.Equal(t, RoleUnknown, ParseRole(""))
}

func TestRoleHierarchyMonotonicity(t *testing.T) {
	roles := []Role{RoleEmployee, RoleManagement, RoleManager, RoleAdministrator}
	for _, have := range roles {
		for _, min := range roles {
			got := have.Meets(min)
			want := have.Level() >= min.Level()
			require.Equal(t, want, got, "have=%s min=%s", have, min)
		}
	}
	// Unknown roles never meet a named minimum but always meet "no minimum".
	require.False(t, RoleUnknown.Meets(RoleEmployee))
	require.True(t, RoleAdministrator.Meets(RoleUnknown))
}

func TestCellSetAndAllowsCoverAllActions(t *testing.T) {
	for _, a := range catalog.Actions() {
		var c Cell
		require.False(t, c.Allows(a))
		c.Set(a, true)
		require.True(t, c.Allows(a), "action %s", a)
		for _, other := range catalog.Actions() {
			if other != a {
				require.False(t, c.Allows(other), "setting %s leaked into %s", a, other)
			}
		}
	}
}

func TestOverrideRoundTrip(t *testing.T) {
	o := Override{
		catalog.PageSalesEntry:     {View: true, Create: true, Print: true},
		catalog.PageUserManagement: {},
		catalog.PageSystemLogs:     FullCell(),
	}
	raw, err := o.Serialize()
	require.NoError(t, err)

	parsed, err := ParseOverride(raw)
	require.NoError(t, err)
	require.Equal(t, o, parsed)
}

func TestOverrideSerializeDeterministic(t *testing.T) {
	o := Override{
		catalog.PageVendors:  {View: true},
		catalog.PageProducts: {View: true, Edit: true},
		catalog.PageOrders:   {},
	}
	first, err := o.Serialize()
	require.NoError(t, err)
	second, err := o.Serialize()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestParseOverrideDefaultsAndUnknownFields(t *testing.T) {
	raw := []byte(`{"sales_entry": {"view": true, "future_action": true}}`)
	o, err := ParseOverride(raw)
	require.NoError(t, err)

	cell := o[catalog.PageSalesEntry]
	require.True(t, cell.View)
	// Every field absent from the document reads as false.
	require.False(t, cell.Create)
	require.False(t, cell.Delete)
	require.False(t, cell.AdvancedFeatures)
}

func TestParseOverrideEmptyAndNil(t *testing.T) {
	o, err := ParseOverride(nil)
	require.NoError(t, err)
	require.Empty(t, o)

	o, err = ParseOverride([]byte(`{}`))
	require.NoError(t, err)
	require.Empty(t, o)

	o, err = ParseOverride([]byte(`null`))
	require.NoError(t, err)
	require.NotNil(t, o)
}

func TestParseOverrideMalformed(t *testing.T) {
	_, err := ParseOverride([]byte(`{"sales_entry": "yes"`))
	require.Error(t, err)
}

func TestMatrixNormalizeCoversCatalog(t *testing.T) {
	m := Matrix{catalog.PageSalesEntry: {View: true}}
	require.False(t, m.Covered())
	m.Normalize()
	require.True(t, m.Covered())
	require.Len(t, m, len(catalog.Pages()))
	// Synthesized cells are all-false, never an error.
	require.Equal(t, Cell{}, m.Cell(catalog.PageSystemLogs))
}

func TestMatrixCloneIsIndependent(t *testing.T) {
	m := DefaultMatrix(RoleEmployee)
	clone := m.Clone()
	cell := clone[catalog.PageSalesEntry]
	cell.Delete = true
	clone[catalog.PageSalesEntry] = cell

	require.False(t, m.Cell(catalog.PageSalesEntry).Delete)
	require.True(t, clone.Cell(catalog.PageSalesEntry).Delete)
}
