package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
)

func TestDefaultMatrixCoversEveryPageExactlyOnce(t *testing.T) {
	for _, role := range []Role{RoleAdministrator, RoleManagement, RoleManager, RoleEmployee, RoleUnknown} {
		m := DefaultMatrix(role)
		require.Len(t, m, len(catalog.Pages()), "role %q", role)
		require.True(t, m.Covered(), "role %q", role)
	}
}

func TestDefaultMatrixDeterministic(t *testing.T) {
	require.Equal(t, DefaultMatrix(RoleManagement), DefaultMatrix(RoleManagement))
}

func TestAdministratorTemplateGrantsEverything(t *testing.T) {
	m := DefaultMatrix(RoleAdministrator)
	for _, p := range catalog.Pages() {
		for _, a := range catalog.Actions() {
			require.True(t, m.Cell(p.Key).Allows(a), "page %s action %s", p.Key, a)
		}
	}
	require.True(t, m.Cell(catalog.PageUserManagement).Delete)
}

func TestManagementTemplateDenylist(t *testing.T) {
	for _, role := range []Role{RoleManagement, RoleManager} {
		m := DefaultMatrix(role)
		for _, key := range []string{catalog.PageUserManagement, catalog.PageSystemLogs, catalog.PageSecuritySettings} {
			cell := m.Cell(key)
			require.True(t, cell.View, "role %s page %s", role, key)
			require.True(t, cell.Export, "role %s page %s", role, key)
			for _, a := range catalog.Actions() {
				if a == catalog.ActionView || a == catalog.ActionExport {
					continue
				}
				require.False(t, cell.Allows(a), "role %s page %s action %s", role, key, a)
			}
		}
		// Everything off the denylist is fully granted.
		require.Equal(t, FullCell(), m.Cell(catalog.PageSalesEntry))
		require.Equal(t, FullCell(), m.Cell(catalog.PageEmployees))
	}
}

func TestManagementAndManagerShareOneTemplate(t *testing.T) {
	require.Equal(t, DefaultMatrix(RoleManagement), DefaultMatrix(RoleManager))
}

func TestEmployeeTemplate(t *testing.T) {
	m := DefaultMatrix(RoleEmployee)

	for _, key := range []string{catalog.PageSalesEntry, catalog.PageDeliveryEntry} {
		cell := m.Cell(key)
		require.True(t, cell.View && cell.Create && cell.Edit && cell.Print, "page %s", key)
		require.False(t, cell.Delete || cell.Export || cell.Approve || cell.BulkOperations || cell.AdvancedFeatures, "page %s", key)
	}

	for _, key := range []string{catalog.PageProducts, catalog.PageInventoryAlerts} {
		require.Equal(t, Cell{View: true}, m.Cell(key), "page %s", key)
	}

	require.Equal(t, Cell{}, m.Cell(catalog.PageUserManagement))
	require.False(t, m.Cell(catalog.PageUserManagement).View)
	require.Equal(t, Cell{}, m.Cell(catalog.PageSalaryRecords))
}

func TestUnknownRoleTemplateIsAllFalse(t *testing.T) {
	m := DefaultMatrix(RoleUnknown)
	for _, p := range catalog.Pages() {
		require.Equal(t, Cell{}, m.Cell(p.Key), "page %s", p.Key)
	}
}
