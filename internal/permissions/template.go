package permissions

import "github.com/mobil3801/dfs-manager-portal/internal/catalog"

// Sensitive administrative pages Management and Manager roles may only view
// and export. There is a single canonical table; both roles share it.
var managementDenylist = map[string]struct{}{
	catalog.PageUserManagement:   {},
	catalog.PageSystemLogs:       {},
	catalog.PageSecuritySettings: {},
}

// Day-to-day operational pages employees work in directly.
var employeeOperational = map[string]struct{}{
	catalog.PageSalesEntry:    {},
	catalog.PageDeliveryEntry: {},
}

// Inventory-facing pages employees may look at but not change.
var employeeReadOnly = map[string]struct{}{
	catalog.PageProducts:        {},
	catalog.PageInventoryAlerts: {},
}

// DefaultMatrix derives the complete default permission matrix for a role.
// It is pure and deterministic: same role in, identical matrix out, one cell
// per catalog page. Unknown roles get an all-false matrix so a custom role
// never gains implicit privilege.
func DefaultMatrix(role Role) Matrix {
	m := make(Matrix, len(catalog.Pages()))
	for _, p := range catalog.Pages() {
		m[p.Key] = defaultCell(role, p.Key)
	}
	return m
}

func defaultCell(role Role, pageKey string) Cell {
	switch role {
	case RoleAdministrator:
		return FullCell()
	case RoleManagement, RoleManager:
		if _, denied := managementDenylist[pageKey]; denied {
			return ViewExportCell()
		}
		return FullCell()
	case RoleEmployee:
		if _, ok := employeeOperational[pageKey]; ok {
			return Cell{View: true, Create: true, Edit: true, Print: true}
		}
		if _, ok := employeeReadOnly[pageKey]; ok {
			return Cell{View: true}
		}
		return Cell{}
	default:
		return Cell{}
	}
}
