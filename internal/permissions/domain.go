// Package permissions implements the portal's page/action permission engine:
// role templates, the persisted per-user override, the resolver that merges
// the two into the effective matrix, the editor used by administrators, and
// the access guard consulted by every protected route.
package permissions

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
)

// Role is the portal role an account holds. Roles form a total order used
// for hierarchy checks: Employee < Management/Manager < Administrator.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleManagement    Role = "Management"
	RoleManager       Role = "Manager"
	RoleEmployee      Role = "Employee"
	// RoleUnknown covers custom or unrecognized role names. It carries no
	// implicit privilege anywhere in the engine.
	RoleUnknown Role = ""
)

// ParseRole maps a raw role name onto the enum, case-insensitively.
// Anything unrecognized becomes RoleUnknown.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "administrator", "admin":
		return RoleAdministrator
	case "management":
		return RoleManagement
	case "manager":
		return RoleManager
	case "employee":
		return RoleEmployee
	default:
		return RoleUnknown
	}
}

// Level returns the role's position in the total order. RoleUnknown sits
// below every named role.
func (r Role) Level() int {
	switch r {
	case RoleAdministrator:
		return 3
	case RoleManagement, RoleManager:
		return 2
	case RoleEmployee:
		return 1
	default:
		return 0
	}
}

// Meets reports whether the role satisfies the given minimum role.
func (r Role) Meets(min Role) bool {
	return r.Level() >= min.Level()
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }

// Principal is the authenticated identity authorization decisions are made
// about.
type Principal struct {
	ID      uuid.UUID
	Role    Role
	Station string
	Active  bool
}

// Cell holds the nine action flags for one (user, page) pair. Missing fields
// deserialize to false; unknown fields in stored documents are ignored.
type Cell struct {
	View             bool `json:"view"`
	Create           bool `json:"create"`
	Edit             bool `json:"edit"`
	Delete           bool `json:"delete"`
	Export           bool `json:"export"`
	Print            bool `json:"print"`
	Approve          bool `json:"approve"`
	BulkOperations   bool `json:"bulk_operations"`
	AdvancedFeatures bool `json:"advanced_features"`
}

// Allows reports whether the cell grants the given action.
func (c Cell) Allows(a catalog.Action) bool {
	switch a {
	case catalog.ActionView:
		return c.View
	case catalog.ActionCreate:
		return c.Create
	case catalog.ActionEdit:
		return c.Edit
	case catalog.ActionDelete:
		return c.Delete
	case catalog.ActionExport:
		return c.Export
	case catalog.ActionPrint:
		return c.Print
	case catalog.ActionApprove:
		return c.Approve
	case catalog.ActionBulkOperations:
		return c.BulkOperations
	case catalog.ActionAdvancedFeatures:
		return c.AdvancedFeatures
	default:
		return false
	}
}

// Set assigns one action flag in place.
func (c *Cell) Set(a catalog.Action, value bool) {
	switch a {
	case catalog.ActionView:
		c.View = value
	case catalog.ActionCreate:
		c.Create = value
	case catalog.ActionEdit:
		c.Edit = value
	case catalog.ActionDelete:
		c.Delete = value
	case catalog.ActionExport:
		c.Export = value
	case catalog.ActionPrint:
		c.Print = value
	case catalog.ActionApprove:
		c.Approve = value
	case catalog.ActionBulkOperations:
		c.BulkOperations = value
	case catalog.ActionAdvancedFeatures:
		c.AdvancedFeatures = value
	}
}

// FullCell returns a cell with every action granted.
func FullCell() Cell {
	var c Cell
	for _, a := range catalog.Actions() {
		c.Set(a, true)
	}
	return c
}

// ViewExportCell returns a cell granting view and export only.
func ViewExportCell() Cell {
	return Cell{View: true, Export: true}
}

// Matrix is the complete page-key to cell mapping for one user. Effective
// matrices always cover every catalog page; a page absent from the map reads
// as all-false.
type Matrix map[string]Cell

// Cell returns the cell for a page key, synthesizing all-false for pages the
// matrix does not carry.
func (m Matrix) Cell(pageKey string) Cell {
	return m[pageKey]
}

// Clone returns an independent copy.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Covered reports whether the matrix carries a cell for every catalog page.
func (m Matrix) Covered() bool {
	for _, p := range catalog.Pages() {
		if _, ok := m[p.Key]; !ok {
			return false
		}
	}
	return true
}

// Normalize fills in all-false cells for any catalog page the matrix lacks.
func (m Matrix) Normalize() Matrix {
	for _, p := range catalog.Pages() {
		if _, ok := m[p.Key]; !ok {
			m[p.Key] = Cell{}
		}
	}
	return m
}

// Override is the persisted, sparse deviation from the role template: page
// keys mapped to complete cells. An empty override means "use the role
// default verbatim". Overrides replace template cells wholesale per page;
// there is no action-granular merge.
type Override map[string]Cell

// ParseOverride decodes a stored override document. Page keys the catalog no
// longer knows are kept as-is; the resolver skips them and the integrity scan
// reports them. Unknown action fields inside cells are dropped by the JSON
// decoder, missing ones default to false.
func ParseOverride(raw []byte) (Override, error) {
	if len(raw) == 0 {
		return Override{}, nil
	}
	var o Override
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	if o == nil {
		o = Override{}
	}
	return o, nil
}

// Serialize encodes the override for storage. json.Marshal sorts map keys,
// so equal overrides serialize identically.
func (o Override) Serialize() ([]byte, error) {
	if o == nil {
		o = Override{}
	}
	return json.Marshal(o)
}
