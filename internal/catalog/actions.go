package catalog

// Action is one of the fixed operation kinds a page can be guarded on.
type Action string

// The closed action vocabulary. Every page is evaluated against the same
// nine actions; actions that make no sense for a page simply stay false.
const (
	ActionView             Action = "view"
	ActionCreate           Action = "create"
	ActionEdit             Action = "edit"
	ActionDelete           Action = "delete"
	ActionExport           Action = "export"
	ActionPrint            Action = "print"
	ActionApprove          Action = "approve"
	ActionBulkOperations   Action = "bulk_operations"
	ActionAdvancedFeatures Action = "advanced_features"
)

var actionOrder = []Action{
	ActionView,
	ActionCreate,
	ActionEdit,
	ActionDelete,
	ActionExport,
	ActionPrint,
	ActionApprove,
	ActionBulkOperations,
	ActionAdvancedFeatures,
}

// Actions returns the action set in canonical display order.
func Actions() []Action {
	out := make([]Action, len(actionOrder))
	copy(out, actionOrder)
	return out
}

// ParseAction validates a raw action name against the closed set.
func ParseAction(raw string) (Action, bool) {
	for _, a := range actionOrder {
		if string(a) == raw {
			return a, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (a Action) String() string { return string(a) }
