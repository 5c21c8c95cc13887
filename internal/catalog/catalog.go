// Package catalog is the static registry of every portal page and the fixed
// action vocabulary permissions are evaluated against. It is configuration,
// not computed state: there are no failure modes and no external inputs.
package catalog

// Page describes one addressable feature/screen of the portal.
type Page struct {
	Key         string
	Group       string
	Label       string
	Description string
}

// Page keys referenced across the permission engine.
const (
	PageSalesEntry           = "sales_entry"
	PageDeliveryEntry        = "delivery_entry"
	PageShiftReports         = "shift_reports"
	PageProducts             = "products"
	PageInventoryAlerts      = "inventory_alerts"
	PageVendors              = "vendors"
	PageOrders               = "orders"
	PageEmployees            = "employees"
	PageSalaryRecords        = "salary_records"
	PageSalesReports         = "sales_reports"
	PageLicenses             = "licenses_certificates"
	PageDocumentArchive      = "document_archive"
	PageSMSAlerts            = "sms_alerts"
	PageNotificationSettings = "notification_settings"
	PageUserManagement       = "user_management"
	PageSiteManagement       = "site_management"
	PageSystemLogs           = "system_logs"
	PageSecuritySettings     = "security_settings"
)

// Group names. Insertion order below is the canonical display order and is
// irrelevant to authorization semantics.
const (
	GroupOperations     = "Operations"
	GroupProducts       = "Product Management"
	GroupHR             = "Human Resources"
	GroupReporting      = "Reporting & Documents"
	GroupComms          = "Communications"
	GroupAdministration = "Administration"
)

var pages = []Page{
	{Key: PageSalesEntry, Group: GroupOperations, Label: "Sales Entry", Description: "Daily station sales reports"},
	{Key: PageDeliveryEntry, Group: GroupOperations, Label: "Fuel Delivery", Description: "Tanker delivery records"},
	{Key: PageShiftReports, Group: GroupOperations, Label: "Shift Reports", Description: "Per-shift summaries"},

	{Key: PageProducts, Group: GroupProducts, Label: "Products", Description: "Product catalog and pricing"},
	{Key: PageInventoryAlerts, Group: GroupProducts, Label: "Inventory Alerts", Description: "Low stock warnings"},
	{Key: PageVendors, Group: GroupProducts, Label: "Vendors", Description: "Supplier directory"},
	{Key: PageOrders, Group: GroupProducts, Label: "Orders", Description: "Purchase orders"},

	{Key: PageEmployees, Group: GroupHR, Label: "Employees", Description: "Employee files"},
	{Key: PageSalaryRecords, Group: GroupHR, Label: "Salary Records", Description: "Payroll history"},

	{Key: PageSalesReports, Group: GroupReporting, Label: "Sales Reports", Description: "Aggregated sales reporting"},
	{Key: PageLicenses, Group: GroupReporting, Label: "Licenses & Certificates", Description: "Regulatory documents and expiry tracking"},
	{Key: PageDocumentArchive, Group: GroupReporting, Label: "Document Archive", Description: "Scanned document storage"},

	{Key: PageSMSAlerts, Group: GroupComms, Label: "SMS Alerts", Description: "Alert recipient management"},
	{Key: PageNotificationSettings, Group: GroupComms, Label: "Notification Settings", Description: "Delivery channel configuration"},

	{Key: PageUserManagement, Group: GroupAdministration, Label: "User Management", Description: "Accounts, roles and permissions"},
	{Key: PageSiteManagement, Group: GroupAdministration, Label: "Site Management", Description: "Station configuration"},
	{Key: PageSystemLogs, Group: GroupAdministration, Label: "System Logs", Description: "Audit and activity logs"},
	{Key: PageSecuritySettings, Group: GroupAdministration, Label: "Security Settings", Description: "Session and lockout policy"},
}

var groupOrder = []string{
	GroupOperations,
	GroupProducts,
	GroupHR,
	GroupReporting,
	GroupComms,
	GroupAdministration,
}

var pagesByKey = func() map[string]Page {
	m := make(map[string]Page, len(pages))
	for _, p := range pages {
		m[p.Key] = p
	}
	return m
}()

// Pages returns every page in canonical order.
func Pages() []Page {
	out := make([]Page, len(pages))
	copy(out, pages)
	return out
}

// Groups returns group names in canonical order.
func Groups() []string {
	out := make([]string, len(groupOrder))
	copy(out, groupOrder)
	return out
}

// PageByKey looks up a page by its stable key.
func PageByKey(key string) (Page, bool) {
	p, ok := pagesByKey[key]
	return p, ok
}

// PagesInGroup returns the pages belonging to the named group, in canonical
// order. Unknown group names yield an empty slice.
func PagesInGroup(group string) []Page {
	var out []Page
	for _, p := range pages {
		if p.Group == group {
			out = append(out, p)
		}
	}
	return out
}
