package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// FeeCategorySortFields are the sortable columns of fee_categories
var FeeCategorySortFields = map[string]bool{
	"created_at":    true,
	"name":          true,
	"display_order": true,
}

// ClassFeeSortFields are the sortable columns of class_fees
var ClassFeeSortFields = map[string]bool{
	"created_at":     true,
	"effective_from": true,
	"version_number": true,
	"amount":         true,
}

// TransportFeeSortFields are the sortable columns of transport_fees
var TransportFeeSortFields = map[string]bool{
	"created_at":     true,
	"effective_from": true,
	"version_number": true,
	"base_fee":       true,
}

// OptionalFeeSortFields are the sortable columns of optional_fees
var OptionalFeeSortFields = map[string]bool{
	"created_at":     true,
	"effective_from": true,
	"version_number": true,
	"name":           true,
	"default_amount": true,
}

// TransportRouteSortFields are the sortable columns of transport_routes
var TransportRouteSortFields = map[string]bool{
	"created_at": true,
	"route_name": true,
	"zone":       true,
}

// FeeBillSortFields are the sortable columns of fee_bills
var FeeBillSortFields = map[string]bool{
	"created_at":  true,
	"bill_number": true,
	"bill_date":   true,
	"due_date":    true,
	"net_amount":  true,
	"balance":     true,
	"period_year": true,
}

// SalaryRecordSortFields are the sortable columns of salary_records
var SalaryRecordSortFields = map[string]bool{
	"created_at":     true,
	"year":           true,
	"month":          true,
	"period_start":   true,
	"net_salary":     true,
	"pending_amount": true,
}
