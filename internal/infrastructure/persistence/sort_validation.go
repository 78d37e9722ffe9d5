package persistence

import (
	"strings"

	"github.com/giftcampaign/backend/internal/domain/shared"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	if f := strings.TrimSpace(sortField); allowedFields[f] {
		return f
	}
	return defaultField
}

// orderClause builds a safe ORDER BY expression from a filter. defaultDir
// applies when the filter names no direction.
func orderClause(filter shared.Filter, allowedFields map[string]bool, defaultField, defaultDir string) string {
	dir := filter.OrderDir
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	return ValidateSortField(filter.OrderBy, allowedFields, defaultField) + " " + ValidateSortOrder(dir)
}
