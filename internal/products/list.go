package products

import (
	"strings"

	"github.com/dmarrez/storefront-backend/pkg/pagination"
)

// Sort orders supported by the browse endpoint.
const (
	SortName      = "name"
	SortPrice     = "price"
	SortPriceDesc = "priceDesc"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Search string
	Types  []string
	Brands []string
	Sort   string
}

// ListInput captures the inputs needed to paginate and filter the catalog.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// FilterOptions is the distinct brand/type inventory used by the storefront UI.
type FilterOptions struct {
	Brands []string `json:"brands"`
	Types  []string `json:"types"`
}

// ParseCSV splits a comma separated filter value, dropping empties.
func ParseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeSort(sort string) string {
	switch sort {
	case SortPrice, SortPriceDesc:
		return sort
	default:
		return SortName
	}
}
