package pagination

// Page-number pagination for the catalog read paths. The storefront client
// renders numbered pages, so offset pagination fits better than cursors here.

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 12
	// MaxPageSize caps how many rows any listing can request.
	MaxPageSize = 50
)

// Params holds page pagination inputs from controllers.
type Params struct {
	PageNumber int
	PageSize   int
}

// Metadata describes the page that was actually returned.
type Metadata struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
}

// Normalize clamps the params into the allowed range.
func (p Params) Normalize() Params {
	if p.PageNumber <= 0 {
		p.PageNumber = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.PageNumber - 1) * n.PageSize
}

// BuildMetadata computes page metadata for a total row count.
func BuildMetadata(p Params, totalCount int64) Metadata {
	n := p.Normalize()
	totalPages := int((totalCount + int64(n.PageSize) - 1) / int64(n.PageSize))
	return Metadata{
		CurrentPage: n.PageNumber,
		PageSize:    n.PageSize,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
	}
}
