// Package pagination selects one page of an ordered list.
package pagination

// MaxPageSize caps how many items one page may hold
const MaxPageSize = 500

// Params selects a page. A zero PageSize selects every item.
type Params struct {
	Page     int
	PageSize int
}

// All reports whether every item is selected
func (p Params) All() bool {
	return p.PageSize == 0
}

// Bounds returns the [start, end) range of the page within total items.
// Pages past the end select nothing.
func (p Params) Bounds(total int) (start, end int) {
	if p.All() {
		return 0, total
	}
	start = min(max(p.Page-1, 0)*p.PageSize, total)
	end = min(start+p.PageSize, total)
	return start, end
}

func (p Params) BuildMeta(totalItems int) Meta {
	totalPages := 0
	if !p.All() {
		totalPages = (totalItems + p.PageSize - 1) / p.PageSize
	}
	return Meta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Page returns the items p selects, never nil, and the meta describing them
func Page[T any](items []T, p Params) ([]T, Meta) {
	start, end := p.Bounds(len(items))
	page := make([]T, end-start)
	copy(page, items[start:end])
	return page, p.BuildMeta(len(items))
}

type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}
