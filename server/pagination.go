package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/kasuboski/umaru/pkg/pagination"
)

// ParsePaginationParams reads page and pageSize from the query. Both are
// optional; without pageSize every item is returned.
func ParsePaginationParams(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{Page: 1}

	qp := r.URL.Query()

	if raw := qp.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid page %q: must be a positive integer", raw)
		}
		params.Page = page
	}

	if raw := qp.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 || size > pagination.MaxPageSize {
			return params, fmt.Errorf("invalid pageSize %q: must be between 0 and %d", raw, pagination.MaxPageSize)
		}
		params.PageSize = size
	}

	return params, nil
}
