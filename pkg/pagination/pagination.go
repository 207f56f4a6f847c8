package pagination

import (
	"net/url"
	"strconv"
)

// PageRequest selects one page of a newest-first listing.
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize clamps the request into the bounds cfg allows.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// Offset is the number of rows preceding the page.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery reads page and page_size from values. limit is
// accepted as an alias for page_size. Values that do not parse are ignored.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	size := values.Get("page_size")
	if size == "" {
		size = values.Get("limit")
	}

	req := PageRequest{
		Page:     atoi(values.Get("page")),
		PageSize: atoi(size),
	}
	req.Normalize(cfg)
	return req
}

// PageResult is one page of T plus the counts needed to walk the rest.
type PageResult[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPageResult wraps data. An empty listing still reports one page and
// Data is never nil so it encodes as [].
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
