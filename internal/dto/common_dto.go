package dto

// Page is the pagination envelope every listing endpoint returns.
type Page[T any] struct {
	Docs       []T   `json:"docs"`
	TotalDocs  int64 `json:"totalDocs"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page"`
}

// NewPage builds the envelope from a result slice and the total row count.
func NewPage[T any](docs []T, total int64, page, limit int) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{Docs: docs, TotalDocs: total, TotalPages: totalPages, Page: page}
}

// PageFilter carries the page/limit/search triple shared by most listings.
type PageFilter struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
}

// Normalize applies the listing defaults (page 1, 10 per page).
func (f *PageFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
}

// Offset is the SQL offset for the current page.
func (f PageFilter) Offset() int { return (f.Page - 1) * f.Limit }

type MensajeResponse struct {
	Msg string `json:"msg"`
}
