package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPageSize applies when the client omits page_size.
	DefaultPageSize = 20
	// MaxPageSize is the upper bound enforced server-side.
	MaxPageSize = 50
	// MaxPage is the highest page number honoured for offset paging.
	MaxPage = 100_000
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Offset   int    `json:"-"`
	Cursor   string `json:"cursor,omitempty"`
}

// DefaultParams returns the first page with the default size.
func DefaultParams() Params {
	return Params{
		Page:     1,
		PageSize: DefaultPageSize,
		Offset:   0,
	}
}

// FromRequest extracts page, page_size and cursor from an HTTP request,
// clamping page_size to [1, MaxPageSize].
func FromRequest(r *http.Request) Params {
	return FromRequestWithMax(r, MaxPageSize)
}

// FromRequestWithMax is FromRequest with a configurable upper bound.
func FromRequestWithMax(r *http.Request, maxPageSize int) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = ClampPage(v)
		}
	}

	if size := q.Get("page_size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil {
			p.PageSize = v
		}
	}
	p.PageSize = ClampPageSize(p.PageSize, maxPageSize)
	p.Cursor = q.Get("cursor")

	p.Offset = Offset(p.Page, p.PageSize)
	return p
}

// ClampPage bounds page to [1, MaxPage].
func ClampPage(page int) int {
	return min(max(page, 1), MaxPage)
}

// Offset returns the number of rows before page, with page clamped to
// [1, MaxPage] and a non-positive size treated as empty.
func Offset(page, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return (ClampPage(page) - 1) * pageSize
}

// ClampPageSize bounds size to [1, maxPageSize]. A non-positive maximum
// falls back to MaxPageSize.
func ClampPageSize(size, maxPageSize int) int {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	if size < 1 {
		return 1
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

// CursorPage is a keyset-paginated slice. NextCursor is nil on the last page.
type CursorPage[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// NewCursorPage builds a CursorPage, normalising nil items to an empty slice
// so clients always receive a JSON array.
func NewCursorPage[T any](items []T, next string) CursorPage[T] {
	if items == nil {
		items = []T{}
	}
	page := CursorPage[T]{Items: items}
	if next != "" {
		page.NextCursor = &next
	}
	return page
}

// Result wraps an offset-paginated response.
type Result[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
}

// NewResult creates an offset-paginated result. hasNext is supplied by the
// caller, which typically fetched PageSize+1 rows to learn it.
func NewResult[T any](items []T, hasNext bool, params Params) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:    items,
		Page:     params.Page,
		PageSize: params.PageSize,
		HasNext:  hasNext,
		HasPrev:  params.Page > 1,
	}
}
