package pagination

import (
	"context"

	"github.com/pkg/errors"
)

// ErrInvalidPageSize is returned when Execute is called with a page size that
// isn't positive. Page sizes come from configuration, so this is a
// programming error rather than bad user input.
var ErrInvalidPageSize = errors.New("page size must be greater than 0")

// Source is the store a paginated query runs against. P is the store's
// predicate type and T the item type.
type Source[P any, T any] interface {
	// Count returns the number of items matching the predicate. It may be an
	// estimate.
	Count(ctx context.Context, pred P) (int, error)
	// Fetch returns up to limit matching items, in a stable order, skipping
	// the first offset.
	Fetch(ctx context.Context, pred P, offset, limit int) ([]T, error)
}

// Result is one page of a query. It's built fresh for every request.
type Result[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PageSize    int `json:"page_size"`
}

// HasPrev is true when there is a page before the current one.
func (r *Result[T]) HasPrev() bool {
	return r.CurrentPage > 1
}

// HasNext is true when there is a page after the current one.
func (r *Result[T]) HasNext() bool {
	return r.CurrentPage < r.TotalPages
}

// TotalPages returns the number of pages needed for totalItems, which is
// always at least 1.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 1
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Clamp constrains page to [1, totalPages].
func Clamp(page, totalPages int) int {
	return max(1, min(page, totalPages))
}

// Execute counts the matching items, clamps the requested page to the pages
// that exist and fetches it. A page past the end returns the last page, and
// no matches is an empty first page rather than an error.
//
// Callers that need the count and the fetch to agree should pass a Source
// bound to a single read transaction.
func Execute[P any, T any](ctx context.Context, src Source[P, T], pred P, page, pageSize int) (*Result[T], error) {
	if pageSize <= 0 {
		return nil, errors.WithStack(ErrInvalidPageSize)
	}

	total, err := src.Count(ctx, pred)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	total = max(0, total)

	totalPages := TotalPages(total, pageSize)
	current := Clamp(page, totalPages)

	result := &Result[T]{
		Items:       []T{},
		CurrentPage: current,
		TotalPages:  totalPages,
		TotalItems:  total,
		PageSize:    pageSize,
	}
	if total == 0 {
		return result, nil
	}

	items, err := src.Fetch(ctx, pred, (current-1)*pageSize, pageSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(items) > pageSize {
		items = items[:pageSize]
	}
	if items != nil {
		result.Items = items
	}
	return result, nil
}
