package books

import (
	"github.com/shishobooks/catalog/pkg/filters"
)

const maxPageControls = 7

// PageControl is one entry of the page navigation. Gap entries stand for a
// run of skipped pages and have no page or query.
type PageControl struct {
	Page    int    `json:"page,omitempty"`
	Gap     bool   `json:"gap,omitempty"`
	Current bool   `json:"current,omitempty"`
	Query   string `json:"query,omitempty"`
}

// Links holds canonical query strings for moving from the current page. Prev
// and Next are nil at the ends.
type Links struct {
	Self string  `json:"self"`
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

// PageNumbers returns the pages to show for navigation, with 0 marking a gap.
// Up to seven pages are all shown; beyond that the first and last pages stay
// visible around a window on the current page.
func PageNumbers(current, total int) []int {
	if total <= maxPageControls {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}
	switch {
	case current <= 3:
		return []int{1, 2, 3, 0, total - 1, total}
	case current >= total-2:
		return []int{1, 2, 0, total - 2, total - 1, total}
	default:
		return []int{1, 0, current - 1, current, current + 1, 0, total}
	}
}

// BuildPageControls returns the page navigation for state on the given page
// of total pages. Each entry carries the canonical query for its page.
func BuildPageControls(state filters.State, current, total int) []PageControl {
	numbers := PageNumbers(current, total)
	controls := make([]PageControl, 0, len(numbers))
	for _, n := range numbers {
		if n == 0 {
			controls = append(controls, PageControl{Gap: true})
			continue
		}
		controls = append(controls, PageControl{
			Page:    n,
			Current: n == current,
			Query:   filters.Encode(state.WithPage(n)),
		})
	}
	return controls
}

// BuildLinks returns the canonical queries for the current page and its
// neighbours.
func BuildLinks(state filters.State, current, total int) Links {
	links := Links{Self: filters.Encode(state.WithPage(current))}
	if current > 1 {
		prev := filters.Encode(state.WithPage(current - 1))
		links.Prev = &prev
	}
	if current < total {
		next := filters.Encode(state.WithPage(current + 1))
		links.Next = &next
	}
	return links
}
