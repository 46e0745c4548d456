package filters

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxSearchLength is the longest search text kept, in runes.
const MaxSearchLength = 100

// YearRange is an inclusive range of publication years.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// State is the canonical filter state shared by the server and its clients.
// Every field is optional; the zero value (with Page 1) is the unconstrained
// listing.
type State struct {
	SearchText   *string    `json:"search,omitempty"`
	Authors      []string   `json:"authors,omitempty"`
	YearRange    *YearRange `json:"year_range,omitempty"`
	MinRating    *float64   `json:"min_rating,omitempty"`
	Language     *string    `json:"language,omitempty"`
	MaxPages     *int       `json:"max_pages,omitempty"`
	ISBNs        []string   `json:"isbns,omitempty"`
	RequireImage bool       `json:"require_image,omitempty"`
	Page         int        `json:"page"`
}

// Empty returns the unconstrained state on the first page.
func Empty() State {
	return State{Page: 1}
}

// IsUnfiltered is true when no filter dimension is set, ignoring the page.
func (s State) IsUnfiltered() bool {
	return s.SearchText == nil &&
		len(s.Authors) == 0 &&
		s.YearRange == nil &&
		s.MinRating == nil &&
		s.Language == nil &&
		s.MaxPages == nil &&
		len(s.ISBNs) == 0 &&
		!s.RequireImage
}

// Equal compares two states field by field. Empty and absent collections
// are equal.
func (s State) Equal(o State) bool {
	return Encode(s) == Encode(o)
}

// HasAuthor reports whether name is one of the selected authors.
func (s State) HasAuthor(name string) bool {
	i := sort.SearchStrings(s.Authors, name)
	return i < len(s.Authors) && s.Authors[i] == name
}

// WithSearch returns a copy with the search text replaced and the page reset.
// Blank text clears the search.
func (s State) WithSearch(text string) State {
	s.SearchText = normalizeSearch(text)
	s.Page = 1
	return s
}

// ToggleAuthor returns a copy with name added to, or removed from, the
// selected authors. The page is reset.
func (s State) ToggleAuthor(name string) State {
	name = strings.TrimSpace(name)
	if name == "" {
		return s
	}
	authors := make([]string, 0, len(s.Authors)+1)
	found := false
	for _, a := range s.Authors {
		if a == name {
			found = true
			continue
		}
		authors = append(authors, a)
	}
	if !found {
		authors = append(authors, name)
	}
	s.Authors = canonicalSet(authors)
	s.Page = 1
	return s
}

// ClearAuthors returns a copy with no selected authors and the page reset.
func (s State) ClearAuthors() State {
	s.Authors = nil
	s.Page = 1
	return s
}

// WithPage returns a copy on the given page, normalized to at least 1.
func (s State) WithPage(page int) State {
	s.Page = max(1, page)
	return s
}

func normalizeSearch(text string) *string {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) > MaxSearchLength {
		text = strings.TrimSpace(string([]rune(text)[:MaxSearchLength]))
	}
	return &text
}

// canonicalSet trims, drops blanks, dedupes and sorts. It returns nil for an
// empty result so empty and absent collapse.
func canonicalSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
