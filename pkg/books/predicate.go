package books

import (
	"strings"

	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/shishobooks/catalog/pkg/search"
	"github.com/uptrace/bun"
)

// Predicate dimension names, as reported by Predicate.Dimensions.
const (
	DimensionSearch   = "search"
	DimensionAuthors  = "authors"
	DimensionYear     = "year"
	DimensionRating   = "rating"
	DimensionLanguage = "language"
	DimensionPages    = "pages"
	DimensionISBN     = "isbn"
	DimensionImage    = "image"
	DimensionList     = "list"
)

// englishLanguageCodes are the codes a generic "English" selection matches.
// Imported catalog data uses all of them.
var englishLanguageCodes = []string{"eng", "en", "en-US", "en-GB", "en-CA"}

type clause struct {
	dimension string
	query     string
	args      []interface{}
}

// Predicate is a conjunction of filter clauses over the books table (alias
// "b"). The zero value matches every book. Predicates are immutable.
type Predicate struct {
	clauses []clause
}

// BuildPredicate returns the predicate for the filter dimensions set in s.
// The page is not part of the predicate.
func BuildPredicate(s filters.State) Predicate {
	p := Predicate{}

	if s.SearchText != nil {
		if match := search.BuildPrefixQuery(*s.SearchText); match != "" {
			p.clauses = append(p.clauses, clause{
				DimensionSearch,
				"b.id IN (SELECT rowid FROM books_fts WHERE books_fts MATCH ?)",
				[]interface{}{match},
			})
		}
	}

	if len(s.Authors) > 0 {
		// A book matches if any of its authors is selected.
		p.clauses = append(p.clauses, clause{
			DimensionAuthors,
			`b.id IN (
				SELECT ba.book_id FROM book_authors AS ba
				JOIN authors AS a ON a.id = ba.author_id
				WHERE a.name IN (?)
			)`,
			[]interface{}{bun.In(s.Authors)},
		})
	}

	if s.YearRange != nil {
		p.clauses = append(p.clauses, clause{
			DimensionYear,
			"b.publication_year BETWEEN ? AND ?",
			[]interface{}{s.YearRange.Min, s.YearRange.Max},
		})
	}

	if s.MinRating != nil {
		p.clauses = append(p.clauses, clause{
			DimensionRating,
			"b.average_rating >= ?",
			[]interface{}{*s.MinRating},
		})
	}

	if s.Language != nil {
		p.clauses = append(p.clauses, clause{
			DimensionLanguage,
			"b.language_code IN (?)",
			[]interface{}{bun.In(LanguageVariants(*s.Language))},
		})
	}

	if s.MaxPages != nil {
		p.clauses = append(p.clauses, clause{
			DimensionPages,
			"b.num_pages <= ?",
			[]interface{}{*s.MaxPages},
		})
	}

	if len(s.ISBNs) > 0 {
		p.clauses = append(p.clauses, isbnClause(DimensionISBN, s.ISBNs))
	}

	if s.RequireImage {
		p.clauses = append(p.clauses, clause{
			DimensionImage,
			"b.image_url IS NOT NULL AND b.image_url <> ''",
			nil,
		})
	}

	return p
}

// ListPredicate restricts books to a curated list's ISBNs. An empty list
// matches nothing.
func ListPredicate(isbns []string) Predicate {
	if len(isbns) == 0 {
		return Predicate{clauses: []clause{{DimensionList, "1 = 0", nil}}}
	}
	return Predicate{clauses: []clause{isbnClause(DimensionList, isbns)}}
}

func isbnClause(dimension string, isbns []string) clause {
	return clause{
		dimension,
		"(b.isbn IN (?) OR b.isbn13 IN (?))",
		[]interface{}{bun.In(isbns), bun.In(isbns)},
	}
}

// LanguageVariants returns the language codes that a language selection
// matches. English is a family of codes; everything else matches exactly.
func LanguageVariants(code string) []string {
	switch strings.ToLower(code) {
	case "en", "eng", "english":
		return englishLanguageCodes
	default:
		return []string{code}
	}
}

// And returns a predicate that requires both p and other.
func (p Predicate) And(other Predicate) Predicate {
	clauses := make([]clause, 0, len(p.clauses)+len(other.clauses))
	clauses = append(clauses, p.clauses...)
	clauses = append(clauses, other.clauses...)
	return Predicate{clauses: clauses}
}

// IsEmpty is true for the match-everything predicate.
func (p Predicate) IsEmpty() bool {
	return len(p.clauses) == 0
}

// Dimensions names the active clauses in the order they apply.
func (p Predicate) Dimensions() []string {
	dims := make([]string, 0, len(p.clauses))
	for _, c := range p.clauses {
		dims = append(dims, c.dimension)
	}
	return dims
}

// Apply adds the predicate's clauses to q as WHERE conditions.
func (p Predicate) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	for _, c := range p.clauses {
		q = q.Where(c.query, c.args...)
	}
	return q
}
