package models

import (
	"time"

	"github.com/uptrace/bun"
)

// List is a curated, named set of books identified by ISBN.
type List struct {
	bun.BaseModel `bun:"table:lists,alias:l"`

	ID          int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt   time.Time `bun:",nullzero" json:"created_at"`
	Slug        string    `bun:",notnull" json:"slug"`
	Name        string    `bun:",notnull" json:"name"`
	Description *string   `json:"description"`

	// Relations
	Books     []*ListBook `bun:"rel:has-many,join:id=list_id" json:"-"`
	BookCount int         `bun:",scanonly" json:"book_count"`
}

// ISBNs returns the list's ISBNs in list order.
func (l *List) ISBNs() []string {
	isbns := make([]string, 0, len(l.Books))
	for _, lb := range l.Books {
		isbns = append(isbns, lb.ISBN)
	}
	return isbns
}

type ListBook struct {
	bun.BaseModel `bun:"table:list_books,alias:lb"`

	ListID    int    `bun:",pk"`
	ISBN      string `bun:"isbn,pk"`
	SortOrder int    `bun:",notnull"`
}
