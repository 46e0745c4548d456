package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID              int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt       time.Time `bun:",nullzero" json:"created_at"`
	Title           string    `bun:",notnull" json:"title"`
	Authors         []string  `bun:"-" json:"authors"`
	ISBN            *string   `bun:"isbn" json:"isbn,omitempty"`
	ISBN13          *string   `bun:"isbn13" json:"isbn13,omitempty"`
	Publisher       *string   `json:"publisher,omitempty"`
	Description     *string   `json:"description,omitempty"`
	ImageURL        *string   `bun:"image_url" json:"image_url,omitempty"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	AverageRating   *float64  `json:"average_rating,omitempty"`
	LanguageCode    *string   `json:"language_code,omitempty"`
	NumPages        *int      `json:"num_pages,omitempty"`
}

// HasImage is true when the book has a non-empty image URL.
func (b *Book) HasImage() bool {
	return b.ImageURL != nil && *b.ImageURL != ""
}

// BookAuthor is a row of the book_authors join table. SortOrder gives the
// position of the author in the book's credits.
type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	BookID    int `bun:",pk"`
	AuthorID  int `bun:",pk"`
	SortOrder int `bun:",notnull"`
}
