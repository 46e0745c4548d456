package models

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/uptrace/bun"
)

// AuthorGroupOther holds authors whose name doesn't start with A-Z.
const AuthorGroupOther = "Other"

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID            int      `bun:",pk,autoincrement" json:"id"`
	Name          string   `bun:",notnull" json:"name"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// Group returns the index bucket for the author: an upper case ASCII
// letter, or AuthorGroupOther.
func (a *Author) Group() string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(a.Name))
	r = unicode.ToUpper(r)
	if r >= 'A' && r <= 'Z' {
		return string(r)
	}
	return AuthorGroupOther
}
