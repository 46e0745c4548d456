package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorGroup(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Ursula K. Le Guin": "U",
		"  terry pratchett": "T",
		"Émile Zola":        AuthorGroupOther,
		"3 Authors":         AuthorGroupOther,
		"":                  AuthorGroupOther,
	}
	for name, group := range cases {
		a := &Author{Name: name}
		assert.Equal(t, group, a.Group(), name)
	}
}
