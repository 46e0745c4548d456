package binder

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	slugRE = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// letterValidator accepts a single letter, or the empty string so that the
// param can be left out. Combine with `required` to disallow the empty string.
func letterValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	r, size := utf8.DecodeRuneInString(value)
	return size == len(value) && unicode.IsLetter(r)
}

// slugValidator ensures the value is a lowercase, hyphen separated slug such
// as "summer-reading-2024".
func slugValidator(fl validator.FieldLevel) bool {
	return slugRE.MatchString(fl.Field().String())
}
