package search

import (
	"strings"
	"unicode/utf8"
)

const maxQueryLength = 100

// SanitizeFTSQuery turns user input into a literal FTS5 phrase. FTS5 has its
// own query language (AND, OR, NOT, *, NEAR(), column filters) that applies
// even to bound parameters, so the input is quoted and inner quotes doubled.
func SanitizeFTSQuery(input string) string {
	input = strings.TrimSpace(input)
	if utf8.RuneCountInString(input) > maxQueryLength {
		input = strings.TrimSpace(string([]rune(input)[:maxQueryLength]))
	}
	if input == "" {
		return ""
	}

	input = strings.ReplaceAll(input, `"`, `""`)

	return `"` + input + `"`
}

// BuildPrefixQuery creates an FTS5 phrase query whose last token matches as a
// prefix, so "harry pot" finds "Harry Potter".
func BuildPrefixQuery(userInput string) string {
	sanitized := SanitizeFTSQuery(userInput)
	if sanitized == "" {
		return ""
	}
	// The wildcard goes outside the quotes: "user query"*
	return sanitized + "*"
}
