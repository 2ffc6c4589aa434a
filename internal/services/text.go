package services

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// normalizeText trims s and collapses inner whitespace runs.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// normalizeCategory folds categories so "Camping" and "CAMPING " share a
// bucket. Casers are stateful, so one is built per call.
func normalizeCategory(s string) string {
	return cases.Lower(language.Und).String(normalizeText(s))
}
