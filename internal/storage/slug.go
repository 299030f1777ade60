package storage

import (
	"regexp"
	"strings"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	hyphenRunPattern  = regexp.MustCompile(`-+`)
)

// Slugify turns a display name into a filesystem-safe file stem:
// lowercase, punctuation stripped, whitespace runs become one hyphen and
// repeated hyphens collapse. Non-ASCII letters count as punctuation.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonWordPattern.ReplaceAllString(slug, "")
	slug = whitespacePattern.ReplaceAllString(slug, "-")
	slug = hyphenRunPattern.ReplaceAllString(slug, "-")
	return slug
}
