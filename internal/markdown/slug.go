package markdown

import (
	"regexp"
	"strings"
)

var (
	separatorRun = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify creates a URL-friendly slug from a string.
//
// Non-Latin characters are not transliterated; they count as separators
// and are dropped. Empty input, or input without any [a-z0-9] character,
// yields an empty slug.
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = separatorRun.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// SlugifyMax slugifies text and cuts the result to at most max characters.
// A max of zero or less leaves the slug unbounded. The cut is not word
// aware and may end in the middle of a word or on a hyphen.
func SlugifyMax(text string, max int) string {
	slug := Slugify(text)
	if max > 0 && len(slug) > max {
		slug = slug[:max]
	}
	return slug
}

// IsValid reports whether slug is a non-empty, fully normalized slug.
func IsValid(slug string) bool {
	return validSlug.MatchString(slug)
}

// IsValidTruncated reports whether slug is valid output of SlugifyMax. A
// length cut can leave a single trailing hyphen.
func IsValidTruncated(slug string) bool {
	return IsValid(strings.TrimSuffix(slug, "-"))
}
