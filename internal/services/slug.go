package services

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeSlug lower-cases s, collapses every run of non-alphanumeric
// characters into a single "-" and trims leading and trailing dashes
func NormalizeSlug(s string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}
