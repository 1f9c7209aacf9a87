package textutil

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Slugify converts a title into a lowercase ASCII path segment. Non-Latin
// scripts are transliterated first; every other run of characters outside
// [a-z0-9] becomes a single hyphen. Returns "" when nothing survives.
func Slugify(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	ascii := strings.ToLower(unidecode.Unidecode(value))
	var b strings.Builder
	pendingDash := false
	for _, r := range ascii {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '\'':
			// Apostrophes vanish so "Aang's" becomes "aangs".
		default:
			pendingDash = true
		}
	}
	return b.String()
}

// TruncateSlug cuts slug to at most max bytes without leaving a trailing hyphen.
func TruncateSlug(slug string, max int) string {
	if max <= 0 || len(slug) <= max {
		return slug
	}
	return strings.TrimRight(slug[:max], "-")
}
