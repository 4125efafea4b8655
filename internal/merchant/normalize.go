// Package merchant maps free-text transaction descriptions to stable
// spending categories. It combines exact lookups on a normalized merchant
// key with approximate string matching against all stored keys, and offers
// a sweep that re-evaluates transactions still carrying the sentinel
// category.
package merchant

import (
	"regexp"
	"strings"
)

var (
	digitRun      = regexp.MustCompile(`[0-9]+`)
	punctuation   = regexp.MustCompile(`[^A-Z\s]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	// Trailing two-letter token, usually a state or city code ("NY", "CA").
	// Stripping it is lossy for legitimate two-letter merchant tokens, but
	// existing stored keys depend on the rule.
	trailingState = regexp.MustCompile(`\b[A-Z]{2}$`)
)

// Normalize reduces a raw transaction description to its canonical merchant
// key: upper-cased, digits and punctuation removed, whitespace collapsed,
// and one trailing two-letter state code stripped. The key is the
// exact-match join key between transactions and merchant mappings, so
// "Starbucks Coffee #123" and "STARBUCKS COFFEE" reduce to the same key.
// Empty or whitespace-only input yields an empty string.
func Normalize(description string) string {
	key := strings.ToUpper(description)
	key = digitRun.ReplaceAllString(key, "")
	key = punctuation.ReplaceAllString(key, "")
	key = strings.TrimSpace(whitespaceRun.ReplaceAllString(key, " "))
	key = strings.TrimSpace(trailingState.ReplaceAllString(key, ""))
	return key
}
