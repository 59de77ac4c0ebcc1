package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// PlainText strips every HTML tag from s and trims surrounding space.
// The result is stored and served as plain text, so entities escaped by
// the policy are decoded again.  Use for titles, locations and comments.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// RichText keeps basic formatting tags (p, b, i, a, lists) and removes
// scripts, event handlers and styles.  Use for event descriptions.
func RichText(s string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(s))
}
