// Package links implements the link pipeline: classification of tracked
// file-host URLs, redirect construction, entity-aware text rewriting and
// inline keyboard conversion.
package links

import (
	"net/url"
	"strings"
)

// Classifier decides whether a URL belongs to the tracked hosting domain.
type Classifier struct {
	marker string
}

// NewClassifier creates a classifier for the given marker substring,
// e.g. "terabox". Matching is case-insensitive.
func NewClassifier(marker string) *Classifier {
	return &Classifier{marker: strings.ToLower(marker)}
}

// IsTracked reports whether raw points at the tracked hosting domain.
// The marker is matched against the URL host when the URL parses, and
// against the full string otherwise. Deliberately permissive: a marker
// appearing only in the path or query still matches. Never fails; a
// malformed URL that matches nowhere is simply not tracked.
func (c *Classifier) IsTracked(raw string) bool {
	if c.marker == "" || raw == "" {
		return false
	}
	if parsed, err := url.Parse(raw); err == nil {
		if strings.Contains(strings.ToLower(parsed.Host), c.marker) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(raw), c.marker)
}
