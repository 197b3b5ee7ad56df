package links

import (
	"net/url"
	"strings"
)

// RedirectBuilder wraps original URLs into tracking-redirect URLs.
type RedirectBuilder struct {
	base string
}

// NewRedirectBuilder creates a builder for the given redirect base URL.
// An empty base puts the builder into pass-through mode.
func NewRedirectBuilder(base string) *RedirectBuilder {
	return &RedirectBuilder{base: strings.TrimRight(base, "/")}
}

// Build returns the redirect URL carrying original as its u query
// parameter, or original unchanged in pass-through mode. Build is not
// idempotent: applying it to its own output nests the redirect, so
// callers invoke it exactly once per original URL.
func (b *RedirectBuilder) Build(original string) string {
	if b.base == "" {
		return original
	}
	return b.base + "/?u=" + url.QueryEscape(original)
}
