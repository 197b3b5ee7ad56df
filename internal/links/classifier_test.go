package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierIsTracked(t *testing.T) {
	classifier := NewClassifier("terabox")

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"marker in host", "https://teraboxfiles.com/abc", true},
		{"marker in host uppercase", "HTTPS://TERABOX.COM/S/1", true},
		{"marker mixed case", "https://TeRaBoX.app/s/xyz", true},
		// Intentionally permissive: marker anywhere in the URL matches,
		// even with an unrelated host.
		{"marker only in path", "https://example.com/mirror/terabox/abc", true},
		{"marker only in query", "https://example.com/?src=TERABOX", true},
		{"unrelated host", "https://example.com/abc", false},
		{"malformed url without marker", "ht!tp://%zz^", false},
		{"malformed url with marker", "ht!tp://terabox^", true},
		{"empty url", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsTracked(tt.url))
		})
	}
}

func TestClassifierEmptyMarkerMatchesNothing(t *testing.T) {
	classifier := NewClassifier("")
	assert.False(t, classifier.IsTracked("https://teraboxfiles.com/abc"))
}

func TestRedirectBuilderBuild(t *testing.T) {
	builder := NewRedirectBuilder("https://go.example.com")

	got := builder.Build("https://teraboxfiles.com/abc")
	assert.Equal(t, "https://go.example.com/?u=https%3A%2F%2Fteraboxfiles.com%2Fabc", got)
}

func TestRedirectBuilderTrimsTrailingSlash(t *testing.T) {
	builder := NewRedirectBuilder("https://go.example.com/")

	got := builder.Build("https://terabox.com/s/1")
	assert.Equal(t, "https://go.example.com/?u=https%3A%2F%2Fterabox.com%2Fs%2F1", got)
}

func TestRedirectBuilderPassThroughWithoutBase(t *testing.T) {
	builder := NewRedirectBuilder("")

	assert.Equal(t, "https://terabox.com/s/1", builder.Build("https://terabox.com/s/1"))
}

// Build is not a round-trip: wrapping its own output nests the redirect.
func TestRedirectBuilderNotIdempotent(t *testing.T) {
	builder := NewRedirectBuilder("https://go.example.com")

	once := builder.Build("https://terabox.com/s/1")
	twice := builder.Build(once)

	assert.NotEqual(t, once, twice)
	assert.Contains(t, twice, "u=https%3A%2F%2Fgo.example.com")
}
