package links

import (
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/mymmrac/telego"
)

// Rewriter applies classification and redirect construction to the styled
// entities of a message text and to inline keyboards.
type Rewriter struct {
	classifier *Classifier
	redirects  *RedirectBuilder
}

// NewRewriter creates a rewriter from a classifier and a redirect builder.
func NewRewriter(classifier *Classifier, redirects *RedirectBuilder) *Rewriter {
	return &Rewriter{classifier: classifier, redirects: redirects}
}

// RewriteText returns text with tracked links replaced by redirect URLs.
// Entities are walked in offset order (stable for equal offsets); the gaps
// between entities are copied verbatim. A url entity is replaced in place
// when tracked. A text_link entity emits its target URL instead of its
// visible label, redirected when tracked — this turns labeled links into
// raw URLs in plain text and is kept intentionally, matching the bot's
// historical output. Any other entity kind is copied verbatim.
//
// Entity offsets are UTF-16 code units, per the Bot API.
//
// Empty text returns unchanged even when a text_link entity carries a
// target: the Bot API never attaches entities to an absent text, so the
// empty-text identity wins over target substitution here.
func (rw *Rewriter) RewriteText(text string, entities []telego.MessageEntity) string {
	if text == "" || len(entities) == 0 {
		return text
	}

	units := utf16.Encode([]rune(text))

	sorted := make([]telego.MessageEntity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	var b strings.Builder
	last := 0
	for _, ent := range sorted {
		start := clamp(ent.Offset, last, len(units))
		end := clamp(ent.Offset+ent.Length, start, len(units))

		b.WriteString(decode(units[last:start]))
		span := decode(units[start:end])

		switch ent.Type {
		case telego.EntityTypeURL:
			b.WriteString(rw.resolve(span))
		case telego.EntityTypeTextLink:
			if ent.URL != "" {
				b.WriteString(rw.resolve(ent.URL))
			} else {
				b.WriteString(span)
			}
		default:
			b.WriteString(span)
		}
		last = end
	}
	b.WriteString(decode(units[last:]))

	return b.String()
}

// ExtractTracked returns every tracked URL referenced by the entities, in
// entity order. Duplicates are kept; the caller dedupes where needed.
// Empty text yields nothing, even from text_link targets (see RewriteText).
func (rw *Rewriter) ExtractTracked(text string, entities []telego.MessageEntity) []string {
	if text == "" || len(entities) == 0 {
		return nil
	}

	units := utf16.Encode([]rune(text))

	var tracked []string
	for _, ent := range entities {
		var candidate string
		switch ent.Type {
		case telego.EntityTypeURL:
			start := clamp(ent.Offset, 0, len(units))
			end := clamp(ent.Offset+ent.Length, start, len(units))
			candidate = decode(units[start:end])
		case telego.EntityTypeTextLink:
			candidate = ent.URL
		default:
			continue
		}
		if candidate != "" && rw.classifier.IsTracked(candidate) {
			tracked = append(tracked, candidate)
		}
	}
	return tracked
}

// resolve returns the redirect for a tracked URL and the URL itself
// otherwise.
func (rw *Rewriter) resolve(raw string) string {
	if rw.classifier.IsTracked(raw) {
		return rw.redirects.Build(raw)
	}
	return raw
}

func decode(units []uint16) string {
	return string(utf16.Decode(units))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
