package relay

import (
	"fmt"
	"strconv"
	"strings"
)

// CaptionBuilder renders the configured caption template against post
// metadata. Rendering never fails from the caller's point of view: any
// template problem yields the fixed fallback caption instead.
type CaptionBuilder struct {
	template string
	footer   string
}

// NewCaptionBuilder creates a caption builder from the configured template
// and footer text.
func NewCaptionBuilder(template, footer string) *CaptionBuilder {
	return &CaptionBuilder{template: template, footer: footer}
}

// Build renders the template with the enumerated substitution set
// {original_text, source_channel, source_msg_id, footer}. On any render
// error the fallback "originalText\n\nfooter" is returned.
func (b *CaptionBuilder) Build(originalText, sourceChannel string, sourceMsgID int) string {
	vars := map[string]string{
		"original_text":  originalText,
		"source_channel": sourceChannel,
		"source_msg_id":  strconv.Itoa(sourceMsgID),
		"footer":         b.footer,
	}

	rendered, err := renderTemplate(b.template, vars)
	if err != nil {
		return originalText + "\n\n" + b.footer
	}
	return rendered
}

// renderTemplate substitutes {name} placeholders from vars. Unknown
// placeholders and unbalanced braces are errors, not panics; doubled
// braces escape literal ones.
func renderTemplate(template string, vars map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unclosed placeholder at position %d", i)
			}
			name := template[i+1 : i+1+end]
			value, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("unknown placeholder %q", name)
			}
			b.WriteString(value)
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("unmatched '}' at position %d", i)
		default:
			b.WriteByte(template[i])
			i++
		}
	}
	return b.String(), nil
}
