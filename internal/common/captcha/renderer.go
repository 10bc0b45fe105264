package captcha

import (
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// DefaultRendererName is the registry key of the fallback renderer.
const DefaultRendererName = "Default"

// Renderer produces the widget placeholder element for a verifier.
type Renderer interface {
	Render(v Verifier) *Element
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(v Verifier) *Element

func (f RendererFunc) Render(v Verifier) *Element {
	return f(v)
}

// GenericRenderer renders <captcha-name> with slugged component data attributes.
type GenericRenderer struct{}

func (GenericRenderer) Render(v Verifier) *Element {
	attrs := make(map[string]string)
	for key, value := range v.ComponentData() {
		attrs[Slug(key)] = cast.ToString(value)
	}
	return NewElement("captcha-"+strings.ToLower(v.Name()), attrs)
}

// Slug lowercases s, splits camelCase words and joins alphanumeric runs with '-'.
func Slug(s string) string {
	var b strings.Builder
	runes := []rune(s)
	pendingDash := false
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingDash = b.Len() > 0
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				pendingDash = b.Len() > 0
			}
		}
		if pendingDash {
			b.WriteRune('-')
			pendingDash = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
