package captcha

import (
	"html"
	"sort"
	"strings"
)

// Script is a remote script reference for the page head.
type Script struct {
	Src      string
	Async    bool
	Defer    bool
	Nonce    string
	Priority int
}

func (s Script) HTML() string {
	var b strings.Builder
	b.WriteString(`<script src="`)
	b.WriteString(html.EscapeString(s.Src))
	b.WriteString(`"`)
	if s.Async {
		b.WriteString(" async")
	}
	if s.Defer {
		b.WriteString(" defer")
	}
	if s.Nonce != "" {
		b.WriteString(` nonce="`)
		b.WriteString(html.EscapeString(s.Nonce))
		b.WriteString(`"`)
	}
	b.WriteString("></script>")
	return b.String()
}

// Element is a single empty HTML element, which is all a widget placeholder needs.
type Element struct {
	Tag        string
	Attributes map[string]string
}

func NewElement(tag string, attrs map[string]string) *Element {
	el := &Element{Tag: tag, Attributes: make(map[string]string, len(attrs))}
	for k, v := range attrs {
		el.Attributes[k] = v
	}
	return el
}

// HTML renders the element with attributes in name order.
func (e *Element) HTML() string {
	if e == nil {
		return ""
	}
	names := make([]string, 0, len(e.Attributes))
	for name := range e.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.Tag)
	for _, name := range names {
		b.WriteString(" ")
		b.WriteString(name)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(e.Attributes[name]))
		b.WriteString(`"`)
	}
	b.WriteString("></")
	b.WriteString(e.Tag)
	b.WriteString(">")
	return b.String()
}

// Assets is the default AssetCollector.
type Assets struct {
	nonce   string
	scripts []Script
	content *Element
}

func NewAssets(nonce string) *Assets {
	return &Assets{nonce: nonce}
}

func (a *Assets) Nonce() string {
	return a.nonce
}

// AddHeadScript adds script unless one with the same src is already present.
func (a *Assets) AddHeadScript(script Script) {
	for _, s := range a.scripts {
		if s.Src == script.Src {
			return
		}
	}
	a.scripts = append(a.scripts, script)
}

func (a *Assets) SetContent(element *Element) {
	a.content = element
}

// Scripts returns head scripts, highest priority first.
func (a *Assets) Scripts() []Script {
	out := append([]Script(nil), a.scripts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

func (a *Assets) Content() *Element {
	return a.content
}

// HTML renders head scripts followed by the content element.
func (a *Assets) HTML() string {
	var b strings.Builder
	for _, s := range a.Scripts() {
		b.WriteString(s.HTML())
		b.WriteString("\n")
	}
	b.WriteString(a.content.HTML())
	return b.String()
}
