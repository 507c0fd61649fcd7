package narrative

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Without html.WithUnsafe goldmark omits raw HTML and dangerous link
// targets, so model output cannot inject markup into the page.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts markdown text to HTML safe to embed in the page.
func RenderHTML(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
