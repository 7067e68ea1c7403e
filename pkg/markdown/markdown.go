package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts blog markdown to HTML. Raw HTML in the source is escaped, not passed through.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer with GitHub flavoured tables, strikethrough and autolinks.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
	)}
}

// Render returns the HTML for source.
func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
