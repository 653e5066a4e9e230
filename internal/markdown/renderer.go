// Package markdown wraps the markdown-to-HTML collaborator. Render never
// panics past this boundary; callers treat any error as "render unavailable"
// and fall back to preformatted output.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown documents to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer with GitHub-flavored markdown extensions.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render converts markdown to HTML. An empty input yields an empty string.
func (r *Renderer) Render(markdown string) (out string, err error) {
	if markdown == "" {
		return "", nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("markdown render panic: %v", rec)
		}
	}()

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
