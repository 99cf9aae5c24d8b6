// Package markdown renders conversion output to HTML for clients that
// request it. Model output is untrusted, so rendered HTML is sanitized
// before it leaves the service.
package markdown

import (
	"bytes"
	"fmt"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// RenderHTML converts Markdown to sanitized HTML. Pipe tables and display
// math ($$…$$, as produced by the model pipeline) are supported.
func RenderHTML(source string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			treeblood.MathML(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return Sanitize(buf.String())
}
