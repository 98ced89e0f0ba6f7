package export

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/tsawler/msocr/model"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithXHTML()),
)

// HTML renders the Markdown export, without frontmatter, as a standalone
// HTML page. Tables become GFM tables.
func HTML(w io.Writer, doc *model.Document, opts Options) error {
	opts = opts.withDefaults()
	opts.PageMarkers = false

	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(markdownBody(doc, opts)), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	title := html.EscapeString(doc.Title)
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="generator" content="%s %s">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(opts.GeneratedBy), html.EscapeString(opts.Version), title, body.String())
	return err
}
