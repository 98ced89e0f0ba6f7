// Package export renders a processed document into output files:
// Markdown with YAML frontmatter, a presentation outline as JSON or as
// Markdown slides, a Word document, HTML and a metrics report.
//
// Every exporter walks the layout elements of the successful pages in
// order. Failed pages are marked where they would have appeared.
package export
