package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/model"
)

// renderer writes one export format
type renderer func(io.Writer, *model.Document, Options) error

var renderers = map[string]struct {
	ext    string
	render renderer
}{
	config.ExportMarkdown: {".md", Markdown},
	config.ExportJSON:     {".slides.json", SlidesJSON},
	config.ExportDOCX:     {".docx", DOCX},
	config.ExportHTML:     {".html", HTML},
	config.ExportSlides:   {".slides.md", SlidesMarkdown},
}

// FileName returns the output file name of a format for a source path
func FileName(source, format string) (string, error) {
	r, ok := renderers[format]
	if !ok {
		return "", fmt.Errorf("unknown export format %q", format)
	}
	return Stem(source) + r.ext, nil
}

// Stem is the source file name without directory and extension
func Stem(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WriteAll renders every requested format into dir, followed by the
// metrics report which is always written. It returns the paths written.
// Unknown formats fail before anything is written.
func WriteAll(doc *model.Document, dir string, formats []string, opts Options) ([]string, error) {
	for _, f := range formats {
		if _, ok := renderers[f]; !ok {
			return nil, fmt.Errorf("unknown export format %q", f)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var written []string
	seen := make(map[string]bool)
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		name, _ := FileName(doc.Source, f)
		path := filepath.Join(dir, name)
		if err := writeFile(path, func(w io.Writer) error { return renderers[f].render(w, doc, opts) }); err != nil {
			return written, fmt.Errorf("export %s: %w", f, err)
		}
		written = append(written, path)
	}

	path := filepath.Join(dir, Stem(doc.Source)+".metrics.json")
	if err := writeFile(path, func(w io.Writer) error { return MetricsJSON(w, doc) }); err != nil {
		return written, fmt.Errorf("export metrics: %w", err)
	}
	return append(written, path), nil
}

// writeFile renders into memory first so a failed render leaves no
// truncated file behind
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
