package export

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/tsawler/msocr/model"
)

// frontmatter is the YAML header of the Markdown export
type frontmatter struct {
	Title       string   `yaml:"title"`
	Source      string   `yaml:"source"`
	Languages   []string `yaml:"languages"`
	Pages       int      `yaml:"pages"`
	Outcome     string   `yaml:"outcome"`
	FailedPages []int    `yaml:"failed_pages,omitempty"`
	RunID       string   `yaml:"run_id,omitempty"`
	GeneratedBy string   `yaml:"generated_by"`
	Version     string   `yaml:"version"`
}

// section is the output of one page: its elements, or the failure that
// stopped it
type section struct {
	Index   int
	Page    *model.Page
	Failure *model.PageFailure
}

// sections merges successful and failed pages in index order
func sections(doc *model.Document) []section {
	out := make([]section, 0, len(doc.Pages)+len(doc.Failures))
	for _, p := range doc.Pages {
		out = append(out, section{Index: p.Index, Page: p})
	}
	for i := range doc.Failures {
		f := doc.Failures[i]
		out = append(out, section{Index: f.PageIndex, Failure: &f})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// languages returns the detected document languages, or the configured
// ones when detection did not run
func languages(doc *model.Document) []string {
	if len(doc.DetectedLanguages) > 0 {
		return append([]string{}, doc.DetectedLanguages...)
	}
	return append([]string{}, doc.Languages...)
}

// FailureNotice is the text that stands in for a failed page
func FailureNotice(f model.PageFailure) string {
	return fmt.Sprintf("Page %d could not be processed (%s: %s)", f.PageIndex+1, f.Stage, f.Reason)
}

// Markdown writes the document as Markdown.
func Markdown(w io.Writer, doc *model.Document, opts Options) error {
	opts = opts.withDefaults()
	var sb strings.Builder
	if opts.Frontmatter {
		fm, err := yaml.Marshal(newFrontmatter(doc, opts))
		if err != nil {
			return fmt.Errorf("frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}
	sb.WriteString(markdownBody(doc, opts))
	_, err := io.WriteString(w, sb.String())
	return err
}

func newFrontmatter(doc *model.Document, opts Options) frontmatter {
	fm := frontmatter{
		Title:       doc.Title,
		Source:      filepath.Base(doc.Source),
		Languages:   languages(doc),
		Pages:       doc.TotalPages,
		Outcome:     doc.Outcome.String(),
		RunID:       doc.RunID,
		GeneratedBy: opts.GeneratedBy,
		Version:     opts.Version,
	}
	for _, f := range doc.Failures {
		fm.FailedPages = append(fm.FailedPages, f.PageIndex+1)
	}
	return fm
}

// markdownBody renders the elements without frontmatter
func markdownBody(doc *model.Document, opts Options) string {
	var blocks []string
	for _, s := range sections(doc) {
		if opts.PageMarkers {
			blocks = append(blocks, fmt.Sprintf("<!-- page %d -->", s.Index+1))
		}
		if s.Failure != nil {
			blocks = append(blocks, "> **"+FailureNotice(*s.Failure)+"**")
			continue
		}
		blocks = append(blocks, pageMarkdown(doc, s.Page)...)
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// pageMarkdown returns one Markdown block per element. Consecutive items
// of the same list share a block.
func pageMarkdown(doc *model.Document, page *model.Page) []string {
	var out, items []string
	listID := -1
	flush := func() {
		if len(items) > 0 {
			out = append(out, strings.Join(items, "\n"))
			items = nil
		}
	}
	for _, e := range page.Elements {
		if e.Kind == model.ElementListItem {
			if e.ListID != listID {
				flush()
				listID = e.ListID
			}
			items = append(items, listItemMarkdown(e))
			continue
		}
		flush()
		listID = -1
		if md := elementMarkdown(doc, e); md != "" {
			out = append(out, md)
		}
	}
	flush()
	return out
}

func elementMarkdown(doc *model.Document, e model.LayoutElement) string {
	switch e.Kind {
	case model.ElementHeading:
		return strings.Repeat("#", headingLevel(e.Level)) + " " + oneLine(e.HeadingText())
	case model.ElementListItem:
		return listItemMarkdown(e)
	case model.ElementTableReference:
		if t, ok := doc.Table(e.TableID); ok {
			return strings.TrimRight(t.ToMarkdown(), "\n")
		}
		return ""
	default:
		return strings.TrimSpace(e.Text)
	}
}

func listItemMarkdown(e model.LayoutElement) string {
	return listMarker(e) + " " + oneLine(e.Text)
}

func listMarker(e model.LayoutElement) string {
	switch e.Marker {
	case model.MarkerNumber:
		return e.Ordinal + "."
	case model.MarkerLetter:
		return e.Ordinal + ")"
	default:
		return "-"
	}
}

func headingLevel(level int) int {
	return min(max(level, 1), 6)
}

// oneLine collapses whitespace, newlines included
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
