package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tsawler/msocr/model"
)

// Slide types
const (
	SlideCover   = "cover"
	SlideSection = "section"
	SlideBullets = "bullets"
	SlideText    = "text"
	SlideTable   = "table"
	SlideNotice  = "notice"
)

// Presentation is an outline of the document as slides.
type Presentation struct {
	Title  string  `json:"title"`
	Source string  `json:"source"`
	Slides []Slide `json:"slides"`
	Meta   Meta    `json:"meta"`
}

// Slide is one slide of a Presentation. Which content field is set
// depends on Type.
type Slide struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Items    []string `json:"items,omitempty"`
	Text     string   `json:"text,omitempty"`
	// MD holds a table as a Markdown pipe table
	MD   string `json:"md,omitempty"`
	Page int    `json:"page,omitempty"`
}

// Meta describes the source of a Presentation
type Meta struct {
	Pages       int      `json:"pages"`
	Lang        []string `json:"lang"`
	GeneratedBy string   `json:"generated_by"`
	Version     string   `json:"version"`
}

// slideBuilder accumulates list items under the current heading
type slideBuilder struct {
	opts    Options
	slides  []Slide
	heading string
	items   []string
	page    int
	tables  int
}

func (b *slideBuilder) title(fallback string) string {
	if b.heading != "" {
		return b.heading
	}
	return fallback
}

func (b *slideBuilder) flush(fallback string) {
	for len(b.items) > 0 {
		n := min(len(b.items), b.opts.MaxBullets)
		b.slides = append(b.slides, Slide{
			Type:  SlideBullets,
			Title: b.title(fallback),
			Items: append([]string(nil), b.items[:n]...),
			Page:  b.page,
		})
		b.items = b.items[n:]
	}
}

// BuildPresentation turns the document into slides: a cover, a section
// slide per level 1 heading, bullet slides for lists under the last
// heading, text slides for paragraphs and one slide per table.
func BuildPresentation(doc *model.Document, opts Options) Presentation {
	opts = opts.withDefaults()
	p := Presentation{
		Title:  doc.Title,
		Source: filepath.Base(doc.Source),
		Meta: Meta{
			Pages:       doc.TotalPages,
			Lang:        languages(doc),
			GeneratedBy: opts.GeneratedBy,
			Version:     opts.Version,
		},
	}

	b := &slideBuilder{opts: opts}
	b.slides = append(b.slides, Slide{Type: SlideCover, Title: doc.Title, Subtitle: subtitle(doc)})

	for _, s := range sections(doc) {
		if s.Failure != nil {
			b.flush(doc.Title)
			b.slides = append(b.slides, Slide{
				Type:  SlideNotice,
				Title: fmt.Sprintf("Page %d", s.Index+1),
				Text:  FailureNotice(*s.Failure),
				Page:  s.Index + 1,
			})
			continue
		}
		for _, e := range s.Page.Elements {
			b.add(doc, e, s.Index+1)
		}
	}
	b.flush(doc.Title)

	p.Slides = b.slides
	return p
}

func (b *slideBuilder) add(doc *model.Document, e model.LayoutElement, page int) {
	switch e.Kind {
	case model.ElementHeading:
		b.flush(doc.Title)
		text := oneLine(e.HeadingText())
		if e.Level == 1 {
			b.slides = append(b.slides, Slide{Type: SlideSection, Title: text, Page: page})
		}
		b.heading = text
	case model.ElementListItem:
		if len(b.items) == 0 {
			b.page = page
		}
		b.items = append(b.items, oneLine(e.Text))
	case model.ElementTableReference:
		b.flush(doc.Title)
		t, ok := doc.Table(e.TableID)
		if !ok {
			return
		}
		b.tables++
		b.slides = append(b.slides, Slide{
			Type:  SlideTable,
			Title: b.title(fmt.Sprintf("Table %d", b.tables)),
			MD:    strings.TrimRight(t.ToMarkdown(), "\n"),
			Page:  page,
		})
	default:
		b.flush(doc.Title)
		text := oneLine(e.Text)
		if text == "" {
			return
		}
		b.slides = append(b.slides, Slide{Type: SlideText, Title: b.title(doc.Title), Text: text, Page: page})
	}
}

// subtitle is the first level 2 heading that follows the title heading
func subtitle(doc *model.Document) string {
	seenTitle := false
	for _, p := range doc.Pages {
		for _, e := range p.Elements {
			if e.Kind != model.ElementHeading {
				continue
			}
			text := oneLine(e.HeadingText())
			if !seenTitle {
				if text == doc.Title {
					seenTitle = true
				}
				continue
			}
			if e.Level <= 2 {
				return text
			}
		}
	}
	return ""
}

// SlidesJSON writes the presentation outline as indented JSON
func SlidesJSON(w io.Writer, doc *model.Document, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(BuildPresentation(doc, opts))
}

// SlidesMarkdown writes the presentation outline as Markdown slides
// separated by horizontal rules, the input format of most slide tools.
func SlidesMarkdown(w io.Writer, doc *model.Document, opts Options) error {
	p := BuildPresentation(doc, opts)
	parts := make([]string, 0, len(p.Slides))
	for _, s := range p.Slides {
		parts = append(parts, slideMarkdown(s))
	}
	_, err := io.WriteString(w, strings.Join(parts, "\n\n---\n\n")+"\n")
	return err
}

func slideMarkdown(s Slide) string {
	var sb strings.Builder
	switch s.Type {
	case SlideCover, SlideSection:
		sb.WriteString("# " + s.Title)
		if s.Subtitle != "" {
			sb.WriteString("\n\n" + s.Subtitle)
		}
	default:
		sb.WriteString("## " + s.Title)
	}
	switch {
	case len(s.Items) > 0:
		sb.WriteString("\n\n")
		for i, item := range s.Items {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("- " + item)
		}
	case s.MD != "":
		sb.WriteString("\n\n" + s.MD)
	case s.Text != "":
		sb.WriteString("\n\n" + s.Text)
	}
	return sb.String()
}
