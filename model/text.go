package model

import "strings"

// Word is a single recognized or extracted word.
type Word struct {
	Text string
	// Confidence is the recognition confidence in [0,100]. It is nil for
	// words taken from the native text layer.
	Confidence *float64
	BBox       BBox
	FontSize   float64
}

// NewOCRWord creates a word carrying a recognition confidence clamped to
// [0,100].
func NewOCRWord(text string, conf float64, bbox BBox) Word {
	c := ClampConfidence(conf)
	return Word{Text: text, Confidence: &c, BBox: bbox}
}

// IsNative reports whether the word came from the native text layer
func (w Word) IsNative() bool { return w.Confidence == nil }

// ClampConfidence bounds a confidence value to [0,100].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}

// BlockTag records how the layout classifier labelled a block.
type BlockTag int

const (
	TagUnclassified BlockTag = iota
	TagHeading
	TagListItem
	TagParagraph
	TagTable
	TagHeaderFooter
)

func (t BlockTag) String() string {
	switch t {
	case TagHeading:
		return "heading"
	case TagListItem:
		return "list_item"
	case TagParagraph:
		return "paragraph"
	case TagTable:
		return "table"
	case TagHeaderFooter:
		return "header_footer"
	default:
		return "unclassified"
	}
}

// Line is one visual line of a block.
type Line struct {
	Words []Word
	BBox  BBox
}

// Text joins the line's words with single spaces
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// TextBlock is a run of lines that belong together, in reading order.
type TextBlock struct {
	// Index is the block's position in the page's reading order
	Index int
	Lines []Line
	// Raw holds the block text when no word geometry is available
	Raw      string
	BBox     BBox
	FontSize float64
	Tag      BlockTag
}

// Text returns the block content with lines separated by newlines.
func (b TextBlock) Text() string {
	if len(b.Lines) == 0 {
		return b.Raw
	}
	lines := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = l.Text()
	}
	return strings.Join(lines, "\n")
}

// Words returns every word of the block in reading order
func (b TextBlock) Words() []Word {
	var words []Word
	for _, l := range b.Lines {
		words = append(words, l.Words...)
	}
	return words
}

// LineCount returns the number of lines, counting Raw lines when the block
// has no geometry.
func (b TextBlock) LineCount() int {
	if len(b.Lines) > 0 {
		return len(b.Lines)
	}
	if b.Raw == "" {
		return 0
	}
	return strings.Count(b.Raw, "\n") + 1
}
