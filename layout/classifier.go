package layout

import (
	"strings"

	"github.com/tsawler/msocr/model"
)

// Config holds classification settings
type Config struct {
	// HeadingLevelCap is the deepest heading level emitted
	HeadingLevelCap int

	// DefaultHeadingLevel is used for unnumbered headings
	DefaultHeadingLevel int

	// MaxHeadingWords bounds unnumbered heading length
	MaxHeadingWords int

	// MaxSectionWords bounds numbered heading length
	MaxSectionWords int

	// EmphasisRatio is the font size over body size that marks a line as
	// emphasized even when the following text is short
	EmphasisRatio float64

	// TitleRatio is the font size over body size that promotes an
	// unnumbered heading to level 1
	TitleRatio float64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		HeadingLevelCap:     6,
		DefaultHeadingLevel: 2,
		MaxHeadingWords:     12,
		MaxSectionWords:     20,
		EmphasisRatio:       1.15,
		TitleRatio:          1.5,
	}
}

// Classifier turns text blocks into layout elements
type Classifier struct {
	config Config
}

// NewClassifier creates a classifier, filling unset fields from DefaultConfig
func NewClassifier(config Config) *Classifier {
	def := DefaultConfig()
	if config.HeadingLevelCap < 1 {
		config.HeadingLevelCap = def.HeadingLevelCap
	}
	if config.DefaultHeadingLevel < 1 {
		config.DefaultHeadingLevel = def.DefaultHeadingLevel
	}
	if config.DefaultHeadingLevel > config.HeadingLevelCap {
		config.DefaultHeadingLevel = config.HeadingLevelCap
	}
	if config.MaxHeadingWords < 1 {
		config.MaxHeadingWords = def.MaxHeadingWords
	}
	if config.MaxSectionWords < 1 {
		config.MaxSectionWords = def.MaxSectionWords
	}
	if config.EmphasisRatio <= 1 {
		config.EmphasisRatio = def.EmphasisRatio
	}
	if config.TitleRatio <= 1 {
		config.TitleRatio = def.TitleRatio
	}
	return &Classifier{config: config}
}

// Classify labels the page's blocks and returns one element per kept block,
// in the blocks' order. Blocks found repeating in idx are tagged
// TagHeaderFooter on the page and produce no element. idx may be nil.
func (c *Classifier) Classify(page *model.Page, idx *RepeatIndex) []model.LayoutElement {
	var blocks []model.TextBlock
	for i := range page.Blocks {
		blk := &page.Blocks[i]
		if idx.IsRepeated(page.Index, *blk, page.Height) {
			blk.Tag = model.TagHeaderFooter
			continue
		}
		blocks = append(blocks, splitAtListMarkers(*blk)...)
	}

	body := bodyFontSize(blocks)
	elems := make([]model.LayoutElement, 0, len(blocks))
	listID := 0
	for i, blk := range blocks {
		var next *model.TextBlock
		if i+1 < len(blocks) {
			next = &blocks[i+1]
		}
		el := c.classifyBlock(blk, next, body)

		if el.Kind == model.ElementListItem {
			if n := len(elems); n == 0 || elems[n-1].Kind != model.ElementListItem || elems[n-1].Marker != el.Marker {
				listID++
			}
			el.ListID = listID
		}
		elems = append(elems, el)
	}

	tagBlocks(page, elems)
	return elems
}

func (c *Classifier) classifyBlock(blk model.TextBlock, next *model.TextBlock, body float64) model.LayoutElement {
	text := strings.TrimSpace(blk.Text())
	el := model.LayoutElement{Kind: model.ElementParagraph, Text: text, Blocks: []model.TextBlock{blk}}
	if text == "" {
		return el
	}
	firstLine, rest, _ := strings.Cut(text, "\n")

	if blk.LineCount() <= 2 && len(strings.Fields(text)) <= c.config.MaxSectionWords {
		if sec, ok := ParseSection(joinLines(text)); ok {
			el.Kind = model.ElementHeading
			el.SectionNumber = sec.Number
			el.Text = sec.Title
			el.Level = SectionLevel(sec.Depth, c.config.HeadingLevelCap)
			return el
		}
	}

	marker, isItem := DetectListMarker(firstLine)

	if !isItem {
		if level, ok := c.headingLevel(blk, text, next, body); ok {
			el.Kind = model.ElementHeading
			el.Text = joinLines(text)
			el.Level = level
			return el
		}
	}

	if isItem {
		el.Kind = model.ElementListItem
		el.Marker = marker.Kind
		el.Ordinal = marker.Ordinal
		el.Text = marker.Text
		if rest != "" {
			el.Text += "\n" + rest
		}
	}
	return el
}

// headingLevel applies the unnumbered heading rules
func (c *Classifier) headingLevel(blk model.TextBlock, text string, next *model.TextBlock, body float64) (int, bool) {
	if blk.LineCount() > 1 || !looksLikeHeading(text, c.config.MaxHeadingWords) {
		return 0, false
	}

	emphasized := body > 0 && blk.FontSize >= body*c.config.EmphasisRatio
	introduces := false
	if next != nil {
		_, nextIsItem := DetectListMarker(strings.SplitN(next.Text(), "\n", 2)[0])
		introduces = nextIsItem || isParagraphLike(*next, len(strings.Fields(text)))
	}
	if !(introduces || (emphasized && next != nil) || isAllCaps(text)) {
		return 0, false
	}

	level := c.config.DefaultHeadingLevel
	if body > 0 && blk.FontSize >= body*c.config.TitleRatio {
		level = 1
	}
	return level, true
}

// tagBlocks records each element's kind on the page blocks it came from
func tagBlocks(page *model.Page, elems []model.LayoutElement) {
	tags := make(map[int]model.BlockTag, len(elems))
	for _, el := range elems {
		for _, b := range el.Blocks {
			if _, seen := tags[b.Index]; !seen {
				tags[b.Index] = tagFor(el.Kind)
			}
		}
	}
	for i := range page.Blocks {
		if t, ok := tags[page.Blocks[i].Index]; ok {
			page.Blocks[i].Tag = t
		}
	}
}

func tagFor(kind model.ElementKind) model.BlockTag {
	switch kind {
	case model.ElementHeading:
		return model.TagHeading
	case model.ElementListItem:
		return model.TagListItem
	case model.ElementTableReference:
		return model.TagTable
	}
	return model.TagParagraph
}
