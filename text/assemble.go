package text

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/msocr/model"
)

// Glyph is one piece of positioned text from the native layer, usually a
// single character. Y is the top of the glyph box.
type Glyph struct {
	Text     string
	X, Y     float64
	Width    float64
	FontSize float64
	Font     string
}

// Config holds the grouping thresholds, expressed as multiples of the font
// size (or line height for block breaks).
type Config struct {
	// WordGap splits words when the gap exceeds WordGap x font size.
	// Default: 0.25
	WordGap float64

	// LineTolerance joins words into a line when their vertical centres
	// differ by less than LineTolerance x font size.
	// Default: 0.5
	LineTolerance float64

	// BlockGap starts a new block when the vertical gap between lines
	// exceeds BlockGap x line height.
	// Default: 1.2
	BlockGap float64

	// FontChange starts a new block when the font size changes by more
	// than this fraction.
	// Default: 0.2
	FontChange float64
}

// DefaultConfig returns the default grouping thresholds
func DefaultConfig() Config {
	return Config{
		WordGap:       0.25,
		LineTolerance: 0.5,
		BlockGap:      1.2,
		FontChange:    0.2,
	}
}

// WordsFromGlyphs merges glyphs into words. Glyphs are first sorted into
// lines so content streams that draw text out of order still produce
// readable words.
func WordsFromGlyphs(glyphs []Glyph, cfg Config) []model.Word {
	if len(glyphs) == 0 {
		return nil
	}

	boxes := make([]model.Word, 0, len(glyphs))
	for _, g := range glyphs {
		if g.Text == "" {
			continue
		}
		fs := g.FontSize
		if fs <= 0 {
			fs = 10
		}
		boxes = append(boxes, model.Word{
			Text:     g.Text,
			BBox:     model.NewBBox(g.X, g.Y, math.Max(g.Width, 0), fs),
			FontSize: fs,
		})
	}

	var words []model.Word
	for _, line := range groupLines(boxes, cfg) {
		words = append(words, mergeLine(line, cfg)...)
	}
	return words
}

func mergeLine(line []model.Word, cfg Config) []model.Word {
	var words []model.Word
	var cur *model.Word

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimSpace(cur.Text)
			words = append(words, *cur)
		}
		cur = nil
	}

	for _, g := range line {
		if isBlank(g.Text) {
			flush()
			continue
		}
		if cur == nil {
			w := g
			cur = &w
			continue
		}
		gap := g.BBox.Left() - cur.BBox.Right()
		if gap > cfg.WordGap*cur.FontSize {
			flush()
			w := g
			cur = &w
			continue
		}
		cur.Text += g.Text
		cur.BBox = cur.BBox.Union(g.BBox)
	}
	flush()

	var out []model.Word
	for _, w := range words {
		out = append(out, splitFields(w)...)
	}
	return out
}

// splitFields splits a word whose text contains spaces, dividing its box
// proportionally to the character counts.
func splitFields(w model.Word) []model.Word {
	parts := strings.Fields(w.Text)
	if len(parts) <= 1 {
		return []model.Word{w}
	}
	total := len([]rune(w.Text))
	if total == 0 {
		return []model.Word{w}
	}
	perRune := w.BBox.Width / float64(total)
	x := w.BBox.X
	out := make([]model.Word, 0, len(parts))
	for _, p := range parts {
		n := float64(len([]rune(p)))
		nw := w
		nw.Text = p
		nw.BBox = model.NewBBox(x, w.BBox.Y, n*perRune, w.BBox.Height)
		out = append(out, nw)
		x += (n + 1) * perRune
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// groupLines sorts words top to bottom and groups the ones whose vertical
// centres are close into lines, each sorted left to right.
func groupLines(words []model.Word, cfg Config) [][]model.Word {
	if len(words) == 0 {
		return nil
	}
	sorted := make([]model.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Center().Y < sorted[j].BBox.Center().Y
	})

	var lines [][]model.Word
	var current []model.Word
	var lineY, lineH float64
	for _, w := range sorted {
		h := lineHeight(w)
		cy := w.BBox.Center().Y
		if len(current) > 0 && math.Abs(cy-lineY) <= cfg.LineTolerance*math.Max(h, lineH) {
			current = append(current, w)
			continue
		}
		if len(current) > 0 {
			lines = append(lines, current)
		}
		current = []model.Word{w}
		lineY, lineH = cy, h
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}

	for _, l := range lines {
		sort.SliceStable(l, func(i, j int) bool { return l[i].BBox.X < l[j].BBox.X })
	}
	return lines
}

func lineHeight(w model.Word) float64 {
	if w.FontSize > 0 {
		return w.FontSize
	}
	return w.BBox.Height
}

// BuildBlocks groups words into lines and lines into blocks. Blocks are
// returned in reading order with Index set.
func BuildBlocks(words []model.Word, cfg Config) []model.TextBlock {
	rows := groupLines(words, cfg)
	if len(rows) == 0 {
		return nil
	}

	lines := make([]model.Line, 0, len(rows))
	for _, r := range rows {
		l := model.Line{Words: r}
		for _, w := range r {
			l.BBox = l.BBox.Union(w.BBox)
		}
		lines = append(lines, l)
	}

	var blocks []model.TextBlock
	var cur *model.TextBlock
	for _, l := range lines {
		fs := medianFontSize(l)
		if cur != nil && !startsNewBlock(*cur, l, fs, cfg) {
			cur.Lines = append(cur.Lines, l)
			cur.BBox = cur.BBox.Union(l.BBox)
			continue
		}
		if cur != nil {
			blocks = append(blocks, *cur)
		}
		cur = &model.TextBlock{Lines: []model.Line{l}, BBox: l.BBox, FontSize: fs}
	}
	if cur != nil {
		blocks = append(blocks, *cur)
	}

	for i := range blocks {
		blocks[i].Index = i
	}
	return blocks
}

func startsNewBlock(b model.TextBlock, l model.Line, fs float64, cfg Config) bool {
	last := b.Lines[len(b.Lines)-1]
	h := math.Max(last.BBox.Height, 1)
	gap := l.BBox.Top() - last.BBox.Bottom()
	if gap > cfg.BlockGap*h {
		return true
	}
	if b.FontSize > 0 && math.Abs(fs-b.FontSize)/b.FontSize > cfg.FontChange {
		return true
	}
	// a line starting far left of the block is a separate column
	if l.BBox.Right() < b.BBox.Left() || l.BBox.Left() > b.BBox.Right() {
		return true
	}
	return false
}

func medianFontSize(l model.Line) float64 {
	sizes := make([]float64, 0, len(l.Words))
	for _, w := range l.Words {
		sizes = append(sizes, lineHeight(w))
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}

// ScaleWords converts word boxes from pixels at dpi into page points.
func ScaleWords(words []model.Word, dpi int) []model.Word {
	if dpi <= 0 {
		return words
	}
	f := 72.0 / float64(dpi)
	out := make([]model.Word, len(words))
	for i, w := range words {
		w.BBox = w.BBox.Scale(f)
		if w.FontSize == 0 {
			w.FontSize = w.BBox.Height
		}
		out[i] = w
	}
	return out
}

// PlainText joins blocks with blank lines
func PlainText(blocks []model.TextBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if t := b.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
