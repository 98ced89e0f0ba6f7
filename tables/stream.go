package tables

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/tsawler/msocr/model"
)

// Stream infers tables from whitespace: runs of lines that break into the
// same columns at wide gaps.
type Stream struct {
	config Config
}

// NewStream creates a stream strategy
func NewStream(config Config) *Stream {
	return &Stream{config: config}
}

// Name returns "stream"
func (s *Stream) Name() string { return "stream" }

// Attempt clusters the page words into lines, finds runs of lines with at
// least two column segments and builds a table from each run.
func (s *Stream) Attempt(ctx context.Context, page *model.Page) ([]model.TableCandidate, error) {
	if len(page.Words) < s.config.MinRows*s.config.MinCols {
		return nil, nil
	}

	lines := groupWordLines(page.Words)
	var out []model.TableCandidate
	for _, region := range s.regions(lines) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c, ok := s.buildTable(region, page.Rulings); ok {
			out = append(out, c)
		}
	}
	sortCandidates(out)
	return out, nil
}

type wordLine struct {
	words    []model.Word
	bbox     model.BBox
	height   float64
	segments []model.BBox
}

// groupWordLines sorts words top to bottom and joins words whose vertical
// centers are within half a line height.
func groupWordLines(words []model.Word) []*wordLine {
	sorted := make([]model.Word, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" && w.BBox.IsValid() {
			sorted = append(sorted, w)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Center().Y < sorted[j].BBox.Center().Y
	})

	var lines []*wordLine
	var cur *wordLine
	for _, w := range sorted {
		h := w.BBox.Height
		if cur != nil && math.Abs(w.BBox.Center().Y-cur.bbox.Center().Y) <= 0.5*math.Max(h, cur.height) {
			cur.words = append(cur.words, w)
			cur.bbox = cur.bbox.Union(w.BBox)
			cur.height = math.Max(cur.height, h)
			continue
		}
		cur = &wordLine{words: []model.Word{w}, bbox: w.BBox, height: h}
		lines = append(lines, cur)
	}

	for _, l := range lines {
		sort.SliceStable(l.words, func(i, j int) bool {
			return l.words[i].BBox.Left() < l.words[j].BBox.Left()
		})
	}
	return lines
}

// splitSegments breaks a line at gaps wider than ratio times its height
func splitSegments(l *wordLine, ratio float64) {
	l.segments = l.segments[:0]
	seg := l.words[0].BBox
	for i := 1; i < len(l.words); i++ {
		w := l.words[i].BBox
		if w.Left()-seg.Right() > ratio*l.height {
			l.segments = append(l.segments, seg)
			seg = w
			continue
		}
		seg = seg.Union(w)
	}
	l.segments = append(l.segments, seg)
}

// regions returns runs of consecutive multi-segment lines
func (s *Stream) regions(lines []*wordLine) [][]*wordLine {
	var out [][]*wordLine
	var cur []*wordLine
	flush := func() {
		if len(cur) >= s.config.MinRows {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, l := range lines {
		splitSegments(l, s.config.ColumnGapRatio)
		if len(l.segments) < 2 {
			flush()
			continue
		}
		if n := len(cur); n > 0 {
			prev := cur[n-1]
			if l.bbox.Top()-prev.bbox.Bottom() > s.config.MaxRowGapRatio*math.Max(l.height, prev.height) {
				flush()
			}
		}
		cur = append(cur, l)
	}
	flush()
	return out
}

// buildTable derives columns from the merged horizontal extent of every
// segment in the region, then fills a grid whose boundaries sit midway
// between neighbouring rows and columns.
func (s *Stream) buildTable(region []*wordLine, rulings []model.BBox) (model.TableCandidate, bool) {
	var spans []model.BBox
	for _, l := range region {
		spans = append(spans, l.segments...)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Left() < spans[j].Left() })

	type interval struct{ lo, hi float64 }
	var cols []interval
	for _, sp := range spans {
		if n := len(cols); n > 0 && sp.Left() <= cols[n-1].hi+s.config.AlignmentTolerance {
			cols[n-1].hi = math.Max(cols[n-1].hi, sp.Right())
			continue
		}
		cols = append(cols, interval{sp.Left(), sp.Right()})
	}
	if len(cols) < s.config.MinCols {
		return model.TableCandidate{}, false
	}

	g := &grid{}
	g.cols = append(g.cols, cols[0].lo)
	for i := 1; i < len(cols); i++ {
		g.cols = append(g.cols, (cols[i-1].hi+cols[i].lo)/2)
	}
	g.cols = append(g.cols, cols[len(cols)-1].hi)

	g.rows = append(g.rows, region[0].bbox.Top())
	for i := 1; i < len(region); i++ {
		g.rows = append(g.rows, (region[i-1].bbox.Bottom()+region[i].bbox.Top())/2)
	}
	g.rows = append(g.rows, region[len(region)-1].bbox.Bottom())

	var words []model.Word
	for _, l := range region {
		words = append(words, l.words...)
	}
	tol := s.config.AlignmentTolerance
	cells, alignment := g.fill(words, tol)

	filled := 0
	for _, r := range cells {
		for _, c := range r {
			if c != "" {
				filled++
			}
		}
	}
	if filled == 0 || float64(len(words))/float64(filled) > s.config.MaxCellWords {
		return model.TableCandidate{}, false
	}

	g.markRulings(rulings, tol)
	return model.TableCandidate{
		BBox:    g.bbox(),
		Method:  s.Name(),
		Rows:    cells,
		Quality: quality(g.regularity(), alignment, g.lineScore(), occupancy(cells)),
	}, true
}
