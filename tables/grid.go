package tables

import (
	"math"
	"sort"

	"github.com/tsawler/msocr/model"
)

// grid is a table layout in page points. Boundaries ascend: rows top to
// bottom, cols left to right.
type grid struct {
	rows []float64
	cols []float64

	// hLines[i] reports whether a ruling lies on row boundary i
	hLines []bool
	// vLines[i] reports whether a ruling lies on column boundary i
	vLines []bool
}

func (g *grid) rowCount() int { return max(len(g.rows)-1, 0) }
func (g *grid) colCount() int { return max(len(g.cols)-1, 0) }

func (g *grid) bbox() model.BBox {
	if g.rowCount() == 0 || g.colCount() == 0 {
		return model.BBox{}
	}
	return model.BBox{
		X:      g.cols[0],
		Y:      g.rows[0],
		Width:  g.cols[len(g.cols)-1] - g.cols[0],
		Height: g.rows[len(g.rows)-1] - g.rows[0],
	}
}

func (g *grid) cellBBox(row, col int) model.BBox {
	return model.BBox{
		X:      g.cols[col],
		Y:      g.rows[row],
		Width:  g.cols[col+1] - g.cols[col],
		Height: g.rows[row+1] - g.rows[row],
	}
}

// findCell returns the cell containing p, or -1, -1 when p is outside
func (g *grid) findCell(p model.Point) (row, col int) {
	row, col = -1, -1
	for i := 0; i < g.rowCount(); i++ {
		if p.Y >= g.rows[i] && p.Y <= g.rows[i+1] {
			row = i
			break
		}
	}
	for i := 0; i < g.colCount(); i++ {
		if p.X >= g.cols[i] && p.X <= g.cols[i+1] {
			col = i
			break
		}
	}
	return row, col
}

// fill places words into cells by their center. It returns the cell text
// and the share of placed words that sit fully inside their cell.
func (g *grid) fill(words []model.Word, tolerance float64) ([][]string, float64) {
	cells := make([][]string, g.rowCount())
	for i := range cells {
		cells[i] = make([]string, g.colCount())
	}

	placed, aligned := 0, 0
	for _, w := range words {
		row, col := g.findCell(w.BBox.Center())
		if row < 0 || col < 0 {
			continue
		}
		placed++
		if cellContains(g.cellBBox(row, col).Expand(tolerance), w.BBox) {
			aligned++
		}
		if cells[row][col] != "" {
			cells[row][col] += " "
		}
		cells[row][col] += w.Text
	}
	if placed == 0 {
		return cells, 0
	}
	return cells, float64(aligned) / float64(placed)
}

func cellContains(outer, inner model.BBox) bool {
	return inner.Left() >= outer.Left() && inner.Right() <= outer.Right() &&
		inner.Top() >= outer.Top() && inner.Bottom() <= outer.Bottom()
}

// markRulings records which boundaries have a ruling lying on them
func (g *grid) markRulings(rulings []model.BBox, tolerance float64) {
	g.hLines = make([]bool, len(g.rows))
	g.vLines = make([]bool, len(g.cols))
	box := g.bbox().Expand(tolerance)
	for _, r := range rulings {
		if !box.Intersects(r) {
			continue
		}
		c := r.Center()
		if r.Width >= r.Height {
			for i, y := range g.rows {
				if math.Abs(c.Y-y) < tolerance {
					g.hLines[i] = true
				}
			}
		} else {
			for i, x := range g.cols {
				if math.Abs(c.X-x) < tolerance {
					g.vLines[i] = true
				}
			}
		}
	}
}

// regularity measures how even row heights and column widths are, using
// the coefficient of variation. Lower variance results in a higher score.
func (g *grid) regularity() float64 {
	if g.rowCount() < 1 || g.colCount() < 1 {
		return 0
	}
	heights := make([]float64, g.rowCount())
	for i := range heights {
		heights[i] = g.rows[i+1] - g.rows[i]
	}
	widths := make([]float64, g.colCount())
	for i := range widths {
		widths[i] = g.cols[i+1] - g.cols[i]
	}
	rowScore := math.Max(0, 1-coefficientOfVariation(heights))
	colScore := math.Max(0, 1-coefficientOfVariation(widths))
	return (rowScore + colScore) / 2
}

// lineScore is the share of boundaries that have a visible ruling
func (g *grid) lineScore() float64 {
	if len(g.hLines) == 0 || len(g.vLines) == 0 {
		return 0
	}
	return (fraction(g.hLines) + fraction(g.vLines)) / 2
}

func fraction(flags []bool) float64 {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return float64(n) / float64(len(flags))
}

// occupancy is the share of cells holding any text
func occupancy(cells [][]string) float64 {
	total, filled := 0, 0
	for _, r := range cells {
		for _, c := range r {
			total++
			if c != "" {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total)
}

// quality combines the four factors: regularity 30%, alignment 30%,
// rulings 20%, occupancy 20%.
func quality(regularity, alignment, lines, occ float64) float64 {
	q := regularity*0.3 + alignment*0.3 + lines*0.2 + occ*0.2
	return math.Max(0, math.Min(1, q))
}

// clusterValues merges sorted values lying within tolerance of the running
// cluster center.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	clustered := []float64{sorted[0]}
	counts := []int{1}
	for _, v := range sorted[1:] {
		last := len(clustered) - 1
		if v-clustered[last] > tolerance {
			clustered = append(clustered, v)
			counts = append(counts, 1)
			continue
		}
		counts[last]++
		clustered[last] += (v - clustered[last]) / float64(counts[last])
	}
	return clustered
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return math.Sqrt(variance(values)) / m
}

// sortCandidates orders candidates top to bottom, then left to right
func sortCandidates(cands []model.TableCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].BBox, cands[j].BBox
		if a.Top() != b.Top() {
			return a.Top() < b.Top()
		}
		return a.Left() < b.Left()
	})
}
