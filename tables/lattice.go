package tables

import (
	"context"

	"github.com/tidwall/rtree"

	"github.com/tsawler/msocr/model"
)

// maxRulingThickness separates rulings from filled areas (points)
const maxRulingThickness = 4.0

// Lattice extracts tables from ruled grids in the native layer
type Lattice struct {
	config Config
}

// NewLattice creates a lattice strategy
func NewLattice(config Config) *Lattice {
	return &Lattice{config: config}
}

// Name returns "lattice"
func (l *Lattice) Name() string { return "lattice" }

// Attempt builds a table for each connected group of crossing rulings.
func (l *Lattice) Attempt(_ context.Context, page *model.Page) ([]model.TableCandidate, error) {
	if len(page.Rulings) == 0 {
		return nil, nil
	}
	return gridCandidates(page.Rulings, page.Words, l.config, l.Name()), nil
}

// gridCandidates splits rulings into horizontal and vertical lines, groups
// the lines that cross each other and turns each group into a table.
func gridCandidates(rulings []model.BBox, words []model.Word, config Config, method string) []model.TableCandidate {
	tol := config.AlignmentTolerance
	if tol <= 0 {
		tol = DefaultConfig().AlignmentTolerance
	}
	minLen := config.MinLineLength

	var horizontals, verticals []model.BBox
	for _, r := range rulings {
		switch {
		case r.Height <= maxRulingThickness && r.Width >= minLen && r.Width > r.Height:
			horizontals = append(horizontals, r)
		case r.Width <= maxRulingThickness && r.Height >= minLen && r.Height > r.Width:
			verticals = append(verticals, r)
		}
	}
	if len(horizontals) < 2 || len(verticals) < 2 {
		return nil
	}

	var tr rtree.RTreeG[int]
	for i, v := range verticals {
		e := v.Expand(tol)
		tr.Insert(boxMin(e), boxMax(e), i)
	}

	// lines 0..nh-1 are horizontals, nh.. are verticals
	uf := newUnionFind(len(horizontals) + len(verticals))
	for i, h := range horizontals {
		e := h.Expand(tol)
		tr.Search(boxMin(e), boxMax(e), func(_, _ [2]float64, j int) bool {
			uf.union(i, len(horizontals)+j)
			return true
		})
	}

	type group struct{ hs, vs []model.BBox }
	groups := make(map[int]*group)
	var roots []int
	add := func(idx int) *group {
		root := uf.find(idx)
		g, ok := groups[root]
		if !ok {
			g = &group{}
			groups[root] = g
			roots = append(roots, root)
		}
		return g
	}
	for i, h := range horizontals {
		g := add(i)
		g.hs = append(g.hs, h)
	}
	for j, v := range verticals {
		g := add(len(horizontals) + j)
		g.vs = append(g.vs, v)
	}

	var out []model.TableCandidate
	for _, root := range roots {
		g := groups[root]
		ys := make([]float64, len(g.hs))
		for i, h := range g.hs {
			ys[i] = h.Center().Y
		}
		xs := make([]float64, len(g.vs))
		for i, v := range g.vs {
			xs[i] = v.Center().X
		}
		gr := &grid{rows: clusterValues(ys, tol), cols: clusterValues(xs, tol)}
		if gr.rowCount() < config.MinRows || gr.colCount() < config.MinCols {
			continue
		}
		gr.markRulings(append(append([]model.BBox(nil), g.hs...), g.vs...), tol)

		cells, alignment := gr.fill(words, tol)
		out = append(out, model.TableCandidate{
			BBox:    gr.bbox(),
			Method:  method,
			Rows:    cells,
			Quality: quality(gr.regularity(), alignment, gr.lineScore(), occupancy(cells)),
		})
	}
	sortCandidates(out)
	return out
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
