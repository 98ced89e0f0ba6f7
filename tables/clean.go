package tables

import (
	"sort"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/tsawler/msocr/model"
)

// Clean trims cell text, drops empty rows and columns and pads rows to a
// common width. It reports whether the candidate is still a usable table.
func Clean(t *model.TableCandidate, config Config) bool {
	minRows, minCols := config.MinRows, config.MinCols
	if minRows < 1 {
		minRows = 2
	}
	if minCols < 1 {
		minCols = 2
	}

	t.Normalize()

	rows := t.Rows[:0]
	for _, r := range t.Rows {
		if !emptyRow(r) {
			rows = append(rows, r)
		}
	}
	t.Rows = rows

	cols := t.ColCount()
	keep := make([]bool, cols)
	for _, r := range t.Rows {
		for j, c := range r {
			if c != "" {
				keep[j] = true
			}
		}
	}
	for i, r := range t.Rows {
		out := make([]string, 0, cols)
		for j, c := range r {
			if keep[j] {
				out = append(out, c)
			}
		}
		t.Rows[i] = out
	}

	if t.RowCount() < minRows || t.ColCount() < minCols || t.IsEmpty() {
		return false
	}
	return t.Quality >= config.MinQuality
}

func emptyRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Dedup removes candidates that overlap a better one with IoU above
// threshold. Of two overlapping candidates the higher quality one survives;
// on equal quality the earlier one does. Survivors keep their input order.
func Dedup(cands []model.TableCandidate, threshold float64) []model.TableCandidate {
	if len(cands) < 2 {
		return cands
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].Quality > cands[order[b]].Quality
	})

	var tr rtree.RTreeG[int]
	keep := make([]bool, len(cands))
	for _, i := range order {
		box := cands[i].BBox
		dup := false
		tr.Search(boxMin(box), boxMax(box), func(_, _ [2]float64, j int) bool {
			if box.IoU(cands[j].BBox) > threshold {
				dup = true
				return false
			}
			return true
		})
		if dup {
			continue
		}
		keep[i] = true
		tr.Insert(boxMin(box), boxMax(box), i)
	}

	out := make([]model.TableCandidate, 0, len(cands))
	for i, c := range cands {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}

func boxMin(b model.BBox) [2]float64 { return [2]float64{b.Left(), b.Top()} }
func boxMax(b model.BBox) [2]float64 { return [2]float64{b.Right(), b.Bottom()} }
