package layout

import "github.com/tsawler/msocr/model"

// MinTableCoverage is the share of an element's area a table must cover for
// the element to be replaced by a reference to that table.
const MinTableCoverage = 0.5

// AttachTables replaces elements covered by a table with a single
// TableReference per table, placed where the first covered element was.
// Tables that cover no element are appended in the given order.
func AttachTables(elems []model.LayoutElement, tables []model.TableCandidate) []model.LayoutElement {
	if len(tables) == 0 {
		return elems
	}

	placed := make([]bool, len(tables))
	out := make([]model.LayoutElement, 0, len(elems)+len(tables))
	for _, el := range elems {
		ti := coveringTable(el, tables)
		if ti < 0 {
			out = append(out, el)
			continue
		}
		if !placed[ti] {
			placed[ti] = true
			out = append(out, tableReference(tables[ti]))
		}
	}
	for i, t := range tables {
		if !placed[i] {
			out = append(out, tableReference(t))
		}
	}
	return out
}

func coveringTable(el model.LayoutElement, tables []model.TableCandidate) int {
	box := el.BBox()
	best, bestCov := -1, 0.0
	for i, t := range tables {
		cov := box.Coverage(t.BBox)
		if cov >= MinTableCoverage && cov > bestCov {
			best, bestCov = i, cov
		}
	}
	return best
}

func tableReference(t model.TableCandidate) model.LayoutElement {
	return model.LayoutElement{Kind: model.ElementTableReference, TableID: t.ID}
}
