package model

import (
	"fmt"
	"strings"
)

// TableCandidate is a table detected on a page by one extraction strategy.
type TableCandidate struct {
	ID        string
	PageIndex int
	BBox      BBox
	// Method names the strategy that produced the candidate
	Method string
	Rows   [][]string
	// Quality is the strategy's confidence score in [0,1]
	Quality float64
}

// TableID builds the stable identifier of the n-th table on a page
func TableID(pageIndex, n int) string {
	return fmt.Sprintf("p%d-t%d", pageIndex, n)
}

// RowCount returns the number of rows
func (t *TableCandidate) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the width of the widest row
func (t *TableCandidate) ColCount() int {
	n := 0
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// IsEmpty reports whether the candidate holds no text at all
func (t *TableCandidate) IsEmpty() bool {
	for _, r := range t.Rows {
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
	}
	return true
}

// Normalize pads every row to the same width and flattens cell text so that
// each cell fits one pipe-table cell.
func (t *TableCandidate) Normalize() {
	cols := t.ColCount()
	for i, row := range t.Rows {
		for len(row) < cols {
			row = append(row, "")
		}
		for j, c := range row {
			row[j] = markdownCell(c)
		}
		t.Rows[i] = row
	}
}

func markdownCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// ToMarkdown converts the table to a pipe table. The first row is the header.
func (t *TableCandidate) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}
	cols := t.ColCount()
	var sb strings.Builder

	writeRow := func(row []string) {
		for j := 0; j < cols; j++ {
			cell := ""
			if j < len(row) {
				cell = markdownCell(row[j])
			}
			sb.WriteString("| ")
			sb.WriteString(cell)
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	writeRow(t.Rows[0])
	for j := 0; j < cols; j++ {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}
	return sb.String()
}
