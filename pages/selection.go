package pages

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Range is an inclusive span of 1-indexed pages. End is 0 for an open
// range ("9-").
type Range struct {
	Start int
	End   int
}

// Selection is a set of page ranges. The zero Selection selects every page.
type Selection struct {
	Ranges []Range
}

// All returns a selection of every page
func All() Selection { return Selection{} }

// IsAll reports whether the selection covers every page
func (s Selection) IsAll() bool { return len(s.Ranges) == 0 }

// Parse reads a comma separated list of pages and ranges. An empty string
// selects every page.
func Parse(expr string) (Selection, error) {
	var sel Selection
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.EqualFold(expr, "all") {
		return sel, nil
	}

	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := parseRange(part)
		if err != nil {
			return Selection{}, err
		}
		sel.Ranges = append(sel.Ranges, r)
	}
	if len(sel.Ranges) == 0 {
		return Selection{}, fmt.Errorf("invalid page selection %q", expr)
	}
	return sel, nil
}

func parseRange(part string) (Range, error) {
	lo, hi, isRange := strings.Cut(part, "-")
	start, err := parsePage(lo)
	if err != nil {
		return Range{}, fmt.Errorf("invalid page selection %q: %w", part, err)
	}
	if !isRange {
		return Range{Start: start, End: start}, nil
	}
	if strings.TrimSpace(hi) == "" {
		return Range{Start: start}, nil
	}
	end, err := parsePage(hi)
	if err != nil {
		return Range{}, fmt.Errorf("invalid page selection %q: %w", part, err)
	}
	if end < start {
		return Range{}, fmt.Errorf("invalid page selection %q: end before start", part)
	}
	return Range{Start: start, End: end}, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a page number", strings.TrimSpace(s))
	}
	if n < 1 {
		return 0, fmt.Errorf("page %d out of range, pages start at 1", n)
	}
	return n, nil
}

// FromNumbers builds a selection from explicit 1-indexed page numbers
func FromNumbers(numbers ...int) Selection {
	var sel Selection
	for _, n := range numbers {
		sel.Ranges = append(sel.Ranges, Range{Start: n, End: n})
	}
	return sel
}

// Add returns a selection with another inclusive range appended
func (s Selection) Add(start, end int) Selection {
	ranges := append(append([]Range(nil), s.Ranges...), Range{Start: start, End: end})
	return Selection{Ranges: ranges}
}

// Resolve converts the selection into sorted unique 0-indexed page indices
// for a document with total pages. Requested pages beyond the end of the
// document are returned, 1-indexed, in ignored.
func (s Selection) Resolve(total int) (indices []int, ignored []int) {
	if total <= 0 {
		return nil, nil
	}
	if s.IsAll() {
		indices = make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	seen := make(map[int]bool)
	skipped := make(map[int]bool)
	for _, r := range s.Ranges {
		end := r.End
		if end == 0 {
			end = total
		}
		for p := r.Start; p <= end; p++ {
			if p > total {
				if !skipped[p] && r.End != 0 {
					skipped[p] = true
					ignored = append(ignored, p)
				}
				continue
			}
			if !seen[p-1] {
				seen[p-1] = true
				indices = append(indices, p-1)
			}
		}
	}
	sort.Ints(indices)
	sort.Ints(ignored)
	return indices, ignored
}

// String formats the selection in the syntax accepted by Parse
func (s Selection) String() string {
	if s.IsAll() {
		return "all"
	}
	parts := make([]string, len(s.Ranges))
	for i, r := range s.Ranges {
		switch {
		case r.End == 0:
			parts[i] = fmt.Sprintf("%d-", r.Start)
		case r.Start == r.End:
			parts[i] = strconv.Itoa(r.Start)
		default:
			parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End)
		}
	}
	return strings.Join(parts, ",")
}
