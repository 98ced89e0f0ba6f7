package layout

import (
	"regexp"
	"strings"
)

var (
	// 2.3 Objetivos, 4.1.2. Alcance
	multiSectionPattern = regexp.MustCompile(`^(\d{1,3}(?:\.\d{1,3})+)\.?\s+(\S.*)$`)
	// 3 Metodología; "3. Metodología" is a numbered list item instead
	singleSectionPattern = regexp.MustCompile(`^(\d{1,3})\s+(\p{L}.*)$`)
)

// Section is a parsed numeric-dot section prefix.
type Section struct {
	Number string
	Title  string
	Depth  int
}

// ParseSection splits a heading line into its section number and title.
// The depth is the number of dot-separated components.
func ParseSection(line string) (Section, bool) {
	line = strings.TrimSpace(line)
	m := multiSectionPattern.FindStringSubmatch(line)
	if m == nil {
		m = singleSectionPattern.FindStringSubmatch(line)
	}
	if m == nil {
		return Section{}, false
	}
	title := strings.TrimSpace(m[2])
	if title == "" {
		return Section{}, false
	}
	return Section{
		Number: m[1],
		Title:  title,
		Depth:  strings.Count(m[1], ".") + 1,
	}, true
}

// SectionLevel maps a section depth onto a heading level in [1, cap].
func SectionLevel(depth, cap int) int {
	if cap < 1 {
		cap = 1
	}
	switch {
	case depth < 1:
		return 1
	case depth > cap:
		return cap
	}
	return depth
}
