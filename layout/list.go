package layout

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/msocr/model"
)

// bulletRunes are the characters recognized as bullet markers. The private
// use code points are what Symbol and Wingdings bullets extract as.
var bulletRunes = map[rune]bool{
	'\u2022': true, // bullet
	'\u25CF': true, // black circle
	'\u25CB': true, // white circle
	'\u25A0': true, // black square
	'\u25A1': true, // white square
	'\u25AA': true,
	'\u25AB': true,
	'\u25E6': true,
	'\u2023': true, // triangular bullet
	'\u2043': true, // hyphen bullet
	'\u00B7': true, // middle dot
	'\u27A2': true,
	'\u2713': true, // check mark
	'\u2013': true, // en dash
	'\u2014': true, // em dash
	'\uF0B7': true,
	'\uF0A7': true,
	'-':      true,
	'*':      true,
}

var (
	numberedPattern = regexp.MustCompile(`^\(?(\d{1,3})[.)]\s+(\S.*)$`)
	letteredPattern = regexp.MustCompile(`^\(?([a-zA-Z])[.)]\s+(\S.*)$`)
)

// ListMarker is a detected list marker at the start of a line.
type ListMarker struct {
	Kind model.MarkerKind
	// Ordinal is the number or letter as written; empty for bullets
	Ordinal string
	// Text is the line with the marker removed
	Text string
}

// DetectListMarker reports whether line starts with a list marker.
func DetectListMarker(line string) (ListMarker, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ListMarker{}, false
	}

	if m, ok := detectBullet(line); ok {
		return m, true
	}
	if m := numberedPattern.FindStringSubmatch(line); m != nil {
		return ListMarker{Kind: model.MarkerNumber, Ordinal: m[1], Text: m[2]}, true
	}
	if m := letteredPattern.FindStringSubmatch(line); m != nil {
		return ListMarker{Kind: model.MarkerLetter, Ordinal: m[1], Text: m[2]}, true
	}
	return ListMarker{}, false
}

func detectBullet(line string) (ListMarker, bool) {
	r, size := utf8.DecodeRuneInString(line)
	if !bulletRunes[r] {
		return ListMarker{}, false
	}
	rest := line[size:]
	if rest == "" {
		return ListMarker{}, false
	}
	next, _ := utf8.DecodeRuneInString(rest)
	// ASCII markers need a following space so "-5 °C" or "*nota" stay text
	if r < utf8.RuneSelf && !unicode.IsSpace(next) {
		return ListMarker{}, false
	}
	text := strings.TrimSpace(rest)
	if text == "" {
		return ListMarker{}, false
	}
	return ListMarker{Kind: model.MarkerBullet, Text: text}, true
}

// splitAtListMarkers breaks a multi-line block wherever a line after the
// first starts with a list marker, so each item becomes its own block.
func splitAtListMarkers(blk model.TextBlock) []model.TextBlock {
	if len(blk.Lines) == 0 {
		return splitRawAtListMarkers(blk)
	}
	if len(blk.Lines) < 2 {
		return []model.TextBlock{blk}
	}

	var out []model.TextBlock
	start := 0
	for i := 1; i < len(blk.Lines); i++ {
		if _, ok := DetectListMarker(blk.Lines[i].Text()); ok {
			out = append(out, subBlock(blk, blk.Lines[start:i]))
			start = i
		}
	}
	if start == 0 {
		return []model.TextBlock{blk}
	}
	return append(out, subBlock(blk, blk.Lines[start:]))
}

func splitRawAtListMarkers(blk model.TextBlock) []model.TextBlock {
	lines := strings.Split(blk.Raw, "\n")
	if len(lines) < 2 {
		return []model.TextBlock{blk}
	}
	var out []model.TextBlock
	start := 0
	flush := func(end int) {
		b := blk
		b.Raw = strings.Join(lines[start:end], "\n")
		out = append(out, b)
	}
	for i := 1; i < len(lines); i++ {
		if _, ok := DetectListMarker(lines[i]); ok {
			flush(i)
			start = i
		}
	}
	if start == 0 {
		return []model.TextBlock{blk}
	}
	flush(len(lines))
	return out
}

func subBlock(parent model.TextBlock, lines []model.Line) model.TextBlock {
	b := model.TextBlock{
		Index:    parent.Index,
		Lines:    lines,
		FontSize: parent.FontSize,
		Tag:      parent.Tag,
	}
	for _, l := range lines {
		b.BBox = b.BBox.Union(l.BBox)
	}
	return b
}
