package layout

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/msocr/model"
)

// terminalPunct ends sentences; a line ending in one is not a heading
const terminalPunct = ".,;:"

// looksLikeHeading checks the shape of a candidate heading line: short,
// starting with an uppercase letter or digit, and not closing a sentence.
func looksLikeHeading(text string, maxWords int) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsRune(text, '\n') {
		return false
	}
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > maxWords {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	if strings.ContainsRune(terminalPunct, last) || last == '\u2026' {
		return false
	}
	for _, r := range text {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r) || !unicode.IsLower(r)
		}
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// isAllCaps reports whether every letter in text is uppercase and there are
// at least four of them.
func isAllCaps(text string) bool {
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		letters++
	}
	return letters >= 4
}

// isParagraphLike reports whether blk reads as body text: several lines, or
// a single line clearly longer than the heading candidate before it.
func isParagraphLike(blk model.TextBlock, candidateWords int) bool {
	if blk.LineCount() > 1 {
		return true
	}
	words := len(strings.Fields(blk.Text()))
	return words >= 8 && words > 2*candidateWords
}

// bodyFontSize returns the line-weighted median font size of a page's
// blocks, or 0 when no block carries a size.
func bodyFontSize(blocks []model.TextBlock) float64 {
	var sizes []float64
	for _, b := range blocks {
		if b.FontSize <= 0 {
			continue
		}
		n := b.LineCount()
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			sizes = append(sizes, b.FontSize)
		}
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}

// joinLines flattens block text onto one line
func joinLines(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
