// Package postprocess repairs the text of classified page elements:
// hyphenation breaks, spacing, list numbering and OCR digit confusions.
// Every change is counted so it can be reported as words corrected.
//
// Section numbers and list ordinals live in their own element fields and
// are never touched by the text rules.
package postprocess

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/msocr/model"
)

// Config toggles the individual rules
type Config struct {
	Dehyphenate   bool
	FixSpacing    bool
	RenumberLists bool
	FixOCRDigits  bool
}

// DefaultConfig enables every rule
func DefaultConfig() Config {
	return Config{
		Dehyphenate:   true,
		FixSpacing:    true,
		RenumberLists: true,
		FixOCRDigits:  true,
	}
}

// Stats counts the corrections made, per rule
type Stats struct {
	Dehyphenated int
	Spacing      int
	Renumbered   int
	OCRDigits    int
}

// Total returns the number of corrections
func (s Stats) Total() int {
	return s.Dehyphenated + s.Spacing + s.Renumbered + s.OCRDigits
}

// Processor applies the post-processing rules
type Processor struct {
	config Config
}

// New creates a processor
func New(config Config) *Processor {
	return &Processor{config: config}
}

var (
	// hyphen or soft hyphen at a line end, lowercase continuation
	lineHyphen = regexp.MustCompile(`(\p{L}+)[-\x{00AD}][ \t]*\n[ \t]*(\p{Ll}\p{L}*)`)
	endHyphen  = regexp.MustCompile(`(\p{L}+)[-\x{00AD}]\s*$`)

	multiSpace        = regexp.MustCompile(`[ \t\x{00A0}]{2,}`)
	spaceBeforePunct  = regexp.MustCompile(`[ \t]+([,.;:!?])`)
	missingAfterPunct = regexp.MustCompile(`([,;:!?])(\p{L})`)
	missingAfterStop  = regexp.MustCompile(`(\p{Ll})\.(\p{Lu})`)

	// digit tokens with a letter O or l read in place of 0 or 1
	ocrDigitToken = regexp.MustCompile(`\b[0-9OlI]*[0-9][0-9OlI]*\b`)
)

// ProcessPage rewrites the page elements in place and adds the number of
// corrections to the page metrics. Digit fixes only run on OCR pages.
func (p *Processor) ProcessPage(page *model.Page) Stats {
	elems, stats := p.Process(page.Elements, page.Classification == model.ClassOCR)
	page.Elements = elems
	page.Metrics.WordsCorrected += stats.Total()
	return stats
}

// Process applies the enabled rules to elems and returns the rewritten
// sequence. Element order is preserved; an element emptied by a join with
// its predecessor is removed.
func (p *Processor) Process(elems []model.LayoutElement, ocr bool) ([]model.LayoutElement, Stats) {
	var stats Stats
	out := make([]model.LayoutElement, len(elems))
	copy(out, elems)

	if p.config.Dehyphenate {
		for i := range out {
			if out[i].Kind == model.ElementTableReference {
				continue
			}
			var n int
			out[i].Text, n = dehyphenateLines(out[i].Text)
			stats.Dehyphenated += n
		}
		var n int
		out, n = dehyphenateAcross(out)
		stats.Dehyphenated += n
	}

	for i := range out {
		if out[i].Kind == model.ElementTableReference {
			continue
		}
		out[i].Text = joinLines(out[i].Text)
		if p.config.FixSpacing {
			var n int
			out[i].Text, n = fixSpacing(out[i].Text)
			stats.Spacing += n
		}
		if ocr && p.config.FixOCRDigits {
			var n int
			out[i].Text, n = fixOCRDigits(out[i].Text)
			stats.OCRDigits += n
		}
	}

	if p.config.RenumberLists {
		stats.Renumbered = renumber(out)
	}
	return out, stats
}

// dehyphenateLines joins words split across lines inside one text
func dehyphenateLines(s string) (string, int) {
	n := 0
	s = lineHyphen.ReplaceAllStringFunc(s, func(m string) string {
		n++
		sub := lineHyphen.FindStringSubmatch(m)
		return sub[1] + sub[2]
	})
	return s, n
}

// dehyphenateAcross joins a word split between an element ending in a
// hyphen and a following paragraph starting in lowercase.
func dehyphenateAcross(elems []model.LayoutElement) ([]model.LayoutElement, int) {
	n := 0
	out := elems[:0]
	for i := 0; i < len(elems); i++ {
		cur := elems[i]
		for i+1 < len(elems) && joinable(cur, elems[i+1]) {
			next := elems[i+1]
			head := endHyphen.FindStringSubmatchIndex(cur.Text)
			first, rest := firstWord(next.Text)
			cur.Text = cur.Text[:head[3]] + first
			n++
			cur.Blocks = append(append([]model.TextBlock(nil), cur.Blocks...), next.Blocks...)
			rest = strings.TrimRightFunc(rest, unicode.IsSpace)
			if r, _ := utf8.DecodeRuneInString(rest); unicode.IsSpace(r) {
				cur.Text += "\n" + strings.TrimSpace(rest)
			} else {
				cur.Text += rest
			}
			i++
		}
		out = append(out, cur)
	}
	return out, n
}

func joinable(cur, next model.LayoutElement) bool {
	if cur.Kind != model.ElementParagraph && cur.Kind != model.ElementListItem {
		return false
	}
	if next.Kind != model.ElementParagraph || !endHyphen.MatchString(cur.Text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(strings.TrimLeftFunc(next.Text, unicode.IsSpace))
	return unicode.IsLower(r)
}

func firstWord(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// joinLines trims every line and joins them with single spaces
func joinLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, " ")
}

// fixSpacing collapses repeated spaces, removes spaces before punctuation
// and adds a missing space after it. Numbers such as 2.3 or 1,5 are left
// alone because the rules only fire next to letters.
func fixSpacing(s string) (string, int) {
	n := 0
	count := func(re *regexp.Regexp, repl string) {
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			n++
			return re.ReplaceAllString(m, repl)
		})
	}
	count(multiSpace, " ")
	count(spaceBeforePunct, "$1")
	count(missingAfterPunct, "$1 $2")
	count(missingAfterStop, "$1. $2")
	return s, n
}

// fixOCRDigits replaces O with 0 and l or I with 1 inside tokens that are
// otherwise digits, e.g. "2O23" or "l5".
func fixOCRDigits(s string) (string, int) {
	n := 0
	s = ocrDigitToken.ReplaceAllStringFunc(s, func(tok string) string {
		fixed := strings.NewReplacer("O", "0", "l", "1", "I", "1").Replace(tok)
		if fixed != tok {
			n++
		}
		return fixed
	})
	return s, n
}

// renumber rewrites ordinals of ordered lists so that each list counts up
// from 1 (or a/A). It returns the number of ordinals changed.
func renumber(elems []model.LayoutElement) int {
	changed := 0
	pos := make(map[int]int)
	upper := make(map[int]bool)
	for i := range elems {
		el := &elems[i]
		if el.Kind != model.ElementListItem || !el.Marker.IsOrdered() {
			continue
		}
		k := pos[el.ListID]
		if k == 0 && el.Marker == model.MarkerLetter {
			r, _ := utf8.DecodeRuneInString(el.Ordinal)
			upper[el.ListID] = unicode.IsUpper(r)
		}
		pos[el.ListID] = k + 1

		want := ordinal(el.Marker, k, upper[el.ListID])
		if want == "" || want == el.Ordinal {
			continue
		}
		el.Ordinal = want
		changed++
	}
	return changed
}

// ordinal returns the k-th (0-based) ordinal for a marker kind. Letter
// lists longer than the alphabet keep their original ordinals.
func ordinal(kind model.MarkerKind, k int, upper bool) string {
	switch kind {
	case model.MarkerNumber:
		return strconv.Itoa(k + 1)
	case model.MarkerLetter:
		if k >= 26 {
			return ""
		}
		base := 'a'
		if upper {
			base = 'A'
		}
		return string(rune(int(base) + k))
	}
	return ""
}
