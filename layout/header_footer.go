package layout

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/msocr/model"
)

// Band is the vertical page region a block sits in
type Band int

const (
	BandBody Band = iota
	BandTop
	BandBottom
)

func (b Band) String() string {
	switch b {
	case BandTop:
		return "top"
	case BandBottom:
		return "bottom"
	default:
		return "body"
	}
}

// RepeatConfig holds header/footer detection settings
type RepeatConfig struct {
	// BandFraction is the share of page height at the top and at the bottom
	// in which headers and footers are looked for
	BandFraction float64

	// MinRepeats is the number of other pages the same text must appear on
	MinRepeats int

	// MaxWords bounds how long a header or footer can be
	MaxWords int
}

// DefaultRepeatConfig returns sensible defaults
func DefaultRepeatConfig() RepeatConfig {
	return RepeatConfig{
		BandFraction: 0.1,
		MinRepeats:   2,
		MaxWords:     20,
	}
}

// PageBlocks is the per-page input to BuildRepeatIndex
type PageBlocks struct {
	Index  int
	Height float64
	Blocks []model.TextBlock
}

type repeatKey struct {
	band Band
	text string
}

// RepeatIndex records which short band texts occur on which pages. It is
// built once per document and is read-only afterwards, so it can be shared
// by concurrent classifiers.
type RepeatIndex struct {
	cfg   RepeatConfig
	pages map[repeatKey]map[int]struct{}
}

// BuildRepeatIndex indexes the top and bottom band blocks of every page.
func BuildRepeatIndex(pages []PageBlocks, cfg RepeatConfig) *RepeatIndex {
	if cfg.BandFraction <= 0 {
		cfg.BandFraction = DefaultRepeatConfig().BandFraction
	}
	if cfg.MinRepeats <= 0 {
		cfg.MinRepeats = DefaultRepeatConfig().MinRepeats
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = DefaultRepeatConfig().MaxWords
	}

	idx := &RepeatIndex{cfg: cfg, pages: make(map[repeatKey]map[int]struct{})}
	for _, p := range pages {
		for _, blk := range p.Blocks {
			key, ok := idx.key(blk, p.Height)
			if !ok {
				continue
			}
			set := idx.pages[key]
			if set == nil {
				set = make(map[int]struct{})
				idx.pages[key] = set
			}
			set[p.Index] = struct{}{}
		}
	}
	return idx
}

// IsRepeated reports whether blk, found on page pageIndex, repeats in the
// same band on at least MinRepeats other pages. A nil index never matches.
func (r *RepeatIndex) IsRepeated(pageIndex int, blk model.TextBlock, pageHeight float64) bool {
	if r == nil {
		return false
	}
	key, ok := r.key(blk, pageHeight)
	if !ok {
		return false
	}
	others := 0
	for idx := range r.pages[key] {
		if idx != pageIndex {
			others++
		}
	}
	return others >= r.cfg.MinRepeats
}

// Len returns the number of distinct band texts indexed
func (r *RepeatIndex) Len() int {
	if r == nil {
		return 0
	}
	return len(r.pages)
}

func (r *RepeatIndex) key(blk model.TextBlock, pageHeight float64) (repeatKey, bool) {
	band := bandOf(blk.BBox, pageHeight, r.cfg.BandFraction)
	if band == BandBody {
		return repeatKey{}, false
	}
	txt := blk.Text()
	if len(strings.Fields(txt)) > r.cfg.MaxWords {
		return repeatKey{}, false
	}
	n := NormalizeRepeatText(txt)
	if n == "" {
		return repeatKey{}, false
	}
	return repeatKey{band: band, text: n}, true
}

func bandOf(b model.BBox, pageHeight, fraction float64) Band {
	if pageHeight <= 0 || b.IsEmpty() {
		return BandBody
	}
	limit := pageHeight * fraction
	switch {
	case b.Bottom() <= limit:
		return BandTop
	case b.Top() >= pageHeight-limit:
		return BandBottom
	}
	return BandBody
}

var (
	folder = cases.Fold()

	pageNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^-?\s*\d+\s*-?$`),
		regexp.MustCompile(`^(page|pag|pág|página|pagina|p|pg)\.?\s*\d+(\s*(of|de|/)\s*\d+)?$`),
		regexp.MustCompile(`^\d+\s*(of|de|/)\s*\d+$`),
	}
)

// NormalizeRepeatText reduces text to the form used to compare headers and
// footers across pages: compatibility-normalized, case-folded, whitespace
// collapsed. Bare page numbers ("12", "Página 3 de 9") collapse to "#" so
// that numbering footers match each other.
func NormalizeRepeatText(s string) string {
	s = norm.NFKC.String(s)
	s = folder.String(s)
	s = strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
	for _, re := range pageNumberPatterns {
		if re.MatchString(s) {
			return "#"
		}
	}
	return s
}
