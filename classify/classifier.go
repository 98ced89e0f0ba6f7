// Package classify decides whether a page is read from its native text
// layer or sent to recognition.
package classify

import (
	"math"

	"github.com/tsawler/msocr/model"
)

// DefaultThreshold is the minimum native text ratio for a page to be read
// natively. See the config package for how it was chosen.
const DefaultThreshold = 0.05

// Classifier computes native text ratios and classifies pages.
type Classifier struct {
	// Threshold is the ratio at or above which a page is native
	Threshold float64
}

// New returns a classifier with the given threshold. The threshold is used
// as given: with 0 every page carrying any native text is native, while a
// ratio of 0 still never is.
func New(threshold float64) *Classifier {
	return &Classifier{Threshold: threshold}
}

// NativeTextRatio returns the fraction of the page area covered by the
// boxes of native words, in [0,1]. Overlapping boxes are counted once per
// grid cell of a coarse occupancy raster.
func NativeTextRatio(words []model.Word, width, height float64) float64 {
	if width <= 0 || height <= 0 || len(words) == 0 {
		return 0
	}

	// one cell per square point is accurate enough and bounded in size
	const cell = 1.0
	cols := int(math.Ceil(width / cell))
	rows := int(math.Ceil(height / cell))
	covered := make([]bool, cols*rows)
	count := 0

	page := model.NewBBox(0, 0, width, height)
	for _, w := range words {
		if !w.IsNative() || w.Text == "" {
			continue
		}
		b := w.BBox.Intersection(page)
		if b.IsEmpty() {
			continue
		}
		x0, x1 := int(b.Left()/cell), int(math.Ceil(b.Right()/cell))
		y0, y1 := int(b.Top()/cell), int(math.Ceil(b.Bottom()/cell))
		for y := max(y0, 0); y < min(y1, rows); y++ {
			row := covered[y*cols : (y+1)*cols]
			for x := max(x0, 0); x < min(x1, cols); x++ {
				if !row[x] {
					row[x] = true
					count++
				}
			}
		}
	}

	ratio := float64(count) / float64(cols*rows)
	return math.Min(math.Max(ratio, 0), 1)
}

// Classify sets the page's native text ratio and classification from the
// given native words. It never fails: a degenerate page is OCR-required.
func (c *Classifier) Classify(page *model.Page, words []model.Word) model.Classification {
	ratio := NativeTextRatio(words, page.Width, page.Height)
	page.NativeTextRatio = ratio
	page.Metrics.NativeTextRatio = ratio
	page.Classification = c.Decide(ratio)
	return page.Classification
}

// Decide maps a ratio onto a classification
func (c *Classifier) Decide(ratio float64) model.Classification {
	if ratio > 0 && ratio >= c.Threshold {
		return model.ClassNative
	}
	return model.ClassOCR
}
