package tables

import (
	"context"
	"errors"
	"image"

	"golang.org/x/image/draw"

	"github.com/tsawler/msocr/model"
)

// ErrNoDPI is returned when a raster page does not carry its resolution
var ErrNoDPI = errors.New("raster page has no DPI")

// darkThreshold is the gray level below which a pixel counts as ink
const darkThreshold = 128

// Raster is the secondary engine for scanned pages. It finds long dark
// runs in the page bitmap, treats them as rulings and builds grids the same
// way Lattice does, filling cells with OCR words.
type Raster struct {
	config Config
}

// NewRaster creates a raster strategy
func NewRaster(config Config) *Raster {
	return &Raster{config: config}
}

// Name returns "raster"
func (r *Raster) Name() string { return "raster" }

// Attempt only runs on OCR pages that still hold their bitmap.
func (r *Raster) Attempt(ctx context.Context, page *model.Page) ([]model.TableCandidate, error) {
	if page.Classification != model.ClassOCR || page.Raster == nil {
		return nil, nil
	}
	if page.RasterDPI <= 0 {
		return nil, ErrNoDPI
	}
	rulings := DetectRulings(page.Raster, page.RasterDPI, r.config.MinRasterLine)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return gridCandidates(rulings, page.Words, r.config, r.Name()), nil
}

// run is a dark segment along one scan line, widened across neighbouring
// scan lines. along is the scan direction, across the perpendicular.
type run struct {
	alongLo, alongHi   int
	acrossLo, acrossHi int
}

// DetectRulings returns horizontal and vertical lines at least minLen
// points long found in img, in page points.
func DetectRulings(img image.Image, dpi int, minLen float64) []model.BBox {
	gray := toGray(img)
	b := gray.Bounds()
	if b.Empty() || dpi <= 0 {
		return nil
	}
	scale := 72.0 / float64(dpi)
	minPx := int(minLen / scale)
	if minPx < 2 {
		minPx = 2
	}
	maxThick := int(maxRulingThickness / scale)
	if maxThick < 1 {
		maxThick = 1
	}

	w, h := b.Dx(), b.Dy()
	dark := func(x, y int) bool {
		return gray.Pix[y*gray.Stride+x] < darkThreshold
	}

	var out []model.BBox
	for _, r := range scanRuns(h, w, minPx, maxThick, func(i, j int) bool { return dark(j, i) }) {
		out = append(out, model.BBox{
			X:      float64(r.alongLo) * scale,
			Y:      float64(r.acrossLo) * scale,
			Width:  float64(r.alongHi-r.alongLo+1) * scale,
			Height: float64(r.acrossHi-r.acrossLo+1) * scale,
		})
	}
	for _, r := range scanRuns(w, h, minPx, maxThick, func(i, j int) bool { return dark(i, j) }) {
		out = append(out, model.BBox{
			X:      float64(r.acrossLo) * scale,
			Y:      float64(r.alongLo) * scale,
			Width:  float64(r.acrossHi-r.acrossLo+1) * scale,
			Height: float64(r.alongHi-r.alongLo+1) * scale,
		})
	}
	return out
}

// scanRuns walks n scan lines of the given length, collects dark runs of at
// least minLen and merges runs on adjacent scan lines that overlap. Merged
// runs thicker than maxThick are filled areas and are discarded.
func scanRuns(n, length, minLen, maxThick int, dark func(i, j int) bool) []run {
	var done, open []run
	for i := 0; i < n; i++ {
		var next []run
		used := make([]bool, len(open))
		j := 0
		for j < length {
			if !dark(i, j) {
				j++
				continue
			}
			start := j
			for j < length && dark(i, j) {
				j++
			}
			if j-start < minLen {
				continue
			}
			cur := run{alongLo: start, alongHi: j - 1, acrossLo: i, acrossHi: i}
			for k, o := range open {
				if !used[k] && overlaps(o, cur) {
					used[k] = true
					cur.alongLo = min(cur.alongLo, o.alongLo)
					cur.alongHi = max(cur.alongHi, o.alongHi)
					cur.acrossLo = o.acrossLo
					break
				}
			}
			next = append(next, cur)
		}
		for k, o := range open {
			if !used[k] {
				done = append(done, o)
			}
		}
		open = next
	}
	done = append(done, open...)

	out := done[:0]
	for _, r := range done {
		if r.acrossHi-r.acrossLo+1 <= maxThick {
			out = append(out, r)
		}
	}
	return out
}

// overlaps reports whether b covers at least half of the shorter of a and b
func overlaps(a, b run) bool {
	lo := max(a.alongLo, b.alongLo)
	hi := min(a.alongHi, b.alongHi)
	if hi < lo {
		return false
	}
	shorter := min(a.alongHi-a.alongLo, b.alongHi-b.alongLo) + 1
	return 2*(hi-lo+1) >= shorter
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
