package preprocess

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// toGray returns img as *image.Gray with a zero origin, converting when
// needed.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// Grayscale converts img to 8-bit luminance.
func Grayscale(img image.Image) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if g, ok := img.(*image.Gray); ok {
		return toGray(g), nil
	}
	return toGray(imaging.Grayscale(img)), nil
}

// DenoiseSigma is the standard deviation of the Gaussian blur in Denoise
const DenoiseSigma = 1.0

// Denoise applies a Gaussian blur. Borders are weighted over the pixels
// inside the image, so flat regions stay flat.
func Denoise(img image.Image) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return toGray(imaging.Blur(toGray(img), DenoiseSigma)), nil
}

// CLAHE performs contrast limited adaptive histogram equalisation over a
// grid x grid tiling, interpolating bilinearly between tile mappings.
func CLAHE(img image.Image, clipLimit float64, grid int) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if grid < 1 {
		grid = 1
	}
	src := toGray(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	gx, gy := min(grid, w), min(grid, h)
	tw := int(math.Ceil(float64(w) / float64(gx)))
	th := int(math.Ceil(float64(h) / float64(gy)))

	luts := make([][256]uint8, gx*gy)
	for ty := 0; ty < gy; ty++ {
		for tx := 0; tx < gx; tx++ {
			x0, y0 := tx*tw, ty*th
			x1, y1 := min(x0+tw, w), min(y0+th, h)
			luts[ty*gx+tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		// position relative to tile centres
		fy := (float64(y)+0.5)/float64(th) - 0.5
		ty0 := clamp(int(math.Floor(fy)), 0, gy-1)
		ty1 := clamp(ty0+1, 0, gy-1)
		wy := math.Min(math.Max(fy-float64(ty0), 0), 1)
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tw) - 0.5
			tx0 := clamp(int(math.Floor(fx)), 0, gx-1)
			tx1 := clamp(tx0+1, 0, gx-1)
			wx := math.Min(math.Max(fx-float64(tx0), 0), 1)

			v := src.Pix[y*src.Stride+x]
			top := (1-wx)*float64(luts[ty0*gx+tx0][v]) + wx*float64(luts[ty0*gx+tx1][v])
			bot := (1-wx)*float64(luts[ty1*gx+tx0][v]) + wx*float64(luts[ty1*gx+tx1][v])
			dst.Pix[y*dst.Stride+x] = uint8(math.Round((1-wy)*top + wy*bot))
		}
	}
	return dst, nil
}

func tileLUT(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	n := 0
	for y := y0; y < y1; y++ {
		row := src.Pix[y*src.Stride:]
		for x := x0; x < x1; x++ {
			hist[row[x]]++
			n++
		}
	}

	var lut [256]uint8
	if n == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	limit := int(math.Max(clipLimit*float64(n)/256, 1))
	excess := 0
	for i, c := range hist {
		if c > limit {
			excess += c - limit
			hist[i] = limit
		}
	}
	share, rest := excess/256, excess%256
	for i := range hist {
		hist[i] += share
	}
	for i := 0; i < rest; i++ {
		hist[i*256/rest]++
	}

	cdf := 0
	for i, c := range hist {
		cdf += c
		lut[i] = uint8(clamp(int(math.Round(float64(cdf)*255/float64(n))), 0, 255))
	}
	return lut
}

// OtsuThreshold returns the threshold that maximises the between-class
// variance of the grey-level histogram.
func OtsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			hist[row[x]]++
		}
	}
	total := w * h
	if total == 0 {
		return 128
	}

	sumAll := 0.0
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var best uint8
	bestVar := -1.0
	sumB, wB := 0.0, 0
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sumAll - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = uint8(t)
		}
	}
	return best
}

// Binarize thresholds img with Otsu's method. Pixels above the threshold
// become white, the rest black. It returns the threshold used.
func Binarize(img image.Image) (*image.Gray, uint8, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, 0, ErrEmptyImage
	}
	src := toGray(img)
	t := OtsuThreshold(src)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src.Pix[y*src.Stride+x] > t {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst, t, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
