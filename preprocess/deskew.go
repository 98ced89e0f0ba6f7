package preprocess

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// darkLevel is the luminance below which a pixel counts as ink
const darkLevel = 128

// maxSamples bounds the ink pixels used by the angle search
const maxSamples = 60000

// DetectSkew estimates the dominant text-line angle in degrees within
// [-maxAngle, maxAngle]. Rotating the image by the returned angle with
// Rotate makes the lines horizontal. Pages without ink return 0.
func DetectSkew(img image.Image, maxAngle float64) float64 {
	g := toGray(img)
	pts := inkSamples(g)
	if len(pts) < 10 {
		return 0
	}
	w, h := g.Rect.Dx(), g.Rect.Dy()

	best := searchAngles(pts, w, h, -maxAngle, maxAngle, 0.5, 0)
	return searchAngles(pts, w, h, best-0.5, best+0.5, 0.05, best)
}

func searchAngles(pts []image.Point, w, h int, from, to, step, fallback float64) float64 {
	bins := make([]int, h+2*w+2)
	bestAngle := fallback
	bestScore := -1.0
	for a := from; a <= to+1e-9; a += step {
		score := profileScore(pts, w, a, bins)
		// prefer the angle closest to zero on ties
		if score > bestScore || (score == bestScore && math.Abs(a) < math.Abs(bestAngle)) {
			bestScore = score
			bestAngle = a
		}
	}
	return math.Round(bestAngle*100) / 100
}

// profileScore is the sum of squared bin counts of the projection of the
// ink onto lines at the given angle. Aligned text gives sharp peaks.
func profileScore(pts []image.Point, w int, angle float64, bins []int) float64 {
	for i := range bins {
		bins[i] = 0
	}
	sin, cos := math.Sincos(angle * math.Pi / 180)
	for _, p := range pts {
		y := float64(p.X)*sin + float64(p.Y)*cos
		idx := int(math.Round(y)) + w
		if idx >= 0 && idx < len(bins) {
			bins[idx]++
		}
	}
	score := 0.0
	for _, c := range bins {
		score += float64(c) * float64(c)
	}
	return score
}

func inkSamples(g *image.Gray) []image.Point {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	ink := 0
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			if row[x] < darkLevel {
				ink++
			}
		}
	}
	if ink == 0 {
		return nil
	}
	stride := 1
	if ink > maxSamples {
		stride = (ink + maxSamples - 1) / maxSamples
	}

	pts := make([]image.Point, 0, min(ink, maxSamples))
	n := 0
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			if row[x] < darkLevel {
				if n%stride == 0 {
					pts = append(pts, image.Pt(x, y))
				}
				n++
			}
		}
	}
	return pts
}

// Rotate turns img by angle degrees about its centre, keeping the size and
// filling uncovered areas with white.
func Rotate(img image.Image, angle float64) *image.Gray {
	src := toGray(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)

	sin, cos := math.Sincos(angle * math.Pi / 180)
	cx, cy := float64(w)/2, float64(h)/2
	s2d := f64.Aff3{
		cos, -sin, cx - (cos*cx - sin*cy),
		sin, cos, cy - (sin*cx + cos*cy),
	}
	draw.BiLinear.Transform(dst, s2d, src, src.Bounds(), draw.Over, nil)
	return dst
}

// Deskew detects the skew angle and rotates the image when it exceeds the
// tolerance. It returns the applied angle, 0 when no rotation was needed.
func Deskew(img image.Image, maxAngle, tolerance float64) (image.Image, float64, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, 0, ErrEmptyImage
	}
	angle := DetectSkew(img, maxAngle)
	if math.Abs(angle) <= tolerance {
		return img, 0, nil
	}
	return Rotate(img, angle), angle, nil
}
