package reader

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoRaster is returned for pages that carry no decodable image
var ErrNoRaster = errors.New("page has no embedded image")

// RasterImage is a page bitmap and the resolution it represents
type RasterImage struct {
	Image image.Image
	DPI   int
}

var disableConfigDir sync.Once

// rasterSource lazily parses the file with pdfcpu on the first request so
// documents without scanned pages never pay for it.
type rasterSource struct {
	path string
	ctx  *model.Context
	err  error
	once sync.Once
}

func newRasterSource(path string) *rasterSource {
	return &rasterSource{path: path}
}

func (s *rasterSource) load() error {
	s.once.Do(func() {
		disableConfigDir.Do(api.DisableConfigDir)

		f, err := os.Open(s.path)
		if err != nil {
			s.err = err
			return
		}
		defer f.Close()

		ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
		if err != nil {
			s.err = fmt.Errorf("pdfcpu read: %w", err)
			return
		}
		s.ctx = ctx
	})
	return s.err
}

func (s *rasterSource) close() error {
	s.ctx = nil
	return nil
}

// largestImage decodes every image of a 1-indexed page and returns the one
// with the most pixels.
func (s *rasterSource) largestImage(pageNr int) (image.Image, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	if s.ctx == nil {
		return nil, errors.New("document is closed")
	}

	images, err := pdfcpu.ExtractPageImages(s.ctx, pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	var best image.Image
	var bestArea int
	var decodeErrs []error
	for _, objNr := range sortedKeys(images) {
		img := images[objNr]
		decoded, _, err := image.Decode(img)
		if err != nil {
			decodeErrs = append(decodeErrs, fmt.Errorf("image %s (%s): %w", img.Name, img.FileType, err))
			continue
		}
		b := decoded.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = decoded, area
		}
	}
	if best == nil {
		return nil, errors.Join(append([]error{ErrNoRaster}, decodeErrs...)...)
	}
	return best, nil
}

// resampleToDPI scales img so that pageWidth points map to dpi. Images
// already within 2% of the target are returned unchanged.
func resampleToDPI(img image.Image, pageWidth float64, dpi int) image.Image {
	b := img.Bounds()
	if pageWidth <= 0 || dpi <= 0 || b.Dx() == 0 {
		return img
	}
	targetW := int(math.Round(pageWidth * float64(dpi) / 72.0))
	scale := float64(targetW) / float64(b.Dx())
	if math.Abs(scale-1) < 0.02 {
		return img
	}
	targetH := int(math.Round(float64(b.Dy()) * scale))
	if targetW < 1 || targetH < 1 {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
