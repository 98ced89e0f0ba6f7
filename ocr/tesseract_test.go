//go:build ocr

package ocr

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// textImage renders a short line with the 7x13 bitmap face scaled up so
// Tesseract can read it.
func textImage(s string) image.Image {
	small := image.NewGray(image.Rect(0, 0, 7*len(s)+20, 30))
	for i := range small.Pix {
		small.Pix[i] = 255
	}
	d := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Gray{Y: 0}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 20),
	}
	d.DrawString(s)

	const k = 4
	b := small.Bounds()
	big := image.NewGray(image.Rect(0, 0, b.Dx()*k, b.Dy()*k))
	for y := 0; y < big.Rect.Dy(); y++ {
		for x := 0; x < big.Rect.Dx(); x++ {
			big.SetGray(x, y, small.GrayAt(x/k, y/k))
		}
	}
	return big
}

func TestTesseractRecognizesWords(t *testing.T) {
	engine, err := NewTesseract()
	require.NoError(t, err)
	if engine.Version() == "" {
		t.Skip("libtesseract not available")
	}

	words, err := engine.Recognize(context.Background(), textImage("HELLO WORLD"), Request{Languages: []string{"eng"}, DPI: 300})
	if err != nil {
		t.Skipf("tesseract unavailable: %v", err)
	}
	require.NotEmpty(t, words)
	for _, w := range words {
		require.NotNil(t, w.Confidence)
		assert.GreaterOrEqual(t, *w.Confidence, 0.0)
		assert.LessOrEqual(t, *w.Confidence, 100.0)
	}
}
