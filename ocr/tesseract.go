//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/msocr/model"
)

// Tesseract recognizes text with libtesseract through gosseract. A new
// client is created for every call, so one Tesseract value can serve many
// workers at once.
type Tesseract struct {
	PageSegMode PageSegMode
}

// NewTesseract returns a Tesseract engine using automatic page segmentation
func NewTesseract() (*Tesseract, error) {
	return &Tesseract{PageSegMode: PSM_AUTO}, nil
}

// Name identifies the engine in logs and errors
func (t *Tesseract) Name() string { return "tesseract" }

// Version returns the linked libtesseract version
func (t *Tesseract) Version() string { return gosseract.Version() }

// Recognize runs Tesseract on img and returns its words with pixel boxes.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, req Request) ([]model.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	c := gosseract.NewClient()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(req.Languages) > 0 {
		if err := c.SetLanguage(req.Languages...); err != nil {
			return nil, fmt.Errorf("set languages %s: %w", strings.Join(req.Languages, "+"), err)
		}
	}
	if req.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(req.DPI)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}
	mode := t.PageSegMode
	if req.PageSegMode != 0 {
		mode = req.PageSegMode
	}
	if mode != 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
			return nil, fmt.Errorf("set page segmentation mode %d: %w", mode, err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	words := make([]model.Word, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		bbox := model.NewBBox(float64(b.Box.Min.X), float64(b.Box.Min.Y), float64(b.Box.Dx()), float64(b.Box.Dy()))
		words = append(words, model.NewOCRWord(text, b.Confidence, bbox))
	}
	return words, nil
}
