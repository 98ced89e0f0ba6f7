//go:build !ocr

package ocr

import (
	"context"
	"image"

	"github.com/tsawler/msocr/model"
)

// Tesseract is the stub engine used when the "ocr" build tag is not set.
type Tesseract struct {
	PageSegMode PageSegMode
}

// NewTesseract reports that OCR support is not compiled in.
// To enable OCR, rebuild with: go build -tags ocr
func NewTesseract() (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Name identifies the engine in logs and errors
func (t *Tesseract) Name() string { return "tesseract" }

// Version is empty for the stub
func (t *Tesseract) Version() string { return "" }

// Recognize returns ErrOCRNotEnabled.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, req Request) ([]model.Word, error) {
	return nil, ErrOCRNotEnabled
}
