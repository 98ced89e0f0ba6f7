// Package ocr runs text recognition on preprocessed page bitmaps and
// normalises the engine output into words with confidences and boxes in
// page points.
//
// The [Engine] interface is the seam to the external recognizer. [Tesseract]
// implements it with gosseract when the module is built with the "ocr" tag:
//
//	go build -tags ocr ./...
//
// This requires Tesseract and its language data to be installed. On macOS:
//
//	brew install tesseract tesseract-lang
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr tesseract-ocr-spa libtesseract-dev
//
// Without the tag [NewTesseract] returns [ErrOCRNotEnabled].
//
// [Adapter] wraps an engine with a per-call timeout, a minimum-confidence
// filter and error normalisation: every failure, including a timeout or a
// panic inside the engine, is reported as a [RecognitionError].
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/tsawler/msocr/model"
)

// ErrOCRNotEnabled is returned when recognition is requested but support
// was not compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// ErrTimeout is wrapped by RecognitionError when the engine exceeds the
// adapter's timeout
var ErrTimeout = errors.New("recognition timed out")

// PageSegMode represents Tesseract page segmentation modes. The zero value
// leaves the choice to the engine.
type PageSegMode int

// Page segmentation modes that produce words
const (
	PSM_AUTO_OSD      PageSegMode = 1  // Automatic with OSD
	PSM_AUTO          PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_COLUMN PageSegMode = 4  // Single column of variable sizes
	PSM_SINGLE_BLOCK  PageSegMode = 6  // Single uniform block of text
	PSM_SPARSE_TEXT   PageSegMode = 11 // Find as much text as possible
)

// Valid reports whether m is zero or one of the modes above.
func (m PageSegMode) Valid() bool {
	switch m {
	case 0, PSM_AUTO_OSD, PSM_AUTO, PSM_SINGLE_COLUMN, PSM_SINGLE_BLOCK, PSM_SPARSE_TEXT:
		return true
	}
	return false
}

// Request describes one recognition call
type Request struct {
	Languages []string
	DPI       int
	// PageSegMode overrides the engine's mode when non-zero
	PageSegMode PageSegMode
}

// Engine recognizes words in an image. Boxes are returned in pixels of the
// input image. Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, req Request) ([]model.Word, error)
}

// RecognitionError reports that the engine was unavailable, crashed or
// timed out for a page.
type RecognitionError struct {
	Page int
	Err  error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("page %d: recognition failed: %v", e.Page+1, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Options configures an Adapter.
type Options struct {
	Languages []string

	// MinConfidence drops words below this confidence (0-100).
	// Default: 0 (keep everything)
	MinConfidence float64

	// Timeout bounds each engine call. Zero disables the bound.
	Timeout time.Duration

	// PageSegMode is passed to the engine with every request
	PageSegMode PageSegMode
}

// Result is the normalised output for one page.
type Result struct {
	// Words are the kept words with boxes in page points
	Words []model.Word
	// Dropped counts words removed by the confidence filter
	Dropped int
	// MeanConfidence averages every recognized word, kept or not. It is
	// nil when the engine found no words.
	MeanConfidence *float64
	Duration       time.Duration
}

// Adapter normalises an Engine for the pipeline.
type Adapter struct {
	engine Engine
	opts   Options
}

// NewAdapter wraps engine with opts
func NewAdapter(engine Engine, opts Options) *Adapter {
	return &Adapter{engine: engine, opts: opts}
}

// Recognize runs the engine on img, rendered at dpi, for the page at the
// given index.
func (a *Adapter) Recognize(ctx context.Context, page int, img image.Image, dpi int) (Result, error) {
	if a.engine == nil {
		return Result{}, &RecognitionError{Page: page, Err: ErrOCRNotEnabled}
	}
	if img == nil || img.Bounds().Empty() {
		return Result{}, &RecognitionError{Page: page, Err: errors.New("empty bitmap")}
	}

	start := time.Now()
	words, err := a.call(ctx, img, Request{Languages: a.opts.Languages, DPI: dpi, PageSegMode: a.opts.PageSegMode})
	if err != nil {
		return Result{}, &RecognitionError{Page: page, Err: err}
	}

	res := Result{Duration: time.Since(start)}
	scale := 1.0
	if dpi > 0 {
		scale = 72.0 / float64(dpi)
	}

	var sum float64
	var counted int
	for _, w := range words {
		if w.Text == "" {
			continue
		}
		conf := 0.0
		if w.Confidence != nil {
			conf = model.ClampConfidence(*w.Confidence)
		}
		sum += conf
		counted++
		if conf < a.opts.MinConfidence {
			res.Dropped++
			continue
		}
		nw := model.NewOCRWord(w.Text, conf, w.BBox.Scale(scale))
		nw.FontSize = nw.BBox.Height
		res.Words = append(res.Words, nw)
	}
	if counted > 0 {
		mean := sum / float64(counted)
		res.MeanConfidence = &mean
	}
	return res, nil
}

type callResult struct {
	words []model.Word
	err   error
}

// call invokes the engine on its own goroutine so a hung engine can be
// abandoned when the timeout fires.
func (a *Adapter) call(ctx context.Context, img image.Image, req Request) ([]model.Word, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- callResult{err: fmt.Errorf("%s engine crashed: %v", a.engine.Name(), p)}
			}
		}()
		words, err := a.engine.Recognize(ctx, img, req)
		done <- callResult{words: words, err: err}
	}()

	select {
	case r := <-done:
		return r.words, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, a.opts.Timeout)
		}
		return nil, ctx.Err()
	}
}
