package model

import (
	"fmt"
	"image"
)

// Stage names a unit of work in a page's pipeline run. Stage names are also
// the keys of PageMetrics.StageDurations.
type Stage string

const (
	StageLoad        Stage = "load"
	StageClassify    Stage = "classify"
	StageNative      Stage = "native"
	StageRender      Stage = "render"
	StagePreprocess  Stage = "preprocess"
	StageOCR         Stage = "ocr"
	StageLayout      Stage = "layout"
	StageTables      Stage = "tables"
	StagePostprocess Stage = "postprocess"
)

// Classification is the text source chosen for a page.
type Classification int

const (
	ClassUnknown Classification = iota
	ClassNative
	ClassOCR
)

func (c Classification) String() string {
	switch c {
	case ClassNative:
		return "native"
	case ClassOCR:
		return "ocr"
	default:
		return "unknown"
	}
}

// PageState is the position of a page in its processing lifecycle.
type PageState int

const (
	StateUnprocessed PageState = iota
	StateClassified
	StateNativeExtracted
	StateOCRApplied
	StateLayoutDetected
	StateTablesExtracted
	StatePostProcessed
	StateDone
	StateFailed
)

func (s PageState) String() string {
	switch s {
	case StateUnprocessed:
		return "unprocessed"
	case StateClassified:
		return "classified"
	case StateNativeExtracted:
		return "native_extracted"
	case StateOCRApplied:
		return "ocr_applied"
	case StateLayoutDetected:
		return "layout_detected"
	case StateTablesExtracted:
		return "tables_extracted"
	case StatePostProcessed:
		return "post_processed"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[PageState][]PageState{
	StateUnprocessed:     {StateClassified},
	StateClassified:      {StateNativeExtracted, StateOCRApplied},
	StateNativeExtracted: {StateLayoutDetected},
	StateOCRApplied:      {StateLayoutDetected},
	StateLayoutDetected:  {StateTablesExtracted},
	StateTablesExtracted: {StatePostProcessed},
	StatePostProcessed:   {StateDone},
}

// CanTransition reports whether a page may move from s to next. Failed is
// reachable from every non-terminal state.
func (s PageState) CanTransition(next PageState) bool {
	if s == StateDone || s == StateFailed {
		return false
	}
	if next == StateFailed {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Failure describes why a page stopped processing
type Failure struct {
	Stage  Stage
	Reason string
}

// Page is a single page of a document. It is created once per document load
// and mutated in place by the pipeline stages.
type Page struct {
	// Index is the 0-based position of the page in the source document
	Index  int
	Width  float64
	Height float64

	// RawText is the native text layer, empty when the page has none
	RawText string
	// Raster is the bitmap used for recognition on the OCR path
	Raster image.Image
	// RasterDPI is the resolution Raster was rendered at
	RasterDPI int

	NativeTextRatio float64
	Classification  Classification

	// Rulings are thin filled rectangles and strokes from the native layer
	Rulings []BBox
	Words   []Word
	Blocks  []TextBlock

	Elements []LayoutElement
	Tables   []TableCandidate

	State   PageState
	Failure *Failure
	Metrics PageMetrics
}

// NewPage creates an unprocessed page
func NewPage(index int, width, height float64) *Page {
	return &Page{
		Index:   index,
		Width:   width,
		Height:  height,
		Metrics: NewPageMetrics(index),
	}
}

// Area returns the page area in square points
func (p *Page) Area() float64 {
	return p.Width * p.Height
}

// Advance moves the page to the next state.
func (p *Page) Advance(next PageState) error {
	if !p.State.CanTransition(next) {
		return fmt.Errorf("page %d: invalid transition %s -> %s", p.Index, p.State, next)
	}
	p.State = next
	return nil
}

// Fail moves the page into the Failed state and records the cause. Failing
// an already failed page keeps the first failure.
func (p *Page) Fail(stage Stage, err error) {
	if p.State == StateFailed {
		return
	}
	p.State = StateFailed
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	p.Failure = &Failure{Stage: stage, Reason: reason}
}

// Text returns the page text in element order
func (p *Page) Text() string {
	var out []byte
	for i, e := range p.Elements {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, e.Text...)
	}
	return string(out)
}
