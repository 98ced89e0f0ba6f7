package msocr

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/export"
	"github.com/tsawler/msocr/ocr"
	"github.com/tsawler/msocr/pages"
	"github.com/tsawler/msocr/store"
)

// ============================================================================
// Configuration Methods (return new Converter instance)
// ============================================================================

// Input sets the PDF file to convert, replacing any previous input.
func (c *Converter) Input(path string) *Converter {
	n := c.clone()
	n.path, n.name = path, path
	n.src = nil
	return n
}

// Config replaces the whole configuration, for example one loaded with
// config.Load. Later configuration methods apply on top of it.
func (c *Converter) Config(cfg config.Config) *Converter {
	n := c.clone()
	n.cfg = cfg.Clone()
	return n
}

// Languages sets the OCR languages, in priority order. ISO 639-1 codes
// such as "es" are accepted.
//
// Example:
//
//	doc, err := msocr.Open("doc.pdf").Languages("spa", "eng").Process(ctx)
func (c *Converter) Languages(langs ...string) *Converter {
	n := c.clone()
	n.cfg.Languages = append([]string(nil), langs...)
	return n
}

// Pages specifies which pages to process (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	doc, err := msocr.Open("doc.pdf").Pages(1, 3, 5).Process(ctx)
func (c *Converter) Pages(numbers ...int) *Converter {
	n := c.clone()
	sel, err := pages.Parse(n.cfg.Pages)
	if err != nil {
		n.err = err
		return n
	}
	for _, p := range numbers {
		if p < 1 {
			n.err = fmt.Errorf("invalid page number %d", p)
			return n
		}
		sel = sel.Add(p, p)
	}
	n.cfg.Pages = sel.String()
	return n
}

// PageRange specifies a range of pages to process (1-indexed, inclusive).
//
// Example:
//
//	doc, err := msocr.Open("doc.pdf").PageRange(5, 10).Process(ctx)
func (c *Converter) PageRange(start, end int) *Converter {
	n := c.clone()
	if start < 1 || end < start {
		n.err = fmt.Errorf("invalid page range %d-%d", start, end)
		return n
	}
	sel, err := pages.Parse(n.cfg.Pages)
	if err != nil {
		n.err = err
		return n
	}
	n.cfg.Pages = sel.Add(start, end).String()
	return n
}

// Workers sets how many pages are processed in parallel.
func (c *Converter) Workers(workers int) *Converter {
	n := c.clone()
	n.cfg.Workers = workers
	return n
}

// DPI sets the resolution scanned pages are rendered at.
func (c *Converter) DPI(dpi int) *Converter {
	n := c.clone()
	n.cfg.DPI = dpi
	return n
}

// NoDeskew disables skew correction of scanned pages.
func (c *Converter) NoDeskew() *Converter {
	n := c.clone()
	n.cfg.Deskew = false
	return n
}

// NoDenoise disables noise removal of scanned pages.
func (c *Converter) NoDenoise() *Converter {
	n := c.clone()
	n.cfg.Denoise = false
	return n
}

// NoBinarize disables binarization of scanned pages.
func (c *Converter) NoBinarize() *Converter {
	n := c.clone()
	n.cfg.Binarize = false
	return n
}

// NoContrast disables contrast enhancement of scanned pages.
func (c *Converter) NoContrast() *Converter {
	n := c.clone()
	n.cfg.Contrast = false
	return n
}

// MinConfidence drops recognized words whose confidence is below conf (0-100).
func (c *Converter) MinConfidence(conf float64) *Converter {
	n := c.clone()
	n.cfg.MinConfidence = conf
	return n
}

// PageSegMode sets the Tesseract page segmentation mode used for scanned
// pages, e.g. ocr.PSM_SINGLE_COLUMN for single column reports.
func (c *Converter) PageSegMode(mode ocr.PageSegMode) *Converter {
	n := c.clone()
	n.cfg.PageSegMode = int(mode)
	return n
}

// IOUThreshold sets the overlap above which two table candidates are
// considered the same table.
func (c *Converter) IOUThreshold(t float64) *Converter {
	n := c.clone()
	n.cfg.IOUThreshold = t
	return n
}

// HeadingLevelCap limits the depth of detected headings.
func (c *Converter) HeadingLevelCap(level int) *Converter {
	n := c.clone()
	n.cfg.HeadingLevelCap = level
	return n
}

// NativeThreshold sets the native text ratio at or above which a page is
// read from its text layer instead of being recognized.
func (c *Converter) NativeThreshold(t float64) *Converter {
	n := c.clone()
	n.cfg.NativeThreshold = t
	return n
}

// OCRTimeout bounds the recognition of one page. Zero disables the limit.
func (c *Converter) OCRTimeout(d time.Duration) *Converter {
	n := c.clone()
	n.cfg.OCRTimeout = d
	return n
}

// Exports sets the formats written by Convert, e.g. "md", "json", "docx".
func (c *Converter) Exports(formats ...string) *Converter {
	n := c.clone()
	n.cfg.Exports = append([]string(nil), formats...)
	return n
}

// ExportOptions sets the rendering options used by Convert.
func (c *Converter) ExportOptions(opts export.Options) *Converter {
	n := c.clone()
	n.exportOpts = opts
	return n
}

// Engine sets the OCR engine. Passing nil disables recognition, so every
// scanned page fails.
func (c *Converter) Engine(engine ocr.Engine) *Converter {
	n := c.clone()
	n.engine = engine
	n.engineSet = true
	return n
}

// Logger sets the logger receiving progress and page failures.
func (c *Converter) Logger(log *slog.Logger) *Converter {
	n := c.clone()
	n.log = log
	return n
}

// History records every processed document in the run history store.
func (c *Converter) History(s *store.Store) *Converter {
	n := c.clone()
	n.history = s
	return n
}

// BatchWorkers sets how many documents ProcessDir converts in parallel.
func (c *Converter) BatchWorkers(workers int) *Converter {
	n := c.clone()
	n.batchWorkers = workers
	return n
}
