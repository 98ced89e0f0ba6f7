package msocr

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/export"
	"github.com/tsawler/msocr/internal/logger"
	"github.com/tsawler/msocr/model"
	"github.com/tsawler/msocr/ocr"
	"github.com/tsawler/msocr/pipeline"
	"github.com/tsawler/msocr/reader"
	"github.com/tsawler/msocr/store"
)

// Converter provides a fluent interface for converting one PDF.
// Each configuration method returns a new Converter instance, allowing
// method chaining. A Converter is never modified after it is built: every
// terminal operation opens its own reader, so one Converter may run
// several operations concurrently as long as a source given to FromSource
// is itself safe for concurrent use.
type Converter struct {
	// Source
	path string
	name string
	src  pipeline.Source

	// Configuration
	cfg          config.Config
	engine       ocr.Engine
	engineSet    bool
	log          *slog.Logger
	history      *store.Store
	exportOpts   export.Options
	batchWorkers int

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Converter with a deep copy of the
// configuration.
func (c *Converter) clone() *Converter {
	return &Converter{
		path:         c.path,
		name:         c.name,
		src:          c.src,
		cfg:          c.cfg.Clone(),
		engine:       c.engine,
		engineSet:    c.engineSet,
		log:          c.log,
		history:      c.history,
		exportOpts:   c.exportOpts,
		batchWorkers: c.batchWorkers,
		err:          c.err,
	}
}

// openSource returns the pages to process and the function that releases
// them. A source given to FromSource is returned as is and never closed;
// otherwise the PDF is opened for this call only.
func (c *Converter) openSource() (pipeline.Source, func(), error) {
	if c.src != nil {
		return c.src, func() {}, nil
	}
	if c.path == "" {
		return nil, nil, &pipeline.FatalError{Op: "open", Err: errors.New("no input file specified")}
	}
	doc, err := reader.Open(c.path)
	if err != nil {
		return nil, nil, &pipeline.FatalError{Op: "open", Err: err}
	}
	return doc, func() { _ = doc.Close() }, nil
}

// resolveEngine returns the configured engine, or Tesseract when it is
// compiled in. A nil engine makes every scanned page fail.
func (c *Converter) resolveEngine() ocr.Engine {
	if c.engineSet {
		return c.engine
	}
	t, err := ocr.NewTesseract()
	if err != nil {
		logger.OrDiscard(c.log).Debug("OCR engine unavailable", "error", err)
		return nil
	}
	return t
}

// ============================================================================
// Terminal operations (open and close the file)
// ============================================================================

// Process runs every selected page through the pipeline and returns the
// structured document. The error is non-nil only for pre-flight problems,
// reported as a *pipeline.FatalError; page failures are listed in the
// document's Failures.
// This is a terminal operation that closes the underlying file.
func (c *Converter) Process(ctx context.Context) (*model.Document, error) {
	doc, _, err := c.run(ctx, "")
	return doc, err
}

// Convert processes the document and writes the configured exports into
// dir, returning the written paths.
// This is a terminal operation that closes the underlying file.
//
// Example:
//
//	doc, paths, err := msocr.Open("informe.pdf").Exports("md", "docx").Convert(ctx, "out")
func (c *Converter) Convert(ctx context.Context, dir string) (*model.Document, []string, error) {
	return c.run(ctx, dir)
}

func (c *Converter) run(ctx context.Context, dir string) (*model.Document, []string, error) {
	if c.err != nil {
		return nil, nil, c.err
	}
	started := time.Now()
	log := logger.OrDiscard(c.log)

	orch, err := pipeline.New(pipeline.Options{
		Config: c.cfg,
		Engine: c.resolveEngine(),
		Logger: log,
	})
	if err != nil {
		return nil, nil, err
	}

	src, release, err := c.openSource()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	doc, err := orch.Run(ctx, src, c.name)
	if err != nil {
		return nil, nil, err
	}

	var paths []string
	if dir != "" {
		paths, err = export.WriteAll(doc, dir, doc.Exports, c.exportOpts)
		if err != nil {
			return doc, paths, err
		}
	}

	if c.history != nil {
		if err := c.history.SaveRun(ctx, store.RecordFromDocument(doc, started, paths)); err != nil {
			log.Warn("could not record run", "run", doc.RunID, "error", err)
		}
	}
	return doc, paths, nil
}

// PageCount returns the number of pages in the document.
func (c *Converter) PageCount() (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	src, release, err := c.openSource()
	if err != nil {
		return 0, err
	}
	defer release()
	return src.PageCount(), nil
}
