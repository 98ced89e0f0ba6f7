package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/msocr/classify"
	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/internal/logger"
	"github.com/tsawler/msocr/langid"
	"github.com/tsawler/msocr/layout"
	"github.com/tsawler/msocr/metrics"
	"github.com/tsawler/msocr/model"
	"github.com/tsawler/msocr/ocr"
	"github.com/tsawler/msocr/postprocess"
	"github.com/tsawler/msocr/preprocess"
	"github.com/tsawler/msocr/reader"
	"github.com/tsawler/msocr/tables"
	"github.com/tsawler/msocr/text"
)

// Source supplies the pages of one document. *reader.Document implements
// it. Implementations must be safe for concurrent use.
type Source interface {
	PageCount() int
	NativePage(index int) (*reader.NativePage, error)
	PageSize(index int) (w, h float64, err error)
	Raster(ctx context.Context, index, dpi int) (reader.RasterImage, error)
}

// Options configures an Orchestrator. Only Config is required.
type Options struct {
	Config config.Config

	// Engine recognizes scanned pages. When nil every OCR-required page
	// fails with ocr.ErrOCRNotEnabled.
	Engine ocr.Engine

	// Logger receives progress and page failures. Default: discard.
	Logger *slog.Logger

	// Text overrides the word and block grouping thresholds
	Text *text.Config

	// Layout overrides the layout classifier settings. The heading level
	// cap always comes from Config.
	Layout *layout.Config

	// Strategies replaces the default table chain
	Strategies []tables.Strategy

	// Postprocess overrides the correction rules. Default: all enabled.
	Postprocess *postprocess.Config

	// Languages identifies the document languages from the extracted
	// text. Default: langid.Default().
	Languages langid.Detector
}

// Orchestrator runs documents through the page pipeline. It holds no
// per-run state and may run several documents concurrently.
type Orchestrator struct {
	cfg  config.Config
	log  *slog.Logger
	text text.Config

	classifier   *classify.Classifier
	preprocessor *preprocess.Preprocessor
	recognizer   *ocr.Adapter
	layout       *layout.Classifier
	repeat       layout.RepeatConfig
	tables       *tables.Extractor
	post         *postprocess.Processor
	langs        langid.Detector
}

// New validates the configuration and builds the page stages. An invalid
// configuration is returned as a FatalError.
func New(opts Options) (*Orchestrator, error) {
	cfg := opts.Config.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, &FatalError{Op: "config", Err: err}
	}

	textCfg := text.DefaultConfig()
	if opts.Text != nil {
		textCfg = *opts.Text
	}

	layoutCfg := layout.DefaultConfig()
	if opts.Layout != nil {
		layoutCfg = *opts.Layout
	}
	layoutCfg.HeadingLevelCap = cfg.HeadingLevelCap

	repeat := layout.DefaultRepeatConfig()
	repeat.BandFraction = cfg.HeaderBand
	repeat.MinRepeats = cfg.HeaderMinRepeats

	tableCfg := tables.DefaultConfig()
	tableCfg.IOUThreshold = cfg.IOUThreshold
	tableCfg.MinQuality = cfg.TableMinQuality

	postCfg := postprocess.DefaultConfig()
	if opts.Postprocess != nil {
		postCfg = *opts.Postprocess
	}

	var langs langid.Detector = langid.Default()
	if opts.Languages != nil {
		langs = opts.Languages
	}

	pre := preprocess.DefaultOptions()
	pre.Denoise = cfg.Denoise
	pre.Contrast = cfg.Contrast
	pre.Binarize = cfg.Binarize
	pre.Deskew = cfg.Deskew

	return &Orchestrator{
		cfg:          cfg,
		log:          logger.OrDiscard(opts.Logger),
		text:         textCfg,
		classifier:   classify.New(cfg.NativeThreshold),
		preprocessor: preprocess.New(pre),
		recognizer: ocr.NewAdapter(opts.Engine, ocr.Options{
			Languages:     cfg.Languages,
			MinConfidence: cfg.MinConfidence,
			Timeout:       cfg.OCRTimeout,
			PageSegMode:   ocr.PageSegMode(cfg.PageSegMode),
		}),
		layout: layout.NewClassifier(layoutCfg),
		repeat: repeat,
		tables: tables.NewExtractor(tableCfg, opts.Strategies...),
		post:   postprocess.New(postCfg),
		langs:  langs,
	}, nil
}

// Config returns the validated configuration
func (o *Orchestrator) Config() config.Config {
	return o.cfg.Clone()
}

// outcome is the tagged result of one page worker
type outcome struct {
	page *model.Page
	err  *PageError
}

// Run processes the selected pages of src. source names the input in the
// document and its metrics. Page failures are reported in the document;
// the returned error is non-nil only for a FatalError.
func (o *Orchestrator) Run(ctx context.Context, src Source, source string) (*model.Document, error) {
	started := time.Now()
	if src == nil {
		return nil, &FatalError{Op: "open", Err: errors.New("no document")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &FatalError{Op: "run", Err: err}
	}

	total := src.PageCount()
	if total <= 0 {
		return nil, &FatalError{Op: "open", Err: ErrNoPages}
	}
	sel, err := o.cfg.Selection()
	if err != nil {
		return nil, &FatalError{Op: "select", Err: err}
	}
	indices, ignored := sel.Resolve(total)
	if len(indices) == 0 {
		return nil, &FatalError{
			Op:  "select",
			Err: fmt.Errorf("%w: selection %q matches none of %d pages", ErrNoPages, o.cfg.Pages, total),
		}
	}

	doc := &model.Document{
		RunID:      uuid.NewString(),
		Source:     source,
		Languages:  append([]string(nil), o.cfg.Languages...),
		Exports:    append([]string(nil), o.cfg.Exports...),
		TotalPages: total,
	}
	log := o.log.With("run", doc.RunID, "source", filepath.Base(source))
	if len(ignored) > 0 {
		log.Warn("selected pages beyond the end of the document ignored", "pages", ignored, "total", total)
	}
	log.Info("processing document", "pages", len(indices), "total", total, "workers", o.cfg.Workers)

	results := make([]outcome, len(indices))
	o.each(len(indices), func(i int) {
		page, perr := o.extract(ctx, src, indices[i], log)
		results[i] = outcome{page: page, err: perr}
	})

	idx := layout.BuildRepeatIndex(repeatInput(results), o.repeat)
	log.Debug("extraction finished", "repeated", idx.Len())

	o.each(len(results), func(i int) {
		if results[i].err != nil {
			return
		}
		results[i].err = o.finish(ctx, results[i].page, idx, log)
	})

	o.fold(doc, results)
	all := make([]*model.Page, len(results))
	for i, r := range results {
		all[i] = r.page
	}
	doc.DetectedLanguages = o.langs.Detect(documentText(doc))
	doc.Metrics = metrics.Aggregate(source, doc.DetectedLanguages, all, doc.Failures)
	doc.Metrics.WallTime = time.Since(started)
	doc.Title = title(doc, source)

	log.Info("document processed",
		"outcome", doc.Outcome,
		"pages", len(doc.Pages),
		"failed", len(doc.Failures),
		"tables", doc.Metrics.TotalTables,
		"languages", strings.Join(doc.DetectedLanguages, "+"),
		"elapsed", doc.Metrics.WallTime.Round(time.Millisecond))
	return doc, nil
}

// each calls fn for 0..n-1 on at most Workers goroutines and waits
func (o *Orchestrator) each(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(o.cfg.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// fold assembles the page outcomes, already in index order, into doc
func (o *Orchestrator) fold(doc *model.Document, results []outcome) {
	for _, r := range results {
		if r.err != nil {
			doc.Failures = append(doc.Failures, r.err.Failure())
			continue
		}
		doc.Pages = append(doc.Pages, r.page)
	}
	switch {
	case len(doc.Pages) == 0:
		doc.Outcome = model.OutcomeFailed
	case len(doc.Failures) > 0:
		doc.Outcome = model.OutcomePartialSuccess
	default:
		doc.Outcome = model.OutcomeSuccess
	}
}

// fail moves page into the Failed state and reports the error
func (o *Orchestrator) fail(page *model.Page, stage model.Stage, err error, log *slog.Logger) *PageError {
	perr := &PageError{Page: page.Index, Stage: stage, Err: err}
	page.Fail(stage, err)
	log.Warn("page failed", "page", page.Index+1, "stage", stage, "error", err)
	return perr
}

// extract runs the first pass on one page: classification, then native
// word assembly or rendering, preprocessing and recognition.
func (o *Orchestrator) extract(ctx context.Context, src Source, index int, log *slog.Logger) (page *model.Page, perr *PageError) {
	page = model.NewPage(index, 0, 0)
	stage := model.StageLoad
	defer func() {
		if r := recover(); r != nil {
			perr = o.fail(page, stage, fmt.Errorf("panic: %v", r), log)
		}
	}()
	if err := ctx.Err(); err != nil {
		return page, o.fail(page, stage, err, log)
	}

	start := time.Now()
	var words []model.Word
	native, err := src.NativePage(index)
	if err != nil {
		// unreadable text layer: classify on no words, which means OCR
		log.Debug("native layer unavailable", "page", index+1, "error", err)
		if w, h, serr := src.PageSize(index); serr == nil {
			page.Width, page.Height = w, h
		}
	} else {
		page.Width, page.Height = native.Width, native.Height
		page.RawText = native.Text
		page.Rulings = native.Rulings
		words = text.WordsFromGlyphs(native.Glyphs, o.text)
	}
	page.Metrics.AddDuration(model.StageLoad, time.Since(start))

	stage = model.StageClassify
	start = time.Now()
	class := o.classifier.Classify(page, words)
	page.Metrics.AddDuration(model.StageClassify, time.Since(start))
	if err := page.Advance(model.StateClassified); err != nil {
		return page, o.fail(page, stage, err, log)
	}
	log.Debug("page classified", "page", index+1, "stage", stage,
		"class", class, "ratio", page.NativeTextRatio)

	if class == model.ClassNative {
		stage = model.StageNative
		start = time.Now()
		page.Words = words
		page.Blocks = text.BuildBlocks(words, o.text)
		page.Metrics.AddDuration(model.StageNative, time.Since(start))
		if err := page.Advance(model.StateNativeExtracted); err != nil {
			return page, o.fail(page, stage, err, log)
		}
		return page, nil
	}

	stage = model.StageRender
	start = time.Now()
	raster, err := src.Raster(ctx, index, o.cfg.DPI)
	page.Metrics.AddDuration(model.StageRender, time.Since(start))
	if err != nil {
		return page, o.fail(page, stage, err, log)
	}
	if (page.Width <= 0 || page.Height <= 0) && raster.Image != nil && raster.DPI > 0 {
		b := raster.Image.Bounds()
		scale := 72 / float64(raster.DPI)
		page.Width, page.Height = float64(b.Dx())*scale, float64(b.Dy())*scale
	}

	stage = model.StagePreprocess
	pre := o.preprocessor.Process(raster.Image)
	for _, d := range pre.Durations {
		page.Metrics.AddDuration(model.StagePreprocess, d)
	}
	page.Metrics.Preprocessing = pre.Applied
	page.Metrics.SkewAngle = pre.SkewAngle
	for _, f := range pre.Failures {
		page.Metrics.RecordFailure(f.Error())
		log.Warn("preprocessing stage skipped", "page", index+1, "stage", f.Stage, "error", f.Err)
	}

	stage = model.StageOCR
	res, err := o.recognizer.Recognize(ctx, index, pre.Image, raster.DPI)
	if err != nil {
		return page, o.fail(page, stage, err, log)
	}
	page.Metrics.AddDuration(model.StageOCR, res.Duration)
	page.Metrics.OCRConfidence = res.MeanConfidence
	page.Metrics.LowConfidenceWords = res.Dropped
	page.Words = res.Words
	page.Blocks = text.BuildBlocks(res.Words, o.text)
	page.Raster = pre.Image
	page.RasterDPI = raster.DPI
	if err := page.Advance(model.StateOCRApplied); err != nil {
		return page, o.fail(page, stage, err, log)
	}
	log.Debug("page recognized", "page", index+1, "stage", stage,
		"words", len(res.Words), "dropped", res.Dropped)
	return page, nil
}

// finish runs the second pass on an extracted page
func (o *Orchestrator) finish(ctx context.Context, page *model.Page, idx *layout.RepeatIndex, log *slog.Logger) (perr *PageError) {
	stage := model.StageLayout
	defer func() {
		if r := recover(); r != nil {
			perr = o.fail(page, stage, fmt.Errorf("panic: %v", r), log)
		}
		page.Raster = nil
	}()
	if err := ctx.Err(); err != nil {
		return o.fail(page, stage, err, log)
	}

	start := time.Now()
	elems := o.layout.Classify(page, idx)
	page.Metrics.AddDuration(model.StageLayout, time.Since(start))
	if err := page.Advance(model.StateLayoutDetected); err != nil {
		return o.fail(page, stage, err, log)
	}

	stage = model.StageTables
	start = time.Now()
	res, err := o.tables.Extract(ctx, page)
	page.Metrics.AddDuration(model.StageTables, time.Since(start))
	if err != nil && ctx.Err() != nil {
		return o.fail(page, stage, err, log)
	}
	for _, f := range res.Failures {
		page.Metrics.RecordFailure(f.Error())
	}
	if err != nil {
		log.Warn("table extraction failed", "page", page.Index+1, "stage", stage, "error", err)
	}
	page.Tables = res.Tables
	page.Metrics.TablesDetected = len(res.Tables)
	page.Metrics.TableFailures = len(res.Failures)
	page.Elements = layout.AttachTables(elems, page.Tables)
	if err := page.Advance(model.StateTablesExtracted); err != nil {
		return o.fail(page, stage, err, log)
	}

	stage = model.StagePostprocess
	start = time.Now()
	stats := o.post.ProcessPage(page)
	page.Metrics.AddDuration(model.StagePostprocess, time.Since(start))
	if err := page.Advance(model.StatePostProcessed); err != nil {
		return o.fail(page, stage, err, log)
	}
	if err := page.Advance(model.StateDone); err != nil {
		return o.fail(page, stage, err, log)
	}

	log.Debug("page done", "page", page.Index+1,
		"elements", len(page.Elements),
		"tables", len(page.Tables),
		"method", res.Method,
		"corrected", stats.Total())
	return nil
}

// repeatInput collects the blocks of every extracted page
func repeatInput(results []outcome) []layout.PageBlocks {
	in := make([]layout.PageBlocks, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			continue
		}
		in = append(in, layout.PageBlocks{
			Index:  r.page.Index,
			Height: r.page.Height,
			Blocks: r.page.Blocks,
		})
	}
	return in
}

// title is the first heading of the document, or the file name without
// its extension
func title(doc *model.Document, source string) string {
	for _, p := range doc.Pages {
		for _, e := range p.Elements {
			if e.Kind == model.ElementHeading && strings.TrimSpace(e.Text) != "" {
				return e.HeadingText()
			}
		}
	}
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// documentText joins the text of every element of the processed pages
func documentText(doc *model.Document) string {
	var sb strings.Builder
	for _, p := range doc.Pages {
		for _, e := range p.Elements {
			if e.Kind == model.ElementTableReference {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(e.HeadingText())
		}
	}
	return sb.String()
}
