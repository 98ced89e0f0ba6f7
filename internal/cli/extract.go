package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/msocr"
	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/model"
	"github.com/tsawler/msocr/store"
)

// extractFlags holds the flags of the extract command. Flags left unset
// keep the value from the config file or the defaults.
type extractFlags struct {
	input        string
	output       string
	configFile   string
	history      string
	lang         string
	dpi          int
	noDeskew     bool
	noDenoise    bool
	noBinarize   bool
	noContrast   bool
	minConf      float64
	psm          int
	pages        string
	exports      string
	workers      int
	batchWorkers int
	iou          float64
	headingCap   int
	nativeThresh float64
	ocrTimeout   time.Duration
}

func newExtractCmd(logs *logFlags) *cobra.Command {
	f := &extractFlags{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Convert a PDF file or a directory of PDFs",
		Long: `Converts a PDF, or every PDF in a directory, into structured text and
writes the requested exports to the output directory. Pages with a text
layer are read directly; scanned pages are cleaned up and recognized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, f, logs)
		},
	}

	f.bind(cmd)
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (f *extractFlags) bind(cmd *cobra.Command) {
	def := config.Default()
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input PDF file or directory")
	fl.StringVarP(&f.output, "out", "o", "out", "output directory")
	fl.StringVar(&f.configFile, "config", "", "YAML configuration file")
	fl.StringVar(&f.history, "history", "", "record runs in the history database under this directory")
	fl.StringVar(&f.lang, "lang", "spa,eng", "OCR languages, comma separated")
	fl.IntVar(&f.dpi, "dpi", def.DPI, "resolution for scanned pages")
	fl.BoolVar(&f.noDeskew, "no-deskew", false, "disable skew correction")
	fl.BoolVar(&f.noDenoise, "no-denoise", false, "disable noise removal")
	fl.BoolVar(&f.noBinarize, "no-binarize", false, "disable binarization")
	fl.BoolVar(&f.noContrast, "no-contrast", false, "disable contrast enhancement")
	fl.Float64Var(&f.minConf, "min-conf", def.MinConfidence, "minimum OCR word confidence (0-100)")
	fl.IntVar(&f.psm, "psm", def.PageSegMode, "Tesseract page segmentation mode (1, 3, 4, 6 or 11)")
	fl.StringVar(&f.pages, "pages", "", "pages to process, e.g. 1,3-10")
	fl.StringVar(&f.exports, "export", "md,json", "export formats: md, json, docx, html, slides")
	fl.IntVar(&f.workers, "workers", def.Workers, "pages processed in parallel")
	fl.IntVar(&f.batchWorkers, "batch-workers", 1, "documents processed in parallel")
	fl.Float64Var(&f.iou, "iou", def.IOUThreshold, "overlap above which two tables are merged")
	fl.IntVar(&f.headingCap, "heading-cap", def.HeadingLevelCap, "deepest heading level")
	fl.Float64Var(&f.nativeThresh, "native-threshold", def.NativeThreshold, "text ratio at which a page is read natively")
	fl.DurationVar(&f.ocrTimeout, "ocr-timeout", def.OCRTimeout, "time limit for recognizing one page")
}

// buildConfig merges defaults, the config file and the flags that were set
func buildConfig(cmd *cobra.Command, f *extractFlags) (config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("lang") {
		cfg.Languages = config.ParseList(f.lang)
	}
	if changed("dpi") {
		cfg.DPI = f.dpi
	}
	if changed("no-deskew") {
		cfg.Deskew = !f.noDeskew
	}
	if changed("no-denoise") {
		cfg.Denoise = !f.noDenoise
	}
	if changed("no-binarize") {
		cfg.Binarize = !f.noBinarize
	}
	if changed("no-contrast") {
		cfg.Contrast = !f.noContrast
	}
	if changed("min-conf") {
		cfg.MinConfidence = f.minConf
	}
	if changed("psm") {
		cfg.PageSegMode = f.psm
	}
	if changed("pages") {
		cfg.Pages = f.pages
	}
	if changed("export") {
		cfg.Exports = config.ParseList(f.exports)
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("iou") {
		cfg.IOUThreshold = f.iou
	}
	if changed("heading-cap") {
		cfg.HeadingLevelCap = f.headingCap
	}
	if changed("native-threshold") {
		cfg.NativeThreshold = f.nativeThresh
	}
	if changed("ocr-timeout") {
		cfg.OCRTimeout = f.ocrTimeout
	}
	return cfg, nil
}

func runExtract(cmd *cobra.Command, f *extractFlags, logs *logFlags) error {
	log, closeLog, err := logs.newLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := buildConfig(cmd, f)
	if err != nil {
		return err
	}

	conv := msocr.New().Config(cfg).Logger(log).BatchWorkers(f.batchWorkers)
	if f.history != "" {
		s, err := store.Open(f.history)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer s.Close()
		conv = conv.History(s)
	}

	info, err := os.Stat(f.input)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if !info.IsDir() {
		doc, paths, err := conv.Input(f.input).Convert(ctx, f.output)
		if err != nil {
			return err
		}
		writeSummary(out, doc, paths)
		return outcomeError(doc)
	}

	results, err := conv.ProcessDir(ctx, f.input, f.output)
	if err != nil {
		return err
	}
	var failed []error
	for _, r := range results {
		if r.Err != nil {
			writeDocumentError(out, r.Path, r.Err)
			failed = append(failed, r.Err)
			continue
		}
		writeSummary(out, r.Document, r.Outputs)
		if err := outcomeError(r.Document); err != nil {
			failed = append(failed, err)
		}
	}
	writeBatchTotals(out, results)
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d documents failed: %w", len(failed), len(results), errors.Join(failed...))
	}
	return nil
}

// outcomeError turns a document where no page could be processed into an
// error so that the exit status reports it
func outcomeError(doc *model.Document) error {
	if doc.Outcome == model.OutcomeFailed {
		return fmt.Errorf("%s: no page could be processed", doc.Source)
	}
	return nil
}
