// Package msocr converts PDF documents, digitally authored or scanned,
// into structured text: headings, lists, section numbers and tables.
//
// Basic usage:
//
//	doc, err := msocr.Open("informe.pdf").Process(ctx)
//	if err != nil {
//	    // only pre-flight problems end up here
//	}
//	for _, f := range doc.Failures {
//	    log.Printf("page %d failed in %s: %s", f.PageIndex+1, f.Stage, f.Reason)
//	}
//
// With options:
//
//	doc, paths, err := msocr.Open("informe.pdf").
//	    Languages("es", "en").
//	    PageRange(1, 10).
//	    Workers(4).
//	    Convert(ctx, "out")
//
// Scanned pages need Tesseract; build with -tags ocr to enable it. For a
// directory of documents use ProcessDir.
package msocr

import (
	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/export"
	"github.com/tsawler/msocr/pipeline"
)

// Open returns a Converter for the PDF at path. The file is opened by the
// terminal operation (Process, Convert or PageCount) and closed when it
// returns.
//
// Example:
//
//	doc, err := msocr.Open("informe.pdf").Process(ctx)
func Open(path string) *Converter {
	return &Converter{
		path:       path,
		name:       path,
		cfg:        config.Default(),
		exportOpts: export.DefaultOptions(),
	}
}

// FromSource returns a Converter over pages supplied by src. name is used
// as the document source in titles, exports and metrics. The caller keeps
// ownership of src.
func FromSource(src pipeline.Source, name string) *Converter {
	return &Converter{
		name:       name,
		src:        src,
		cfg:        config.Default(),
		exportOpts: export.DefaultOptions(),
	}
}

// New returns a Converter with the default configuration and no input,
// for use as a template with ProcessDir.
func New() *Converter {
	return &Converter{
		cfg:        config.Default(),
		exportOpts: export.DefaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := msocr.Must(msocr.Open("informe.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
