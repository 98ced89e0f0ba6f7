package msocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/internal/logger"
	"github.com/tsawler/msocr/model"
)

// ErrNoDocuments is returned by ProcessDir for a directory without PDFs
var ErrNoDocuments = errors.New("no PDF files found")

// BatchResult is the outcome of one document of a batch.
type BatchResult struct {
	Path     string
	Document *model.Document
	// Outputs lists the exported files, when an output directory was given
	Outputs []string
	// Err is a pre-flight or export failure of this document only
	Err error
}

// ProcessDir converts every PDF in dir with cfg. See Converter.ProcessDir.
func ProcessDir(ctx context.Context, dir string, cfg config.Config) ([]BatchResult, error) {
	return New().Config(cfg).ProcessDir(ctx, dir, "")
}

// ProcessDir converts every *.pdf file in dir, in name order, using c as
// the template for each document. Up to BatchWorkers documents run at the
// same time. A failure of one document is reported in its BatchResult and
// does not stop the others. When outDir is set each document's exports are
// written there.
func (c *Converter) ProcessDir(ctx context.Context, dir, outDir string) ([]BatchResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	files, err := listPDFs(dir)
	if err != nil {
		return nil, err
	}

	log := logger.OrDiscard(c.log)
	log.Info("processing directory", "dir", dir, "documents", len(files), "workers", max(c.batchWorkers, 1))

	results := make([]BatchResult, len(files))
	var g errgroup.Group
	g.SetLimit(max(c.batchWorkers, 1))
	for i, path := range files {
		g.Go(func() error {
			doc, outputs, err := c.Input(path).run(ctx, outDir)
			results[i] = BatchResult{Path: path, Document: doc, Outputs: outputs, Err: err}
			if err != nil {
				log.Error("document failed", "source", filepath.Base(path), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	sort.Strings(files)
	return files, nil
}
