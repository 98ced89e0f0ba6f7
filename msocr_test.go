package msocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/model"
	"github.com/tsawler/msocr/ocr"
	"github.com/tsawler/msocr/pipeline"
	"github.com/tsawler/msocr/reader"
	"github.com/tsawler/msocr/store"
	"github.com/tsawler/msocr/text"
)

type stubSource struct {
	pages int
}

func (s *stubSource) PageCount() int { return s.pages }

func (s *stubSource) NativePage(index int) (*reader.NativePage, error) {
	np := &reader.NativePage{Index: index, Width: 200, Height: 200}
	lines := []struct {
		text  string
		y     float64
		size  float64
		width float64
	}{
		{"2.3 Objetivos", 30, 16, 100},
		{"El proyecto busca reducir los defectos de", 60, 12, 180},
		{"fabricación en la planta de ensamblaje", 74, 12, 180},
		{"durante el próximo ejercicio.", 88, 12, 180},
	}
	for _, l := range lines {
		np.Glyphs = append(np.Glyphs, text.Glyph{Text: l.text, X: 10, Y: l.y, Width: l.width, FontSize: l.size})
		np.Text += l.text + "\n"
	}
	return np, nil
}

func (s *stubSource) PageSize(int) (float64, float64, error) { return 200, 200, nil }

func (s *stubSource) Raster(context.Context, int, int) (reader.RasterImage, error) {
	return reader.RasterImage{}, reader.ErrNoRaster
}

func TestConfigurationReturnsNewConverter(t *testing.T) {
	base := New()
	tuned := base.Workers(4).Languages("es").NoDeskew().DPI(200).PageSegMode(ocr.PSM_SINGLE_BLOCK)

	assert.Equal(t, 1, base.cfg.Workers)
	assert.True(t, base.cfg.Deskew)
	assert.Equal(t, []string{"spa", "eng"}, base.cfg.Languages)

	assert.Equal(t, 4, tuned.cfg.Workers)
	assert.False(t, tuned.cfg.Deskew)
	assert.Equal(t, 200, tuned.cfg.DPI)
	assert.Equal(t, []string{"es"}, tuned.cfg.Languages)
	assert.Equal(t, 6, tuned.cfg.PageSegMode)
	assert.Equal(t, 3, base.cfg.PageSegMode)
}

func TestPageSelectionAccumulates(t *testing.T) {
	c := New().Pages(1, 3).PageRange(5, 7)
	require.NoError(t, c.err)
	assert.Equal(t, "1,3,5-7", c.cfg.Pages)
}

func TestInvalidPageRange(t *testing.T) {
	tests := []struct {
		name string
		conv *Converter
	}{
		{"reversed", New().PageRange(5, 2)},
		{"zero start", New().PageRange(0, 2)},
		{"zero page", New().Pages(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.conv.Process(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestProcessFromSource(t *testing.T) {
	doc, err := FromSource(&stubSource{pages: 2}, "informe.pdf").Engine(nil).Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeSuccess, doc.Outcome)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "2.3 Objetivos", doc.Title)
	assert.Equal(t, 2, doc.Metrics.PagesNative)
	assert.NotEmpty(t, doc.RunID)
}

func TestConverterRunsConcurrently(t *testing.T) {
	src := &stubSource{pages: 3}
	conv := FromSource(src, "informe.pdf").Engine(nil).Workers(2)

	docs := make([]*model.Document, 4)
	var g errgroup.Group
	for i := range docs {
		g.Go(func() error {
			doc, err := conv.Process(context.Background())
			docs[i] = doc
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]bool)
	for _, doc := range docs {
		require.NotNil(t, doc)
		assert.Len(t, doc.Pages, 3)
		assert.Equal(t, "2.3 Objetivos", doc.Title)
		seen[doc.RunID] = true
	}
	assert.Len(t, seen, 4)
	assert.Same(t, src, conv.src)
}

func TestOperationsLeaveConverterReusable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nota.pdf")
	require.NoError(t, os.WriteFile(path, []byte("texto plano"), 0o644))
	conv := Open(path)

	for i := 0; i < 2; i++ {
		_, err := conv.PageCount()
		assert.True(t, pipeline.IsFatal(err))
		_, err = conv.Process(context.Background())
		assert.True(t, pipeline.IsFatal(err))
	}
	assert.Nil(t, conv.src)
	assert.Equal(t, path, conv.path)
}

func TestProcessSelectedPages(t *testing.T) {
	doc, err := FromSource(&stubSource{pages: 5}, "informe.pdf").Engine(nil).Pages(2, 4).Process(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 1, doc.Pages[0].Index)
	assert.Equal(t, 3, doc.Pages[1].Index)
}

func TestPreflightFailuresAreFatal(t *testing.T) {
	dir := t.TempDir()
	notPDF := filepath.Join(dir, "nota.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("plain text, not a PDF"), 0o644))

	tests := []struct {
		name string
		conv *Converter
	}{
		{"missing file", Open(filepath.Join(dir, "missing.pdf"))},
		{"not a pdf", Open(notPDF)},
		{"bad language", FromSource(&stubSource{pages: 1}, "x.pdf").Languages("english")},
		{"no input", New()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.conv.Engine(nil).Process(context.Background())
			require.Error(t, err)
			assert.True(t, pipeline.IsFatal(err), "error %v should be fatal", err)
		})
	}
}

func TestConvertWritesExports(t *testing.T) {
	out := t.TempDir()
	doc, paths, err := FromSource(&stubSource{pages: 1}, "/in/informe.pdf").
		Engine(nil).
		Exports(config.ExportMarkdown, config.ExportDOCX).
		Convert(context.Background(), out)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, []string{
		filepath.Join(out, "informe.md"),
		filepath.Join(out, "informe.docx"),
		filepath.Join(out, "informe.metrics.json"),
	}, paths)

	md, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(md), "2.3 Objetivos")
}

func TestHistoryRecordsRuns(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	doc, paths, err := FromSource(&stubSource{pages: 1}, "informe.pdf").
		Engine(nil).
		History(s).
		Convert(context.Background(), t.TempDir())
	require.NoError(t, err)

	run, err := s.GetRun(context.Background(), doc.RunID)
	require.NoError(t, err)
	assert.Equal(t, "success", run.Outcome)
	assert.Equal(t, paths, run.Outputs)
	assert.Equal(t, 1, run.TotalPages)
}

func TestProcessDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notas.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("not a pdf"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	results, err := New().Engine(nil).BatchWorkers(2).ProcessDir(context.Background(), dir, "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(dir, "a.PDF"), results[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.pdf"), results[1].Path)
	for _, r := range results {
		assert.Nil(t, r.Document)
		assert.True(t, pipeline.IsFatal(r.Err))
	}
}

func TestProcessDirWithoutDocuments(t *testing.T) {
	_, err := ProcessDir(context.Background(), t.TempDir(), config.Default())
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.Panics(t, func() { Must(0, os.ErrNotExist) })
}
