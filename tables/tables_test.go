package tables

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/msocr/model"
)

// word creates a native word at x, y with a width derived from its length
func word(text string, x, y float64) model.Word {
	return model.Word{
		Text:     text,
		BBox:     model.NewBBox(x, y, float64(len([]rune(text)))*5, 10),
		FontSize: 10,
	}
}

type fakeStrategy struct {
	name  string
	cands []model.TableCandidate
	err   error
	panic bool
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Attempt(context.Context, *model.Page) ([]model.TableCandidate, error) {
	f.calls++
	if f.panic {
		panic("boom")
	}
	return f.cands, f.err
}

func table(bbox model.BBox, quality float64, rows ...[]string) model.TableCandidate {
	return model.TableCandidate{BBox: bbox, Quality: quality, Rows: rows}
}

func TestDedupKeepsHigherQuality(t *testing.T) {
	// two boxes with IoU 0.9
	a := table(model.NewBBox(0, 0, 100, 100), 0.6, []string{"a", "b"}, []string{"c", "d"})
	b := table(model.NewBBox(0, 0, 100, 90), 0.8, []string{"x", "y"}, []string{"z", "w"})
	require.InDelta(t, 0.9, a.BBox.IoU(b.BBox), 1e-9)

	out := Dedup([]model.TableCandidate{a, b}, 0.5)
	require.Len(t, out, 1)
	assert.Equal(t, 0.8, out[0].Quality)

	out = Dedup([]model.TableCandidate{b, a}, 0.5)
	require.Len(t, out, 1)
	assert.Equal(t, 0.8, out[0].Quality)
}

func TestDedupTieKeepsEarlier(t *testing.T) {
	a := table(model.NewBBox(0, 0, 100, 100), 0.7, []string{"first"})
	b := table(model.NewBBox(5, 5, 100, 100), 0.7, []string{"second"})

	out := Dedup([]model.TableCandidate{a, b}, 0.5)
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].Rows[0][0])
}

func TestDedupKeepsDistinctAndOrder(t *testing.T) {
	a := table(model.NewBBox(0, 300, 100, 100), 0.9)
	b := table(model.NewBBox(0, 0, 100, 100), 0.6)
	c := table(model.NewBBox(50, 0, 100, 100), 0.7) // IoU with b is 1/3

	out := Dedup([]model.TableCandidate{a, b, c}, 0.5)
	require.Len(t, out, 3)
	assert.Equal(t, 0.9, out[0].Quality)
	assert.Equal(t, 0.6, out[1].Quality)
	assert.Equal(t, 0.7, out[2].Quality)

	out = Dedup([]model.TableCandidate{a, b, c}, 0.3)
	require.Len(t, out, 2)
	assert.Equal(t, 0.7, out[1].Quality)
}

func TestClean(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("drops empty rows and columns", func(t *testing.T) {
		c := table(model.BBox{}, 0.9,
			[]string{" Nombre ", "", "Edad"},
			[]string{"", "", ""},
			[]string{"Ana  María", "", "34"},
		)
		require.True(t, Clean(&c, cfg))
		assert.Equal(t, [][]string{{"Nombre", "Edad"}, {"Ana María", "34"}}, c.Rows)
	})

	t.Run("too small", func(t *testing.T) {
		c := table(model.BBox{}, 0.9, []string{"a", "b"}, []string{"", ""})
		assert.False(t, Clean(&c, cfg))
	})

	t.Run("low quality", func(t *testing.T) {
		c := table(model.BBox{}, 0.2, []string{"a", "b"}, []string{"c", "d"})
		assert.False(t, Clean(&c, cfg))
	})

	t.Run("ragged rows are padded", func(t *testing.T) {
		c := table(model.BBox{}, 0.9, []string{"a", "b", "c"}, []string{"d"})
		require.True(t, Clean(&c, cfg))
		assert.Equal(t, []string{"d", "", ""}, c.Rows[1])
	})
}

func TestExtractorFirstNonEmptyWins(t *testing.T) {
	good := table(model.NewBBox(0, 0, 100, 100), 0.9, []string{"a", "b"}, []string{"c", "d"})
	first := &fakeStrategy{name: "first", err: errors.New("no rulings parsed")}
	second := &fakeStrategy{name: "second", cands: []model.TableCandidate{table(model.BBox{}, 0.9, []string{""})}}
	third := &fakeStrategy{name: "third", cands: []model.TableCandidate{good}}
	fourth := &fakeStrategy{name: "fourth", cands: []model.TableCandidate{good}}

	ex := NewExtractor(DefaultConfig(), first, second, third, fourth)
	page := model.NewPage(3, 612, 792)

	res, err := ex.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "third", res.Method)
	assert.Equal(t, []string{"first", "second", "third"}, res.Attempted)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "first", res.Failures[0].Strategy)
	assert.Equal(t, 1, res.Dropped)
	assert.Zero(t, fourth.calls)

	require.Len(t, res.Tables, 1)
	assert.Equal(t, "p3-t0", res.Tables[0].ID)
	assert.Equal(t, 3, res.Tables[0].PageIndex)
	assert.Equal(t, "third", res.Tables[0].Method)
}

func TestExtractorDedupsAcceptedCandidates(t *testing.T) {
	low := table(model.NewBBox(0, 0, 100, 100), 0.6, []string{"a", "b"}, []string{"c", "d"})
	high := table(model.NewBBox(0, 0, 100, 90), 0.8, []string{"a", "b"}, []string{"c", "d"})
	s := &fakeStrategy{name: "lattice", cands: []model.TableCandidate{low, high}}

	res, err := NewExtractor(DefaultConfig(), s).Extract(context.Background(), model.NewPage(4, 612, 792))
	require.NoError(t, err)
	require.Len(t, res.Tables, 1)
	assert.Equal(t, 0.8, res.Tables[0].Quality)
	assert.Equal(t, "p4-t0", res.Tables[0].ID)
}

func TestExtractorAllStrategiesFail(t *testing.T) {
	a := &fakeStrategy{name: "a", err: errors.New("broken")}
	b := &fakeStrategy{name: "b", panic: true}

	res, err := NewExtractor(DefaultConfig(), a, b).Extract(context.Background(), model.NewPage(0, 612, 792))
	require.Error(t, err)

	var chain *ChainError
	require.ErrorAs(t, err, &chain)
	assert.Len(t, chain.Failures, 2)
	assert.ErrorIs(t, err, ErrNoTables)
	assert.Contains(t, err.Error(), "a, b")
	assert.Empty(t, res.Tables)
}

func TestExtractorNothingFound(t *testing.T) {
	a := &fakeStrategy{name: "a"}
	b := &fakeStrategy{name: "b", err: errors.New("broken")}

	res, err := NewExtractor(DefaultConfig(), a, b).Extract(context.Background(), model.NewPage(0, 612, 792))
	require.NoError(t, err)
	assert.Empty(t, res.Tables)
	assert.Len(t, res.Failures, 1)
}

func TestExtractorDefaultChain(t *testing.T) {
	ex := NewExtractor(DefaultConfig())
	assert.Equal(t, []string{"lattice", "stream", "raster"}, ex.Strategies())
}

func TestLattice(t *testing.T) {
	page := model.NewPage(0, 612, 792)
	page.Rulings = []model.BBox{
		model.NewBBox(72, 100, 300, 0.5),
		model.NewBBox(72, 130, 300, 0.5),
		model.NewBBox(72, 160, 300, 0.5),
		model.NewBBox(72, 100, 0.5, 60),
		model.NewBBox(222, 100, 0.5, 60),
		model.NewBBox(372, 100, 0.5, 60),
		// a lone box elsewhere is not a table
		model.NewBBox(72, 400, 200, 0.5),
		model.NewBBox(72, 450, 200, 0.5),
		model.NewBBox(72, 400, 0.5, 50),
		model.NewBBox(272, 400, 0.5, 50),
	}
	page.Words = []model.Word{
		word("Nombre", 80, 108), word("Edad", 230, 108),
		word("Ana", 80, 138), word("34", 230, 138),
		word("Dentro", 80, 420),
	}

	cands, err := NewLattice(DefaultConfig()).Attempt(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, "lattice", c.Method)
	assert.Equal(t, [][]string{{"Nombre", "Edad"}, {"Ana", "34"}}, c.Rows)
	assert.Greater(t, c.Quality, 0.9)
	assert.InDelta(t, 72.25, c.BBox.X, 0.01)
	assert.InDelta(t, 60, c.BBox.Height, 0.01)
}

func TestLatticeWithoutRulings(t *testing.T) {
	cands, err := NewLattice(DefaultConfig()).Attempt(context.Background(), model.NewPage(0, 612, 792))
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestStream(t *testing.T) {
	page := model.NewPage(0, 612, 792)
	page.Words = []model.Word{
		word("Informe", 72, 50), word("de", 112, 50), word("ventas", 127, 50),
		word("Nombre", 72, 100), word("Edad", 250, 100), word("Ciudad", 400, 100),
		word("Ana", 72, 115), word("34", 250, 115), word("Lima", 400, 115),
		word("Luis", 72, 130), word("28", 250, 130), word("Quito", 400, 130),
	}

	cands, err := NewStream(DefaultConfig()).Attempt(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, "stream", c.Method)
	assert.Equal(t, [][]string{
		{"Nombre", "Edad", "Ciudad"},
		{"Ana", "34", "Lima"},
		{"Luis", "28", "Quito"},
	}, c.Rows)
	assert.GreaterOrEqual(t, c.Quality, DefaultConfig().MinQuality)
}

func TestStreamIgnoresProseColumns(t *testing.T) {
	var words []model.Word
	left := []string{"Lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing"}
	right := []string{"sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore"}
	for row := 0; row < 4; row++ {
		y := 100 + float64(row)*14
		x := 72.0
		for _, w := range left {
			words = append(words, word(w, x, y))
			x += float64(len(w))*5 + 3
		}
		x = 330
		for _, w := range right {
			words = append(words, word(w, x, y))
			x += float64(len(w))*5 + 3
		}
	}
	page := model.NewPage(0, 612, 792)
	page.Words = words

	cands, err := NewStream(DefaultConfig()).Attempt(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func gridImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 600, 600))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	black := color.Gray{Y: 0}
	for _, y := range []int{100, 200, 300} {
		for x := 100; x <= 500; x++ {
			img.SetGray(x, y, black)
			img.SetGray(x, y+1, black)
		}
	}
	for _, x := range []int{100, 300, 500} {
		for y := 100; y <= 301; y++ {
			img.SetGray(x, y, black)
			img.SetGray(x+1, y, black)
		}
	}
	return img
}

func TestDetectRulings(t *testing.T) {
	rulings := DetectRulings(gridImage(), 72, 36)

	var h, v int
	for _, r := range rulings {
		if r.Width > r.Height {
			h++
			assert.InDelta(t, 401, r.Width, 1)
			assert.InDelta(t, 2, r.Height, 0.01)
		} else {
			v++
			assert.InDelta(t, 202, r.Height, 1)
		}
	}
	assert.Equal(t, 3, h)
	assert.Equal(t, 3, v)

	t.Run("scales to points", func(t *testing.T) {
		rulings := DetectRulings(gridImage(), 144, 36)
		require.NotEmpty(t, rulings)
		for _, r := range rulings {
			assert.LessOrEqual(t, r.Right(), 300.0)
		}
	})

	t.Run("filled areas are not rulings", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 200, 200))
		for i := range img.Pix {
			img.Pix[i] = 0
		}
		assert.Empty(t, DetectRulings(img, 72, 36))
	})
}

func TestRaster(t *testing.T) {
	page := model.NewPage(0, 600, 600)
	page.Classification = model.ClassOCR
	page.Raster = gridImage()
	page.RasterDPI = 72
	page.Words = []model.Word{
		model.NewOCRWord("A", 95, model.NewBBox(150, 140, 20, 10)),
		model.NewOCRWord("B", 95, model.NewBBox(350, 140, 20, 10)),
		model.NewOCRWord("C", 95, model.NewBBox(150, 240, 20, 10)),
		model.NewOCRWord("D", 95, model.NewBBox(350, 240, 20, 10)),
	}

	cands, err := NewRaster(DefaultConfig()).Attempt(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "raster", cands[0].Method)
	assert.Equal(t, [][]string{{"A", "B"}, {"C", "D"}}, cands[0].Rows)

	t.Run("native pages are skipped", func(t *testing.T) {
		native := *page
		native.Classification = model.ClassNative
		cands, err := NewRaster(DefaultConfig()).Attempt(context.Background(), &native)
		require.NoError(t, err)
		assert.Empty(t, cands)
	})

	t.Run("missing dpi", func(t *testing.T) {
		nodpi := *page
		nodpi.RasterDPI = 0
		_, err := NewRaster(DefaultConfig()).Attempt(context.Background(), &nodpi)
		assert.ErrorIs(t, err, ErrNoDPI)
	})
}
