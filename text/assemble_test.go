package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/msocr/model"
)

// glyphRun lays out one glyph per character starting at x, 6pt advance.
func glyphRun(s string, x, y, fs float64) []Glyph {
	var out []Glyph
	for _, r := range s {
		out = append(out, Glyph{Text: string(r), X: x, Y: y, Width: 5, FontSize: fs})
		x += 6
	}
	return out
}

func TestWordsFromGlyphs(t *testing.T) {
	glyphs := glyphRun("Hola mundo", 72, 100, 10)
	words := WordsFromGlyphs(glyphs, DefaultConfig())
	require.Len(t, words, 2)
	assert.Equal(t, "Hola", words[0].Text)
	assert.Equal(t, "mundo", words[1].Text)
	assert.True(t, words[0].IsNative())
	assert.InDelta(t, 72, words[0].BBox.X, 1e-9)
	assert.InDelta(t, 23, words[0].BBox.Width, 1e-9)
}

func TestWordsFromGlyphsGapSplits(t *testing.T) {
	glyphs := append(glyphRun("ab", 10, 50, 10), glyphRun("cd", 40, 50, 10)...)
	words := WordsFromGlyphs(glyphs, DefaultConfig())
	require.Len(t, words, 2)
	assert.Equal(t, "ab", words[0].Text)
	assert.Equal(t, "cd", words[1].Text)
}

func TestWordsFromGlyphsOutOfOrder(t *testing.T) {
	second := glyphRun("dos", 10, 120, 10)
	first := glyphRun("uno", 10, 100, 10)
	words := WordsFromGlyphs(append(second, first...), DefaultConfig())
	require.Len(t, words, 2)
	assert.Equal(t, "uno", words[0].Text)
	assert.Equal(t, "dos", words[1].Text)
}

func TestWordsFromGlyphsSplitsRuns(t *testing.T) {
	glyphs := []Glyph{{Text: "dos palabras", X: 0, Y: 0, Width: 60, FontSize: 10}}
	words := WordsFromGlyphs(glyphs, DefaultConfig())
	require.Len(t, words, 2)
	assert.Equal(t, "dos", words[0].Text)
	assert.Equal(t, "palabras", words[1].Text)
	assert.Less(t, words[0].BBox.Right(), words[1].BBox.Left())
}

func word(text string, x, y, fs float64) model.Word {
	return model.Word{Text: text, BBox: model.NewBBox(x, y, float64(len(text))*fs*0.5, fs), FontSize: fs}
}

func TestBuildBlocks(t *testing.T) {
	words := []model.Word{
		word("Titulo", 72, 72, 18),
		word("primera", 72, 110, 10),
		word("linea", 120, 110, 10),
		word("segunda", 72, 122, 10),
		word("Otro", 72, 170, 10),
		word("bloque", 100, 170, 10),
	}
	blocks := BuildBlocks(words, DefaultConfig())
	require.Len(t, blocks, 3)
	assert.Equal(t, "Titulo", blocks[0].Text())
	assert.Equal(t, "primera linea\nsegunda", blocks[1].Text())
	assert.Equal(t, "Otro bloque", blocks[2].Text())
	for i, b := range blocks {
		assert.Equal(t, i, b.Index)
	}
	assert.InDelta(t, 18, blocks[0].FontSize, 1e-9)
	assert.Equal(t, "Titulo\n\nprimera linea\nsegunda\n\nOtro bloque", PlainText(blocks))
}

func TestBuildBlocksEmpty(t *testing.T) {
	assert.Nil(t, BuildBlocks(nil, DefaultConfig()))
	assert.Nil(t, WordsFromGlyphs(nil, DefaultConfig()))
}

func TestScaleWords(t *testing.T) {
	w := model.NewOCRWord("hola", 90, model.NewBBox(300, 600, 150, 40))
	out := ScaleWords([]model.Word{w}, 300)
	require.Len(t, out, 1)
	assert.InDelta(t, 72, out[0].BBox.X, 1e-9)
	assert.InDelta(t, 9.6, out[0].FontSize, 1e-9)
	assert.InDelta(t, 300, w.BBox.X, 1e-9, "input is not modified")
}
