package layout

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/msocr/model"
)

// makeBlock builds a native text block whose lines start at y, one line per
// entry, each line fs points tall.
func makeBlock(index int, y, fs float64, lines ...string) model.TextBlock {
	blk := model.TextBlock{Index: index, FontSize: fs}
	for i, l := range lines {
		ly := y + float64(i)*fs*1.2
		x := 72.0
		var line model.Line
		for _, w := range strings.Fields(l) {
			width := float64(len([]rune(w))) * fs * 0.5
			word := model.Word{Text: w, BBox: model.NewBBox(x, ly, width, fs), FontSize: fs}
			line.Words = append(line.Words, word)
			line.BBox = line.BBox.Union(word.BBox)
			x += width + fs*0.3
		}
		blk.Lines = append(blk.Lines, line)
		blk.BBox = blk.BBox.Union(line.BBox)
	}
	return blk
}

func makePage(index int, blocks ...model.TextBlock) *model.Page {
	p := model.NewPage(index, 612, 792)
	p.Blocks = blocks
	return p
}

func TestParseSection(t *testing.T) {
	tests := []struct {
		line   string
		ok     bool
		number string
		title  string
		depth  int
	}{
		{"2.3 Objetivos", true, "2.3", "Objetivos", 2},
		{"4.1.2. Alcance del proyecto", true, "4.1.2", "Alcance del proyecto", 3},
		{"3 Metodología", true, "3", "Metodología", 1},
		{"3. Metodología", false, "", "", 0},
		{"2020", false, "", "", 0},
		{"1.5", false, "", "", 0},
		{"Objetivos", false, "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sec, ok := ParseSection(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.number, sec.Number)
			assert.Equal(t, tt.title, sec.Title)
			assert.Equal(t, tt.depth, sec.Depth)
		})
	}
}

func TestSectionLevel(t *testing.T) {
	assert.Equal(t, 1, SectionLevel(1, 6))
	assert.Equal(t, 3, SectionLevel(3, 6))
	assert.Equal(t, 6, SectionLevel(9, 6))
	assert.Equal(t, 1, SectionLevel(0, 6))
	assert.Equal(t, 1, SectionLevel(4, 0))
}

func TestDetectListMarker(t *testing.T) {
	tests := []struct {
		line    string
		ok      bool
		kind    model.MarkerKind
		ordinal string
		text    string
	}{
		{"• Memoria", true, model.MarkerBullet, "", "Memoria"},
		{"- Disco duro", true, model.MarkerBullet, "", "Disco duro"},
		{"\uF0B7 Red", true, model.MarkerBullet, "", "Red"},
		{"•Pegado", true, model.MarkerBullet, "", "Pegado"},
		{"-5 grados", false, model.MarkerNone, "", ""},
		{"1. Introducción", true, model.MarkerNumber, "1", "Introducción"},
		{"12) Cierre", true, model.MarkerNumber, "12", "Cierre"},
		{"b) Segundo", true, model.MarkerLetter, "b", "Segundo"},
		{"(c) Tercero", true, model.MarkerLetter, "c", "Tercero"},
		{"Texto normal", false, model.MarkerNone, "", ""},
		{"•", false, model.MarkerNone, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			m, ok := DetectListMarker(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.kind, m.Kind)
			assert.Equal(t, tt.ordinal, m.Ordinal)
			assert.Equal(t, tt.text, m.Text)
		})
	}
}

func TestNormalizeRepeatText(t *testing.T) {
	assert.Equal(t, "informe anual", NormalizeRepeatText("  Informe \t ANUAL "))
	assert.Equal(t, NormalizeRepeatText("INFORME ANUAL"), NormalizeRepeatText("informe anual"))
	assert.Equal(t, "#", NormalizeRepeatText("Página 3 de 9"))
	assert.Equal(t, "#", NormalizeRepeatText("- 4 -"))
	assert.Equal(t, "#", NormalizeRepeatText("１２"))
	assert.Equal(t, "#", NormalizeRepeatText("7 / 10"))
	assert.Equal(t, "capítulo 3", NormalizeRepeatText("Capítulo 3"))
}

func repeatPages(n int) []PageBlocks {
	pages := make([]PageBlocks, n)
	for i := range pages {
		pages[i] = PageBlocks{
			Index:  i,
			Height: 792,
			Blocks: []model.TextBlock{
				makeBlock(0, 20, 10, "Informe Anual 2023"),
				makeBlock(1, 300, 12, "Contenido distinto de la página", strings.Repeat("x", i+1)),
				makeBlock(2, 770, 10, strconv.Itoa(i+1)),
			},
		}
	}
	return pages
}

func TestRepeatIndex(t *testing.T) {
	pages := repeatPages(4)
	idx := BuildRepeatIndex(pages, DefaultRepeatConfig())

	header := pages[0].Blocks[0]
	body := pages[0].Blocks[1]
	footer := pages[2].Blocks[2]

	assert.True(t, idx.IsRepeated(0, header, 792))
	assert.False(t, idx.IsRepeated(0, body, 792))
	assert.True(t, idx.IsRepeated(2, footer, 792), "page numbers collapse to one key")

	t.Run("too few other pages", func(t *testing.T) {
		small := BuildRepeatIndex(repeatPages(2), DefaultRepeatConfig())
		assert.False(t, small.IsRepeated(0, header, 792))
	})

	t.Run("same text outside the band", func(t *testing.T) {
		moved := makeBlock(0, 400, 10, "Informe Anual 2023")
		assert.False(t, idx.IsRepeated(0, moved, 792))
	})

	t.Run("nil index", func(t *testing.T) {
		var none *RepeatIndex
		assert.False(t, none.IsRepeated(0, header, 792))
		assert.Zero(t, none.Len())
	})
}

func TestClassifyNumberedSection(t *testing.T) {
	page := makePage(0,
		makeBlock(0, 100, 14, "2.3 Objetivos"),
		makeBlock(1, 130, 12, "El proyecto busca mejorar la calidad del", "servicio prestado a los usuarios finales."),
	)

	elems := NewClassifier(DefaultConfig()).Classify(page, nil)
	require.Len(t, elems, 2)

	h := elems[0]
	assert.Equal(t, model.ElementHeading, h.Kind)
	assert.Equal(t, 2, h.Level)
	assert.Equal(t, "2.3", h.SectionNumber)
	assert.Equal(t, "Objetivos", h.Text)
	assert.Equal(t, "2.3 Objetivos", h.HeadingText())

	assert.Equal(t, model.ElementParagraph, elems[1].Kind)
	assert.Equal(t, model.TagHeading, page.Blocks[0].Tag)
	assert.Equal(t, model.TagParagraph, page.Blocks[1].Tag)
}

func TestClassifyNumberedSectionShapes(t *testing.T) {
	tests := []struct {
		line   string
		number string
		title  string
		level  int
	}{
		{"3.1 Requisitos:", "3.1", "Requisitos:", 2},
		{"4.1.2 Alcance del proyecto.", "4.1.2", "Alcance del proyecto.", 3},
		{"2.3 objetivos generales", "2.3", "objetivos generales", 2},
		{"4.1.2 objetivos", "4.1.2", "objetivos", 3},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			page := makePage(0,
				makeBlock(0, 100, 12, tt.line),
				makeBlock(1, 130, 12, "El proyecto busca mejorar la calidad del", "servicio prestado a los usuarios finales."),
			)
			elems := NewClassifier(DefaultConfig()).Classify(page, nil)
			require.Len(t, elems, 2)
			assert.Equal(t, model.ElementHeading, elems[0].Kind)
			assert.Equal(t, tt.level, elems[0].Level)
			assert.Equal(t, tt.number, elems[0].SectionNumber)
			assert.Equal(t, tt.title, elems[0].Text)
			assert.Equal(t, model.ElementParagraph, elems[1].Kind)
		})
	}
}

func TestClassifyHeadingLevelCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeadingLevelCap = 3
	page := makePage(0, makeBlock(0, 100, 12, "1.2.3.4.5 Detalle"))

	elems := NewClassifier(cfg).Classify(page, nil)
	require.Len(t, elems, 1)
	assert.Equal(t, model.ElementHeading, elems[0].Kind)
	assert.Equal(t, 3, elems[0].Level)
	assert.Equal(t, "1.2.3.4.5", elems[0].SectionNumber)
}

func TestClassifyUnnumberedHeading(t *testing.T) {
	para := []string{
		"Este documento describe el alcance general del",
		"trabajo realizado durante el año y los resultados",
		"obtenidos en cada una de las áreas evaluadas.",
	}

	t.Run("short line before body text", func(t *testing.T) {
		page := makePage(0, makeBlock(0, 80, 12, "Introducción"), makeBlock(1, 100, 12, para...))
		elems := NewClassifier(DefaultConfig()).Classify(page, nil)
		require.Len(t, elems, 2)
		assert.Equal(t, model.ElementHeading, elems[0].Kind)
		assert.Equal(t, 2, elems[0].Level)
		assert.Empty(t, elems[0].SectionNumber)
	})

	t.Run("large font becomes level one", func(t *testing.T) {
		page := makePage(0, makeBlock(0, 60, 24, "Informe Final"), makeBlock(1, 100, 12, para...))
		elems := NewClassifier(DefaultConfig()).Classify(page, nil)
		require.Len(t, elems, 2)
		assert.Equal(t, model.ElementHeading, elems[0].Kind)
		assert.Equal(t, 1, elems[0].Level)
	})

	t.Run("sentence is not a heading", func(t *testing.T) {
		page := makePage(0, makeBlock(0, 80, 12, "Esto es una frase."), makeBlock(1, 100, 12, para...))
		elems := NewClassifier(DefaultConfig()).Classify(page, nil)
		assert.Equal(t, model.ElementParagraph, elems[0].Kind)
	})

	t.Run("short line before short line", func(t *testing.T) {
		page := makePage(0, makeBlock(0, 80, 12, "Firma"), makeBlock(1, 100, 12, "Juan Pérez"))
		elems := NewClassifier(DefaultConfig()).Classify(page, nil)
		assert.Equal(t, model.ElementParagraph, elems[0].Kind)
		assert.Equal(t, model.ElementParagraph, elems[1].Kind)
	})

	t.Run("all caps line", func(t *testing.T) {
		page := makePage(0, makeBlock(0, 700, 12, "CONCLUSIONES"))
		elems := NewClassifier(DefaultConfig()).Classify(page, nil)
		require.Len(t, elems, 1)
		assert.Equal(t, model.ElementHeading, elems[0].Kind)
	})
}

func TestClassifyLists(t *testing.T) {
	page := makePage(0,
		makeBlock(0, 100, 12, "Requisitos del sistema:", "• Memoria de 8 GB", "• Disco de 256 GB"),
		makeBlock(1, 160, 12, "1. Instalar el paquete"),
		makeBlock(2, 180, 12, "2. Configurar el servicio"),
		makeBlock(3, 200, 12, "Texto de cierre del apartado con varias palabras", "que continúa en una segunda línea."),
		makeBlock(4, 240, 12, "a) Primera opción"),
	)

	elems := NewClassifier(DefaultConfig()).Classify(page, nil)
	require.Len(t, elems, 7)

	assert.Equal(t, model.ElementParagraph, elems[0].Kind)
	assert.Equal(t, "Requisitos del sistema:", elems[0].Text)

	for _, i := range []int{1, 2} {
		assert.Equal(t, model.ElementListItem, elems[i].Kind)
		assert.Equal(t, model.MarkerBullet, elems[i].Marker)
		assert.Equal(t, 1, elems[i].ListID)
	}
	assert.Equal(t, "Memoria de 8 GB", elems[1].Text)

	for _, i := range []int{3, 4} {
		assert.Equal(t, model.ElementListItem, elems[i].Kind)
		assert.Equal(t, model.MarkerNumber, elems[i].Marker)
		assert.Equal(t, 2, elems[i].ListID)
	}
	assert.Equal(t, "2", elems[4].Ordinal)

	assert.Equal(t, model.ElementParagraph, elems[5].Kind)
	assert.Equal(t, model.MarkerLetter, elems[6].Marker)
	assert.Equal(t, 3, elems[6].ListID)
}

func TestClassifySuppressesHeaders(t *testing.T) {
	pages := repeatPages(3)
	idx := BuildRepeatIndex(pages, DefaultRepeatConfig())

	page := makePage(0, pages[0].Blocks...)
	elems := NewClassifier(DefaultConfig()).Classify(page, idx)

	for _, el := range elems {
		assert.NotContains(t, el.Text, "Informe Anual")
	}
	assert.Equal(t, model.TagHeaderFooter, page.Blocks[0].Tag)
	assert.Equal(t, model.TagHeaderFooter, page.Blocks[2].Tag)
	assert.NotEqual(t, model.TagHeaderFooter, page.Blocks[1].Tag)
}

func TestClassifyKeepsBlockOrder(t *testing.T) {
	var blocks []model.TextBlock
	for i := 0; i < 5; i++ {
		blocks = append(blocks, makeBlock(i, 100+float64(i)*40, 12,
			"párrafo número "+string(rune('a'+i))+" con bastante texto para",
			"ocupar dos líneas completas."))
	}
	page := makePage(0, blocks...)

	elems := NewClassifier(DefaultConfig()).Classify(page, nil)
	require.Len(t, elems, 5)
	for i, el := range elems {
		assert.Equal(t, model.ElementParagraph, el.Kind)
		assert.Equal(t, i, el.Blocks[0].Index)
	}
}

func TestAttachTables(t *testing.T) {
	elems := []model.LayoutElement{
		{Kind: model.ElementParagraph, Text: "antes", Blocks: []model.TextBlock{{BBox: model.NewBBox(72, 50, 400, 20)}}},
		{Kind: model.ElementParagraph, Text: "celda a", Blocks: []model.TextBlock{{BBox: model.NewBBox(72, 100, 200, 20)}}},
		{Kind: model.ElementParagraph, Text: "celda b", Blocks: []model.TextBlock{{BBox: model.NewBBox(72, 130, 200, 20)}}},
		{Kind: model.ElementParagraph, Text: "después", Blocks: []model.TextBlock{{BBox: model.NewBBox(72, 300, 400, 20)}}},
	}
	tables := []model.TableCandidate{
		{ID: "p0-t0", BBox: model.NewBBox(70, 95, 410, 60)},
		{ID: "p0-t1", BBox: model.NewBBox(70, 500, 410, 60)},
	}

	out := AttachTables(elems, tables)
	require.Len(t, out, 4)
	assert.Equal(t, "antes", out[0].Text)
	assert.Equal(t, model.ElementTableReference, out[1].Kind)
	assert.Equal(t, "p0-t0", out[1].TableID)
	assert.Equal(t, "después", out[2].Text)
	assert.Equal(t, "p0-t1", out[3].TableID)

	assert.Equal(t, elems, AttachTables(elems, nil))
}
