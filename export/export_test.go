package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/msocr/config"
	"github.com/tsawler/msocr/model"
)

func sampleDocument() *model.Document {
	first := model.NewPage(0, 612, 792)
	first.Tables = []model.TableCandidate{{
		ID:        model.TableID(0, 1),
		PageIndex: 0,
		Method:    "lattice",
		Rows:      [][]string{{"Nombre", "Valor"}, {"a", "1"}, {"b", "2"}},
		Quality:   0.9,
	}}
	first.Elements = []model.LayoutElement{
		{Kind: model.ElementHeading, Level: 1, Text: "Informe"},
		{Kind: model.ElementHeading, Level: 2, SectionNumber: "2.3", Text: "Objetivos"},
		{Kind: model.ElementParagraph, Text: "Texto de introducción."},
		{Kind: model.ElementListItem, Marker: model.MarkerNumber, Ordinal: "1", ListID: 1, Text: "uno"},
		{Kind: model.ElementListItem, Marker: model.MarkerNumber, Ordinal: "2", ListID: 1, Text: "dos"},
		{Kind: model.ElementListItem, Marker: model.MarkerNumber, Ordinal: "3", ListID: 1, Text: "tres"},
		{Kind: model.ElementTableReference, TableID: model.TableID(0, 1)},
	}

	third := model.NewPage(2, 612, 792)
	third.Elements = []model.LayoutElement{
		{Kind: model.ElementParagraph, Text: "Cierre del documento."},
	}

	conf := 91.5
	return &model.Document{
		RunID:             "run-1",
		Source:            "/data/informe.pdf",
		Title:             "Informe",
		Languages:         []string{"spa", "eng"},
		DetectedLanguages: []string{"spa"},
		TotalPages:        3,
		Pages:             []*model.Page{first, third},
		Failures: []model.PageFailure{
			{PageIndex: 1, Stage: model.StageOCR, Reason: "engine crashed"},
		},
		Outcome: model.OutcomePartialSuccess,
		Metrics: model.DocumentMetrics{
			SourceFile:       "informe.pdf",
			Languages:        []string{"spa"},
			TotalPages:       3,
			PagesNative:      2,
			PagesOCR:         1,
			PagesFailed:      1,
			AvgOCRConfidence: &conf,
			TotalTables:      1,
			StageTotals:      map[model.Stage]time.Duration{model.StageNative: 1500 * time.Millisecond},
			TotalTime:        2 * time.Second,
			WallTime:         time.Second,
			Pages: []model.PageMetrics{
				{
					PageIndex:      0,
					TablesDetected: 1,
					StageDurations: map[model.Stage]time.Duration{model.StageNative: 1500 * time.Millisecond},
					ProcessingTime: 1500 * time.Millisecond,
				},
			},
		},
	}
}

func renderMarkdown(t *testing.T, doc *model.Document, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, doc, opts))
	return buf.String()
}

func TestMarkdownFrontmatter(t *testing.T) {
	out := renderMarkdown(t, sampleDocument(), DefaultOptions())

	require.True(t, strings.HasPrefix(out, "---\n"))
	end := strings.Index(out[4:], "---\n")
	require.Positive(t, end)

	var fm frontmatter
	require.NoError(t, yaml.Unmarshal([]byte(out[4:4+end]), &fm))
	assert.Equal(t, "Informe", fm.Title)
	assert.Equal(t, "informe.pdf", fm.Source)
	assert.Equal(t, []string{"spa"}, fm.Languages)
	assert.Equal(t, 3, fm.Pages)
	assert.Equal(t, "partial_success", fm.Outcome)
	assert.Equal(t, []int{2}, fm.FailedPages)
	assert.Equal(t, "run-1", fm.RunID)
	assert.Equal(t, GeneratedBy, fm.GeneratedBy)
}

func TestFrontmatterLanguagesWithoutDetection(t *testing.T) {
	doc := sampleDocument()
	doc.DetectedLanguages = nil

	fm := newFrontmatter(doc, DefaultOptions())
	assert.Equal(t, []string{"spa", "eng"}, fm.Languages)
}

func TestMarkdownBody(t *testing.T) {
	opts := DefaultOptions()
	opts.Frontmatter = false
	out := renderMarkdown(t, sampleDocument(), opts)

	assert.True(t, strings.HasPrefix(out, "# Informe\n\n## 2.3 Objetivos\n\nTexto de introducción.\n\n"))
	assert.Contains(t, out, "1. uno\n2. dos\n3. tres\n\n| Nombre | Valor |\n|---|---|\n| a | 1 |")
	assert.Contains(t, out, "> **Page 2 could not be processed (ocr: engine crashed)**")

	notice := strings.Index(out, "Page 2 could not")
	closing := strings.Index(out, "Cierre del documento.")
	assert.Less(t, strings.Index(out, "| b | 2 |"), notice)
	assert.Less(t, notice, closing)
	assert.NotContains(t, out, "<!-- page")
}

func TestMarkdownPageMarkers(t *testing.T) {
	opts := DefaultOptions()
	opts.Frontmatter = false
	opts.PageMarkers = true
	out := renderMarkdown(t, sampleDocument(), opts)

	assert.True(t, strings.HasPrefix(out, "<!-- page 1 -->\n\n# Informe"))
	assert.Contains(t, out, "<!-- page 2 -->\n\n> **Page 2")
	assert.Contains(t, out, "<!-- page 3 -->\n\nCierre del documento.")
}

func TestMarkdownListMarkers(t *testing.T) {
	tests := []struct {
		name string
		elem model.LayoutElement
		want string
	}{
		{"bullet", model.LayoutElement{Kind: model.ElementListItem, Marker: model.MarkerBullet, Text: "item"}, "- item"},
		{"number", model.LayoutElement{Kind: model.ElementListItem, Marker: model.MarkerNumber, Ordinal: "4", Text: "item"}, "4. item"},
		{"letter", model.LayoutElement{Kind: model.ElementListItem, Marker: model.MarkerLetter, Ordinal: "b", Text: "item"}, "b) item"},
		{"multiline", model.LayoutElement{Kind: model.ElementListItem, Marker: model.MarkerBullet, Text: "two\nlines"}, "- two lines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listItemMarkdown(tt.elem))
		})
	}
}

func TestSeparateListsAreNotMerged(t *testing.T) {
	page := model.NewPage(0, 100, 100)
	page.Elements = []model.LayoutElement{
		{Kind: model.ElementListItem, Marker: model.MarkerBullet, ListID: 1, Text: "a"},
		{Kind: model.ElementListItem, Marker: model.MarkerBullet, ListID: 1, Text: "b"},
		{Kind: model.ElementListItem, Marker: model.MarkerNumber, Ordinal: "1", ListID: 2, Text: "c"},
	}
	blocks := pageMarkdown(&model.Document{}, page)
	assert.Equal(t, []string{"- a\n- b", "1. c"}, blocks)
}

func TestHeadingLevelIsClamped(t *testing.T) {
	assert.Equal(t, 1, headingLevel(0))
	assert.Equal(t, 3, headingLevel(3))
	assert.Equal(t, 6, headingLevel(9))
}

func TestBuildPresentation(t *testing.T) {
	p := BuildPresentation(sampleDocument(), DefaultOptions())

	assert.Equal(t, "Informe", p.Title)
	assert.Equal(t, "informe.pdf", p.Source)
	assert.Equal(t, 3, p.Meta.Pages)
	assert.Equal(t, []string{"spa"}, p.Meta.Lang)

	var types []string
	for _, s := range p.Slides {
		types = append(types, s.Type)
	}
	assert.Equal(t, []string{SlideCover, SlideSection, SlideText, SlideBullets, SlideTable, SlideNotice, SlideText}, types)

	assert.Equal(t, "2.3 Objetivos", p.Slides[0].Subtitle)
	assert.Equal(t, "2.3 Objetivos", p.Slides[3].Title)
	assert.Equal(t, []string{"uno", "dos", "tres"}, p.Slides[3].Items)
	assert.Equal(t, "2.3 Objetivos", p.Slides[4].Title)
	assert.True(t, strings.HasPrefix(p.Slides[4].MD, "| Nombre | Valor |"))
	assert.Equal(t, 2, p.Slides[5].Page)
	assert.Equal(t, 3, p.Slides[6].Page)
}

func TestLongListsSpanSlides(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxBullets = 2
	p := BuildPresentation(sampleDocument(), opts)

	var bullets [][]string
	for _, s := range p.Slides {
		if s.Type == SlideBullets {
			bullets = append(bullets, s.Items)
		}
	}
	assert.Equal(t, [][]string{{"uno", "dos"}, {"tres"}}, bullets)
}

func TestSlidesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SlidesJSON(&buf, sampleDocument(), DefaultOptions()))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "Informe", raw["title"])
	meta, ok := raw["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, GeneratedBy, meta["generated_by"])
	assert.Equal(t, Version, meta["version"])

	slides, ok := raw["slides"].([]any)
	require.True(t, ok)
	cover, ok := slides[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cover", cover["type"])
	assert.NotContains(t, cover, "items")
}

func TestSlidesMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SlidesMarkdown(&buf, sampleDocument(), DefaultOptions()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Informe\n\n2.3 Objetivos\n\n---\n\n# Informe"))
	assert.Contains(t, out, "## 2.3 Objetivos\n\n- uno\n- dos\n- tres")
	assert.Equal(t, 6, strings.Count(out, "\n---\n"))
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		parts[f.Name] = string(b)
	}
	return parts
}

func TestDOCXPackage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DOCX(&buf, sampleDocument(), DefaultOptions()))
	parts := readZip(t, buf.Bytes())

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/numbering.xml",
		"word/document.xml",
		"docProps/core.xml",
	} {
		assert.Contains(t, parts, name)
	}

	body := parts["word/document.xml"]
	assert.Contains(t, body, `<w:pStyle w:val="Title">`)
	assert.Contains(t, body, `<w:pStyle w:val="Heading2">`)
	assert.Contains(t, body, "2.3 Objetivos")
	assert.Contains(t, body, `<w:pStyle w:val="ListNumber">`)
	assert.Contains(t, body, "<w:tbl>")
	assert.Contains(t, body, "Nombre")
	assert.Contains(t, body, "Page 2 could not be processed")

	assert.Less(t, strings.Index(body, "Objetivos"), strings.Index(body, "Nombre"))
	assert.Less(t, strings.Index(body, "Nombre"), strings.Index(body, "Cierre del documento."))

	assert.Contains(t, parts["word/styles.xml"], `w:styleId="Heading6"`)
	assert.Contains(t, parts["docProps/core.xml"], "Informe")
}

func TestHTML(t *testing.T) {
	doc := sampleDocument()
	doc.Title = "Informe <final>"
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, doc, DefaultOptions()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Informe &lt;final&gt;</title>")
	assert.Contains(t, out, "<h1>Informe</h1>")
	assert.Contains(t, out, "<h2>2.3 Objetivos</h2>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>Nombre</th>")
	assert.Contains(t, out, "<li>dos</li>")
	assert.Contains(t, out, "<blockquote>")
	assert.NotContains(t, out, "run_id")
}

func TestMetricsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MetricsJSON(&buf, sampleDocument()))

	var r MetricsReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &r))
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, "partial_success", r.Outcome)
	assert.Equal(t, 1, r.PagesFailed)
	assert.InDelta(t, 2.0, r.TotalTime, 1e-9)
	assert.InDelta(t, 1.0, r.WallTime, 1e-9)
	assert.InDelta(t, 1.5, r.StageTotals["native"], 1e-9)
	require.NotNil(t, r.AvgOCRConfidence)
	assert.InDelta(t, 91.5, *r.AvgOCRConfidence, 1e-9)

	require.Len(t, r.Failures, 1)
	assert.Equal(t, FailureReport{Page: 2, Stage: "ocr", Reason: "engine crashed"}, r.Failures[0])

	require.Len(t, r.Pages, 1)
	assert.Equal(t, 1, r.Pages[0].Page)
	assert.InDelta(t, 1.5, r.Pages[0].ProcessingTime, 1e-9)
	assert.Nil(t, r.Pages[0].OCRConfidence)
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	formats := []string{config.ExportMarkdown, config.ExportJSON, config.ExportDOCX, config.ExportHTML, config.ExportSlides, config.ExportMarkdown}

	paths, err := WriteAll(sampleDocument(), dir, formats, DefaultOptions())
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
		_, err := os.Stat(p)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"informe.md",
		"informe.slides.json",
		"informe.docx",
		"informe.html",
		"informe.slides.md",
		"informe.metrics.json",
	}, names)
}

func TestWriteAllRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteAll(sampleDocument(), dir, []string{config.ExportMarkdown, "pdf"}, DefaultOptions())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "informe", Stem("/data/informe.pdf"))
	assert.Equal(t, "a.b", Stem("a.b.pdf"))
	assert.Equal(t, "noext", Stem("noext"))
}
