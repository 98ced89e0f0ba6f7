package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tsawler/msocr/model"
)

// XML namespaces used in DOCX files
const (
	nsW  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsCP = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDC = "http://purl.org/dc/elements/1.1/"
)

// Numbering definitions in word/numbering.xml
const (
	abstractBullet  = 0
	abstractDecimal = 1
	abstractLetter  = 2
	numBullet       = 1
)

// documentXML is word/document.xml
type documentXML struct {
	XMLName xml.Name `xml:"w:document"`
	W       string   `xml:"xmlns:w,attr"`
	R       string   `xml:"xmlns:r,attr"`
	Body    bodyXML  `xml:"w:body"`
}

// bodyXML holds paragraphs and tables in document order
type bodyXML struct {
	Content []any
}

// paragraphXML is a <w:p> element
type paragraphXML struct {
	XMLName    xml.Name           `xml:"w:p"`
	Properties *paragraphPropsXML `xml:"w:pPr,omitempty"`
	Runs       []runXML           `xml:"w:r"`
}

type paragraphPropsXML struct {
	Style *valXML            `xml:"w:pStyle,omitempty"`
	NumPr *numberingPropsXML `xml:"w:numPr,omitempty"`
}

type numberingPropsXML struct {
	ILvl  valXML `xml:"w:ilvl"`
	NumID valXML `xml:"w:numId"`
}

// valXML is any element carrying a single w:val attribute
type valXML struct {
	Val string `xml:"w:val,attr"`
}

type runXML struct {
	Properties *runPropsXML `xml:"w:rPr,omitempty"`
	Text       textXML      `xml:"w:t"`
}

type runPropsXML struct {
	Bold   *struct{} `xml:"w:b,omitempty"`
	Italic *struct{} `xml:"w:i,omitempty"`
}

type textXML struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

// tableXML is a <w:tbl> element
type tableXML struct {
	XMLName    xml.Name      `xml:"w:tbl"`
	Properties tablePropsXML `xml:"w:tblPr"`
	Grid       tableGridXML  `xml:"w:tblGrid"`
	Rows       []tableRowXML `xml:"w:tr"`
}

type tablePropsXML struct {
	Style valXML   `xml:"w:tblStyle"`
	Width widthXML `xml:"w:tblW"`
}

type widthXML struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type tableGridXML struct {
	Cols []gridColXML `xml:"w:gridCol"`
}

type gridColXML struct {
	W int `xml:"w:w,attr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"w:tc"`
}

type tableCellXML struct {
	Properties tableCellPropsXML `xml:"w:tcPr"`
	Paragraphs []paragraphXML    `xml:"w:p"`
}

type tableCellPropsXML struct {
	Width widthXML `xml:"w:tcW"`
}

// numberingXML is word/numbering.xml
type numberingXML struct {
	XMLName  xml.Name         `xml:"w:numbering"`
	W        string           `xml:"xmlns:w,attr"`
	Abstract []abstractNumXML `xml:"w:abstractNum"`
	Nums     []numXML         `xml:"w:num"`
}

type abstractNumXML struct {
	ID    int         `xml:"w:abstractNumId,attr"`
	Level numLevelXML `xml:"w:lvl"`
}

type numLevelXML struct {
	ILvl    int         `xml:"w:ilvl,attr"`
	Start   valXML      `xml:"w:start"`
	Format  valXML      `xml:"w:numFmt"`
	Text    valXML      `xml:"w:lvlText"`
	Justify valXML      `xml:"w:lvlJc"`
	Props   levelPPrXML `xml:"w:pPr"`
}

type levelPPrXML struct {
	Indent indentXML `xml:"w:ind"`
}

type indentXML struct {
	Left    int `xml:"w:left,attr"`
	Hanging int `xml:"w:hanging,attr"`
}

type numXML struct {
	ID       int               `xml:"w:numId,attr"`
	Abstract valXML            `xml:"w:abstractNumId"`
	Override *levelOverrideXML `xml:"w:lvlOverride,omitempty"`
}

type levelOverrideXML struct {
	ILvl  int    `xml:"w:ilvl,attr"`
	Start valXML `xml:"w:startOverride"`
}

// corePropsXML is docProps/core.xml
type corePropsXML struct {
	XMLName xml.Name `xml:"cp:coreProperties"`
	CP      string   `xml:"xmlns:cp,attr"`
	DC      string   `xml:"xmlns:dc,attr"`
	Title   string   `xml:"dc:title"`
	Creator string   `xml:"dc:creator"`
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>
</Relationships>`

// DOCX writes the document as a WordprocessingML package.
func DOCX(w io.Writer, doc *model.Document, opts Options) error {
	opts = opts.withDefaults()
	body, numbering := docxBody(doc)

	parts := []struct {
		name string
		data func() ([]byte, error)
	}{
		{"[Content_Types].xml", static(contentTypesXML)},
		{"_rels/.rels", static(packageRelsXML)},
		{"word/_rels/document.xml.rels", static(documentRelsXML)},
		{"word/styles.xml", static(stylesXML())},
		{"word/numbering.xml", marshal(numbering)},
		{"word/document.xml", marshal(documentXML{W: nsW, R: nsR, Body: body})},
		{"docProps/core.xml", marshal(corePropsXML{CP: nsCP, DC: nsDC, Title: doc.Title, Creator: opts.GeneratedBy})},
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		data, err := p.data()
		if err != nil {
			return fmt.Errorf("docx %s: %w", p.name, err)
		}
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("docx %s: %w", p.name, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("docx %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

func static(s string) func() ([]byte, error) {
	return func() ([]byte, error) { return []byte(s), nil }
}

func marshal(v any) func() ([]byte, error) {
	return func() ([]byte, error) {
		data, err := xml.Marshal(v)
		if err != nil {
			return nil, err
		}
		return append([]byte(xml.Header), data...), nil
	}
}

// docxBody converts the elements. Each ordered list gets its own numbering
// instance so numbering restarts at 1 for every list.
func docxBody(doc *model.Document) (bodyXML, numberingXML) {
	var body bodyXML
	numbering := numberingXML{
		W: nsW,
		Abstract: []abstractNumXML{
			abstractLevel(abstractBullet, "bullet", "•"),
			abstractLevel(abstractDecimal, "decimal", "%1."),
			abstractLevel(abstractLetter, "lowerLetter", "%1)"),
		},
		Nums: []numXML{{ID: numBullet, Abstract: valXML{Val: strconv.Itoa(abstractBullet)}}},
	}

	if doc.Title != "" {
		body.Content = append(body.Content, styledParagraph("Title", doc.Title))
	}

	for _, s := range sections(doc) {
		if s.Failure != nil {
			p := styledParagraph("Notice", FailureNotice(*s.Failure))
			p.Runs[0].Properties = &runPropsXML{Italic: &struct{}{}}
			body.Content = append(body.Content, p)
			continue
		}
		listID, numID := -1, 0
		for _, e := range s.Page.Elements {
			switch e.Kind {
			case model.ElementHeading:
				body.Content = append(body.Content, styledParagraph("Heading"+strconv.Itoa(headingLevel(e.Level)), oneLine(e.HeadingText())))
			case model.ElementListItem:
				if e.ListID != listID {
					listID = e.ListID
					numID = numBullet
					if e.Marker.IsOrdered() {
						numID = len(numbering.Nums) + 1
						numbering.Nums = append(numbering.Nums, orderedNum(numID, e))
					}
				}
				body.Content = append(body.Content, listParagraph(e, numID))
			case model.ElementTableReference:
				if t, ok := doc.Table(e.TableID); ok {
					body.Content = append(body.Content, docxTable(t), &paragraphXML{})
				}
			default:
				if text := oneLine(e.Text); text != "" {
					body.Content = append(body.Content, styledParagraph("", text))
				}
			}
		}
	}
	return body, numbering
}

func abstractLevel(id int, format, text string) abstractNumXML {
	return abstractNumXML{
		ID: id,
		Level: numLevelXML{
			Start:   valXML{Val: "1"},
			Format:  valXML{Val: format},
			Text:    valXML{Val: text},
			Justify: valXML{Val: "left"},
			Props:   levelPPrXML{Indent: indentXML{Left: 720, Hanging: 360}},
		},
	}
}

func orderedNum(id int, e model.LayoutElement) numXML {
	abstract := abstractDecimal
	if e.Marker == model.MarkerLetter {
		abstract = abstractLetter
	}
	return numXML{
		ID:       id,
		Abstract: valXML{Val: strconv.Itoa(abstract)},
		Override: &levelOverrideXML{Start: valXML{Val: "1"}},
	}
}

func styledParagraph(style, text string) *paragraphXML {
	p := &paragraphXML{Runs: []runXML{textRun(text)}}
	if style != "" {
		p.Properties = &paragraphPropsXML{Style: &valXML{Val: style}}
	}
	return p
}

func listParagraph(e model.LayoutElement, numID int) *paragraphXML {
	style := "ListBullet"
	if e.Marker.IsOrdered() {
		style = "ListNumber"
	}
	return &paragraphXML{
		Properties: &paragraphPropsXML{
			Style: &valXML{Val: style},
			NumPr: &numberingPropsXML{ILvl: valXML{Val: "0"}, NumID: valXML{Val: strconv.Itoa(numID)}},
		},
		Runs: []runXML{textRun(oneLine(e.Text))},
	}
}

func textRun(text string) runXML {
	t := textXML{Value: text}
	if strings.TrimSpace(text) != text {
		t.Space = "preserve"
	}
	return runXML{Text: t}
}

// docxTable renders a table with a bold header row. Columns share a
// 9000 twip text width.
func docxTable(t model.TableCandidate) *tableXML {
	cols := t.ColCount()
	colWidth := 9000 / max(cols, 1)
	tbl := &tableXML{
		Properties: tablePropsXML{
			Style: valXML{Val: "TableGrid"},
			Width: widthXML{W: 0, Type: "auto"},
		},
	}
	for j := 0; j < cols; j++ {
		tbl.Grid.Cols = append(tbl.Grid.Cols, gridColXML{W: colWidth})
	}
	for i, row := range t.Rows {
		r := tableRowXML{}
		for j := 0; j < cols; j++ {
			text := ""
			if j < len(row) {
				text = row[j]
			}
			run := textRun(text)
			if i == 0 {
				run.Properties = &runPropsXML{Bold: &struct{}{}}
			}
			r.Cells = append(r.Cells, tableCellXML{
				Properties: tableCellPropsXML{Width: widthXML{W: colWidth, Type: "dxa"}},
				Paragraphs: []paragraphXML{{Runs: []runXML{run}}},
			})
		}
		tbl.Rows = append(tbl.Rows, r)
	}
	return tbl
}

// stylesXML declares the paragraph styles used by the exporter
func stylesXML() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<w:styles xmlns:w="` + nsW + `">`)
	sb.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>`)
	sb.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:pPr><w:spacing w:after="160"/></w:pPr></w:style>`)
	sb.WriteString(`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="48"/></w:rPr></w:style>`)
	sizes := []int{36, 32, 28, 26, 24, 22}
	for i, sz := range sizes {
		level := strconv.Itoa(i + 1)
		fmt.Fprintf(&sb, `<w:style w:type="paragraph" w:styleId="Heading%s"><w:name w:val="heading %s"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:outlineLvl w:val="%d"/></w:pPr><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr></w:style>`, level, level, i, sz)
	}
	sb.WriteString(`<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/></w:style>`)
	sb.WriteString(`<w:style w:type="paragraph" w:styleId="ListNumber"><w:name w:val="List Number"/><w:basedOn w:val="Normal"/></w:style>`)
	sb.WriteString(`<w:style w:type="paragraph" w:styleId="Notice"><w:name w:val="Notice"/><w:basedOn w:val="Normal"/><w:rPr><w:color w:val="C00000"/></w:rPr></w:style>`)
	sb.WriteString(`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:tblPr><w:tblBorders>`)
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(&sb, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="auto"/>`, edge)
	}
	sb.WriteString(`</w:tblBorders></w:tblPr></w:style>`)
	sb.WriteString(`</w:styles>`)
	return sb.String()
}
