package reader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/msocr/model"
	"github.com/tsawler/msocr/text"
)

// Letter size, used when a page has no usable MediaBox
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// rulingMax is the thickness below which a rectangle is a drawn line
const rulingMax = 2.0

// NativePage is the native content of one page.
type NativePage struct {
	Index  int
	Width  float64
	Height float64
	Glyphs []text.Glyph
	// Rulings are thin rectangles and the edges of cell-sized boxes
	Rulings []model.BBox
	// Text is the plain text layer as returned by the PDF library
	Text string
}

// Document is an open PDF file. Its methods are safe for concurrent use;
// access to the underlying libraries is serialised.
type Document struct {
	path string

	mu   sync.Mutex
	file *os.File
	pdf  *pdf.Reader

	raster *rasterSource
}

// Open sniffs and opens a PDF for reading.
func Open(path string) (*Document, error) {
	if err := Sniff(path); err != nil {
		return nil, err
	}
	f, r, err := openPDF(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if r.NumPage() == 0 {
		f.Close()
		return nil, fmt.Errorf("open %s: document has no pages", path)
	}
	return &Document{
		path:   path,
		file:   f,
		pdf:    r,
		raster: newRasterSource(path),
	}, nil
}

func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			if f != nil {
				f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("malformed PDF: %v", p)
		}
	}()
	return pdf.Open(path)
}

// Path returns the file the document was opened from
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pdf == nil {
		return 0
	}
	return d.pdf.NumPage()
}

// Close releases the file handles. It is safe to call Close more than once.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var err error
	if d.file != nil {
		err = d.file.Close()
		d.file = nil
		d.pdf = nil
	}
	return errors.Join(err, d.raster.close())
}

// NativePage reads the native text layer of the page at a 0-based index.
func (d *Document) NativePage(index int) (np *NativePage, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pdf == nil {
		return nil, errors.New("document is closed")
	}
	if index < 0 || index >= d.pdf.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1-%d)", index+1, d.pdf.NumPage())
	}

	defer func() {
		if p := recover(); p != nil {
			np, err = nil, fmt.Errorf("page %d: malformed content: %v", index+1, p)
		}
	}()

	page := d.pdf.Page(index + 1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing page object", index+1)
	}

	box := mediaBox(page)
	np = &NativePage{
		Index:  index,
		Width:  box.Width,
		Height: box.Height,
	}

	content := page.Content()
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		// PDF space has a bottom-left origin and Y on the baseline
		top := box.Y + box.Height - (t.Y + 0.8*t.FontSize)
		np.Glyphs = append(np.Glyphs, text.Glyph{
			Text:     t.S,
			X:        t.X - box.X,
			Y:        top,
			Width:    t.W,
			FontSize: t.FontSize,
			Font:     t.Font,
		})
	}
	for _, r := range content.Rect {
		np.Rulings = append(np.Rulings, rulingsFromRect(r, box)...)
	}

	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	if txt, err := page.GetPlainText(fonts); err == nil {
		np.Text = txt
	}
	return np, nil
}

// PageSize returns the width and height of a page in points
func (d *Document) PageSize(index int) (w, h float64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pdf == nil {
		return 0, 0, errors.New("document is closed")
	}
	if index < 0 || index >= d.pdf.NumPage() {
		return 0, 0, fmt.Errorf("page %d out of range (1-%d)", index+1, d.pdf.NumPage())
	}
	defer func() {
		if p := recover(); p != nil {
			w, h, err = 0, 0, fmt.Errorf("page %d: malformed page object: %v", index+1, p)
		}
	}()
	box := mediaBox(d.pdf.Page(index + 1))
	return box.Width, box.Height, nil
}

// mediaBox returns the page box with X and Y holding the lower-left corner
// in PDF space. The box is inherited through the page tree.
func mediaBox(page pdf.Page) model.BBox {
	v := page.V
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		mb := v.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			x0, y0 := mb.Index(0).Float64(), mb.Index(1).Float64()
			x1, y1 := mb.Index(2).Float64(), mb.Index(3).Float64()
			w, h := math.Abs(x1-x0), math.Abs(y1-y0)
			if w > 0 && h > 0 {
				return model.NewBBox(math.Min(x0, x1), math.Min(y0, y1), w, h)
			}
		}
		v = v.Key("Parent")
	}
	return model.NewBBox(0, 0, defaultPageWidth, defaultPageHeight)
}

// rulingsFromRect converts a PDF rectangle into ruling boxes in top-left
// page space. Thin rectangles are lines already; larger ones contribute
// their four edges. Page-sized backgrounds are ignored.
func rulingsFromRect(r pdf.Rect, box model.BBox) []model.BBox {
	x0, x1 := math.Min(r.Min.X, r.Max.X), math.Max(r.Min.X, r.Max.X)
	y0, y1 := math.Min(r.Min.Y, r.Max.Y), math.Max(r.Min.Y, r.Max.Y)
	w, h := x1-x0, y1-y0
	if w*h > 0.9*box.Width*box.Height {
		return nil
	}
	rect := model.NewBBox(x0-box.X, box.Y+box.Height-y1, w, h)
	if w <= rulingMax || h <= rulingMax {
		if w <= 0 && h <= 0 {
			return nil
		}
		return []model.BBox{rect}
	}
	return []model.BBox{
		model.NewBBox(rect.Left(), rect.Top(), rect.Width, 0),
		model.NewBBox(rect.Left(), rect.Bottom(), rect.Width, 0),
		model.NewBBox(rect.Left(), rect.Top(), 0, rect.Height),
		model.NewBBox(rect.Right(), rect.Top(), 0, rect.Height),
	}
}

// Raster returns the page image scaled to dpi. Pages without an embedded
// image return ErrNoRaster.
func (d *Document) Raster(ctx context.Context, index, dpi int) (img RasterImage, err error) {
	if err := ctx.Err(); err != nil {
		return RasterImage{}, err
	}
	width, _, err := d.PageSize(index)
	if err != nil {
		return RasterImage{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			img, err = RasterImage{}, fmt.Errorf("page %d: image extraction failed: %v", index+1, p)
		}
	}()

	src, err := d.raster.largestImage(index + 1)
	if err != nil {
		return RasterImage{}, fmt.Errorf("page %d: %w", index+1, err)
	}
	return RasterImage{Image: resampleToDPI(src, width, dpi), DPI: dpi}, nil
}

// sortedKeys returns map keys in ascending order
func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
