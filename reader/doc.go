// Package reader opens PDF files and exposes, per page, the native text
// layer with its geometry and a raster image for recognition.
//
// The native layer (glyphs, font sizes, ruling rectangles, MediaBox) is read
// with github.com/ledongthuc/pdf. Scanned pages carry their content as an
// embedded image; [Document.Raster] extracts the largest image on the page
// with github.com/pdfcpu/pdfcpu and resamples it to the requested DPI.
//
//	doc, err := reader.Open("scan.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	page, err := doc.NativePage(0)
//	img, err := doc.Raster(ctx, 0, 300)
//
// Both libraries panic on some malformed content streams. Every exported
// method recovers such panics and returns them as errors.
package reader
