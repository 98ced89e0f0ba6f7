// Package text assembles positioned glyphs and recognized words into lines
// and blocks in reading order.
//
// The native text layer of a PDF usually yields one glyph per character.
// [WordsFromGlyphs] merges glyphs into words using the horizontal gap
// between them. [BuildBlocks] then groups words of either origin (native
// or OCR) into lines on vertical proximity and lines into blocks on
// vertical spacing and font size changes.
//
// All coordinates are page points with a top-left origin.
package text
