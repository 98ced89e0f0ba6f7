// Package model provides the intermediate representation shared by every
// stage of the conversion pipeline.
//
// A [Document] owns an ordered list of [Page] values. Each page moves through
// a fixed sequence of states (see [PageState]) and accumulates its content as
// it goes:
//
//   - [Word] - recognized or native words with optional confidence
//   - [TextBlock] - words grouped into a positioned block of lines
//   - [LayoutElement] - headings, list items, paragraphs and table references
//   - [TableCandidate] - detected tables with their rows of cells
//   - [PageMetrics] - per-page statistics and stage timings
//
// # Coordinates
//
// All geometry uses page points (1/72 inch) with the origin at the top-left
// corner of the page and Y growing downwards. Native glyphs and OCR boxes are
// both converted into this space before they reach the model.
//
// # Tables
//
// [TableCandidate.ToMarkdown] renders a candidate as a pipe table. The first
// row is treated as the header row.
package model
