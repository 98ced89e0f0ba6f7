// Package pipeline drives every page of a document through extraction,
// layout analysis, table extraction and post-processing.
//
// A run has two passes separated by a barrier. The first pass classifies
// each selected page and extracts its words, from the native text layer or
// through OCR. Once every page has been extracted the repeated
// header/footer index is built from all of them, and the second pass
// classifies layout, extracts tables and post-processes each page. Both
// passes share the same bounded worker pool.
//
// A page that fails is isolated: it moves to the Failed state, is left out
// of the document's pages and is listed in its failure report. Only
// pre-flight problems, such as an invalid configuration or an empty page
// selection, abort a run.
package pipeline
