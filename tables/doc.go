// Package tables detects and extracts tabular regions from processed pages.
//
// Extraction runs an ordered chain of independent [Strategy] values. The
// first strategy that yields at least one non-empty candidate wins for the
// page; later strategies are not consulted and results are never merged
// across strategies.
//
// # Strategies
//
//   - [Lattice] builds cell grids from ruling lines in the native layer
//   - [Stream] infers columns from whitespace between aligned words
//   - [Raster] finds ruling lines in the page bitmap of scanned pages
//
// # Usage
//
//	ex := tables.NewExtractor(tables.DefaultConfig())
//	res, err := ex.Extract(ctx, page)
//
// A failing strategy is recorded in the result and the chain moves on. When
// every strategy fails the error is a [*ChainError]; the page still
// proceeds, just without tables.
//
// # Quality
//
// Candidates carry a quality score in [0,1] built from four factors:
//
//   - Grid regularity (30%)
//   - Alignment of content to cell boundaries (30%)
//   - Presence of ruling lines (20%)
//   - Cell occupancy (20%)
//
// Candidates below Config.MinQuality, or smaller than MinRows x MinCols
// after empty rows and columns are dropped, are discarded. Surviving
// candidates whose IoU exceeds Config.IOUThreshold are collapsed onto the
// higher quality one.
package tables
