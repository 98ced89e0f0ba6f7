// Package config holds the recognized configuration options of a conversion
// run, their documented defaults, YAML loading and validation.
//
// Values are layered: [Default] first, then an optional YAML file read by
// [Load], then command-line flags applied by the caller. [Config.Validate]
// must pass before a run starts; a validation error is fatal for the run.
//
// # Defaults
//
//	languages:           [spa, eng]
//	dpi:                 300
//	deskew/denoise/contrast/binarize: true
//	min_confidence:      0       (OCR words below it are dropped)
//	pages:               ""      (every page)
//	workers:             1       (sequential)
//	iou_threshold:       0.5     (table dedup)
//	heading_level_cap:   6
//	native_threshold:    0.05    (see below)
//	ocr_timeout:         2m
//	table_min_quality:   0.5
//	header_band:         0.1     (fraction of page height)
//	header_min_repeats:  2       (other pages)
//	exports:             [md, json]
//
// # Native threshold
//
// A page is read from its native text layer when the fraction of the page
// area covered by native glyphs is at least native_threshold, otherwise it
// is rasterised and recognized. Scanned pages have a ratio of 0 and body
// text at 10-12pt on a letter page covers roughly 0.15 to 0.35. With the
// 0.05 default a scan that carries a small native label, such as a stamped
// page number or a few lines of invisible text, still goes to recognition. Raise it for mixed documents whose
// scans carry longer native captions.
package config
