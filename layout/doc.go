// Package layout labels the text blocks of a page with their structural role.
//
// The [Classifier] walks a page's blocks in reading order and turns each one
// into a [model.LayoutElement]. Rules are tried in priority order:
//
//   - header/footer suppression, using a [RepeatIndex] built over every page
//     of the document before classification starts
//   - numbered section headings such as "2.3 Objetivos"
//   - list items (bullets, "1." / "1)" numbering, "a)" lettering)
//   - short unpunctuated lines that introduce body text
//   - paragraphs, the fallback
//
// The repeat index is passed in explicitly so that classification of one page
// never depends on the order in which other pages finished extraction:
//
//	idx := layout.BuildRepeatIndex(pages, layout.DefaultRepeatConfig())
//	elems := layout.NewClassifier(layout.DefaultConfig()).Classify(page, idx)
//	elems = layout.AttachTables(elems, page.Tables)
package layout
