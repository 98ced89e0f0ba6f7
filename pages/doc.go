// Package pages parses page selections such as "1,3-10" and resolves them
// against a document's page count.
//
// Selections are written with 1-indexed page numbers, the way users count
// pages. [Selection.Resolve] returns sorted, de-duplicated 0-indexed page
// indices ready for scheduling.
//
//	sel, err := pages.Parse("1,3-5,9-")
//	indices, ignored := sel.Resolve(12) // [0 2 3 4 8 9 10 11], []
package pages
