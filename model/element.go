package model

// ElementKind identifies the variant held by a LayoutElement
type ElementKind int

const (
	ElementParagraph ElementKind = iota
	ElementHeading
	ElementListItem
	ElementTableReference
)

func (k ElementKind) String() string {
	switch k {
	case ElementHeading:
		return "heading"
	case ElementListItem:
		return "list_item"
	case ElementTableReference:
		return "table"
	default:
		return "paragraph"
	}
}

// MarkerKind is the marker style of a list item.
type MarkerKind int

const (
	MarkerNone MarkerKind = iota
	MarkerBullet
	MarkerNumber
	MarkerLetter
)

func (m MarkerKind) String() string {
	switch m {
	case MarkerBullet:
		return "bullet"
	case MarkerNumber:
		return "number"
	case MarkerLetter:
		return "letter"
	default:
		return "none"
	}
}

// IsOrdered reports whether items with this marker carry an ordinal
func (m MarkerKind) IsOrdered() bool {
	return m == MarkerNumber || m == MarkerLetter
}

// LayoutElement is one structural element of a page. Kind selects which of
// the optional fields are meaningful:
//
//   - ElementHeading: Level, SectionNumber
//   - ElementListItem: Marker, Ordinal, ListID
//   - ElementTableReference: TableID
type LayoutElement struct {
	Kind ElementKind
	// Text is the element content without any list marker or section number
	Text string

	Level         int
	SectionNumber string

	Marker MarkerKind
	// Ordinal is the item's ordinal as written, e.g. "3" or "b"
	Ordinal string
	// ListID groups consecutive items of the same marker kind
	ListID int

	TableID string

	// Blocks are the text blocks the element was built from
	Blocks []TextBlock
}

// BBox returns the union of the element's source blocks
func (e LayoutElement) BBox() BBox {
	var b BBox
	for _, blk := range e.Blocks {
		b = b.Union(blk.BBox)
	}
	return b
}

// HeadingText returns the heading text prefixed with its section number
func (e LayoutElement) HeadingText() string {
	if e.SectionNumber == "" {
		return e.Text
	}
	return e.SectionNumber + " " + e.Text
}
