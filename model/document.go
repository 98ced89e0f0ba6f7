package model

// Outcome is the document-level result of a run.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePartialSuccess
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartialSuccess:
		return "partial_success"
	default:
		return "failed"
	}
}

// PageFailure is one entry of a document's failure report
type PageFailure struct {
	PageIndex int
	Stage     Stage
	Reason    string
}

// Document is the structured result of converting one PDF.
type Document struct {
	RunID  string
	Source string
	// Title is taken from the first heading, falling back to the file name
	Title string
	// Languages are the configured recognition languages
	Languages []string
	// DetectedLanguages are identified from the extracted text, most
	// likely first
	DetectedLanguages []string
	Exports           []string
	// TotalPages is the page count of the source, selected or not
	TotalPages int
	// Pages holds the successfully processed pages in index order
	Pages    []*Page
	Failures []PageFailure
	Outcome  Outcome
	Metrics  DocumentMetrics
}

// Tables returns every table of the document in page order
func (d *Document) Tables() []TableCandidate {
	var out []TableCandidate
	for _, p := range d.Pages {
		out = append(out, p.Tables...)
	}
	return out
}

// Table looks a table up by its identifier
func (d *Document) Table(id string) (TableCandidate, bool) {
	for _, p := range d.Pages {
		for _, t := range p.Tables {
			if t.ID == id {
				return t, true
			}
		}
	}
	return TableCandidate{}, false
}

// FailureFor returns the failure entry for a page index, if any
func (d *Document) FailureFor(index int) (PageFailure, bool) {
	for _, f := range d.Failures {
		if f.PageIndex == index {
			return f, true
		}
	}
	return PageFailure{}, false
}
