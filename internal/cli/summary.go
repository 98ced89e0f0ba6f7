package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tsawler/msocr"
	"github.com/tsawler/msocr/model"
)

// styles of the run summary
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Width(14)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

func outcomeStyle(o model.Outcome) lipgloss.Style {
	switch o {
	case model.OutcomeSuccess:
		return successStyle
	case model.OutcomePartialSuccess:
		return warningStyle
	default:
		return errorStyle
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintln(w, "  "+labelStyle.Render(label)+value)
}

// writeSummary prints the result of one document
func writeSummary(w io.Writer, doc *model.Document, paths []string) {
	m := doc.Metrics
	fmt.Fprintln(w, titleStyle.Render(filepath.Base(doc.Source)))
	row(w, "title", doc.Title)
	row(w, "outcome", outcomeStyle(doc.Outcome).Render(doc.Outcome.String()))
	row(w, "pages", fmt.Sprintf("%d processed (%d native, %d OCR), %d failed",
		len(doc.Pages), m.PagesNative, m.PagesOCR, m.PagesFailed))
	if len(m.Languages) > 0 {
		row(w, "languages", strings.Join(m.Languages, "+"))
	}
	row(w, "tables", fmt.Sprintf("%d", m.TotalTables))
	if m.AvgOCRConfidence != nil {
		row(w, "confidence", fmt.Sprintf("%.1f", *m.AvgOCRConfidence))
	}
	row(w, "corrections", fmt.Sprintf("%d", m.TotalWordsCorrected))
	row(w, "time", m.WallTime.Round(time.Millisecond).String())
	for _, p := range paths {
		row(w, "wrote", mutedStyle.Render(p))
	}

	if doc.Outcome == model.OutcomePartialSuccess {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("  warning: %d of %d selected pages failed",
			len(doc.Failures), len(doc.Failures)+len(doc.Pages))))
	}
	for _, f := range doc.Failures {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  page %d: %s: %s", f.PageIndex+1, f.Stage, f.Reason)))
	}
	fmt.Fprintln(w)
}

func writeDocumentError(w io.Writer, path string, err error) {
	fmt.Fprintln(w, titleStyle.Render(filepath.Base(path)))
	fmt.Fprintln(w, errorStyle.Render("  error: "+err.Error()))
	fmt.Fprintln(w)
}

func writeBatchTotals(w io.Writer, results []msocr.BatchResult) {
	counts := map[model.Outcome]int{}
	errored := 0
	for _, r := range results {
		if r.Err != nil || r.Document == nil {
			errored++
			continue
		}
		counts[r.Document.Outcome]++
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d documents", len(results))))
	row(w, "success", successStyle.Render(fmt.Sprintf("%d", counts[model.OutcomeSuccess])))
	row(w, "partial", warningStyle.Render(fmt.Sprintf("%d", counts[model.OutcomePartialSuccess])))
	row(w, "failed", errorStyle.Render(fmt.Sprintf("%d", counts[model.OutcomeFailed]+errored)))
}
