package export

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/tsawler/msocr/model"
)

// MetricsReport is the JSON form of a document's metrics. Durations are in
// seconds and page numbers are 1-based.
type MetricsReport struct {
	RunID               string             `json:"run_id"`
	SourceFile          string             `json:"source_file"`
	Outcome             string             `json:"outcome"`
	Languages           []string           `json:"languages"`
	TotalPages          int                `json:"total_pages"`
	PagesNative         int                `json:"pages_native"`
	PagesOCR            int                `json:"pages_ocr"`
	PagesFailed         int                `json:"pages_failed"`
	AvgOCRConfidence    *float64           `json:"avg_ocr_confidence"`
	TotalWordsCorrected int                `json:"total_words_corrected"`
	TotalLowConfidence  int                `json:"total_low_confidence_words"`
	TotalTables         int                `json:"total_tables"`
	TableFailures       int                `json:"table_failures"`
	StageTotals         map[string]float64 `json:"stage_totals"`
	TotalTime           float64            `json:"total_time"`
	WallTime            float64            `json:"wall_time"`
	Failures            []FailureReport    `json:"failures"`
	Pages               []PageReport       `json:"page_metrics"`
}

// FailureReport is one failed page
type FailureReport struct {
	Page   int    `json:"page"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// PageReport holds one page's metrics
type PageReport struct {
	Page               int                `json:"page"`
	NativeTextRatio    float64            `json:"native_text_ratio"`
	OCRConfidence      *float64           `json:"ocr_confidence"`
	WordsCorrected     int                `json:"words_corrected"`
	LowConfidenceWords int                `json:"low_confidence_words"`
	TablesDetected     int                `json:"tables_detected"`
	TableFailures      int                `json:"table_failures"`
	Preprocessing      []string           `json:"preprocessing,omitempty"`
	SkewAngle          float64            `json:"skew_angle,omitempty"`
	StageFailures      []string           `json:"stage_failures,omitempty"`
	ProcessingTime     float64            `json:"processing_time"`
	Stages             map[string]float64 `json:"stages"`
}

// NewMetricsReport converts the document metrics
func NewMetricsReport(doc *model.Document) MetricsReport {
	m := doc.Metrics
	r := MetricsReport{
		RunID:               doc.RunID,
		SourceFile:          m.SourceFile,
		Outcome:             doc.Outcome.String(),
		Languages:           append([]string{}, m.Languages...),
		TotalPages:          m.TotalPages,
		PagesNative:         m.PagesNative,
		PagesOCR:            m.PagesOCR,
		PagesFailed:         m.PagesFailed,
		AvgOCRConfidence:    m.AvgOCRConfidence,
		TotalWordsCorrected: m.TotalWordsCorrected,
		TotalLowConfidence:  m.TotalLowConfidence,
		TotalTables:         m.TotalTables,
		TableFailures:       m.TableFailures,
		StageTotals:         seconds(m.StageTotals),
		TotalTime:           m.TotalTime.Seconds(),
		WallTime:            m.WallTime.Seconds(),
		Failures:            []FailureReport{},
		Pages:               make([]PageReport, 0, len(m.Pages)),
	}
	for _, f := range doc.Failures {
		r.Failures = append(r.Failures, FailureReport{Page: f.PageIndex + 1, Stage: string(f.Stage), Reason: f.Reason})
	}
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].Page < r.Failures[j].Page })

	for _, pm := range m.Pages {
		r.Pages = append(r.Pages, PageReport{
			Page:               pm.PageIndex + 1,
			NativeTextRatio:    pm.NativeTextRatio,
			OCRConfidence:      pm.OCRConfidence,
			WordsCorrected:     pm.WordsCorrected,
			LowConfidenceWords: pm.LowConfidenceWords,
			TablesDetected:     pm.TablesDetected,
			TableFailures:      pm.TableFailures,
			Preprocessing:      pm.Preprocessing,
			SkewAngle:          pm.SkewAngle,
			StageFailures:      pm.StageFailures,
			ProcessingTime:     pm.ProcessingTime.Seconds(),
			Stages:             seconds(pm.StageDurations),
		})
	}
	return r
}

func seconds(m map[model.Stage]time.Duration) map[string]float64 {
	out := make(map[string]float64, len(m))
	for stage, d := range m {
		out[string(stage)] = d.Seconds()
	}
	return out
}

// MetricsJSON writes the metrics report as indented JSON
func MetricsJSON(w io.Writer, doc *model.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewMetricsReport(doc))
}
