// Package metrics rolls per-page statistics up into document metrics.
//
// The rollup runs once, after every worker has finished, so it needs no
// synchronization.
package metrics

import (
	"sort"
	"time"

	"github.com/tsawler/msocr/model"
)

// Aggregate builds the document metrics from the processed pages. pages
// holds every page that entered the pipeline, failed ones included; the
// classification counts cover every page that got far enough to be
// classified. The average OCR confidence is taken over pages that went
// through recognition and is nil when there are none.
func Aggregate(source string, languages []string, pages []*model.Page, failures []model.PageFailure) model.DocumentMetrics {
	m := model.DocumentMetrics{
		SourceFile:  source,
		Languages:   append([]string(nil), languages...),
		TotalPages:  len(pages),
		StageTotals: make(map[model.Stage]time.Duration),
		Pages:       make([]model.PageMetrics, 0, len(pages)),
	}

	var confSum float64
	confPages := 0
	for _, p := range pages {
		pm := p.Metrics
		pm.PageIndex = p.Index

		switch p.Classification {
		case model.ClassNative:
			m.PagesNative++
		case model.ClassOCR:
			m.PagesOCR++
		}
		if pm.OCRConfidence != nil {
			confSum += *pm.OCRConfidence
			confPages++
		}

		m.TotalWordsCorrected += nonNegative(pm.WordsCorrected)
		m.TotalLowConfidence += nonNegative(pm.LowConfidenceWords)
		m.TotalTables += nonNegative(pm.TablesDetected)
		m.TableFailures += nonNegative(pm.TableFailures)

		for stage, d := range pm.StageDurations {
			if d > 0 {
				m.StageTotals[stage] += d
				m.TotalTime += d
			}
		}
		m.Pages = append(m.Pages, pm)
	}

	if confPages > 0 {
		avg := model.ClampConfidence(confSum / float64(confPages))
		m.AvgOCRConfidence = &avg
	}

	failed := make(map[int]struct{}, len(failures))
	for _, f := range failures {
		failed[f.PageIndex] = struct{}{}
	}
	m.PagesFailed = len(failed)

	sort.SliceStable(m.Pages, func(i, j int) bool {
		return m.Pages[i].PageIndex < m.Pages[j].PageIndex
	})
	return m
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
