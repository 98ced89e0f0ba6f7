package model

import "time"

// PageMetrics holds the statistics gathered for one page.
type PageMetrics struct {
	PageIndex       int
	NativeTextRatio float64
	// OCRConfidence is the mean confidence of recognized words, nil when the page
	// did not go through recognition
	OCRConfidence      *float64
	WordsCorrected     int
	LowConfidenceWords int
	TablesDetected     int
	// TableFailures counts table strategies that returned an error
	TableFailures int
	// Preprocessing lists the image stages applied, in order
	Preprocessing []string
	// SkewAngle is the rotation applied by deskew, in degrees
	SkewAngle      float64
	StageDurations map[Stage]time.Duration
	// StageFailures lists recoverable failures such as a skipped
	// preprocessing stage or an exhausted table chain
	StageFailures  []string
	ProcessingTime time.Duration
}

// NewPageMetrics returns empty metrics for a page
func NewPageMetrics(index int) PageMetrics {
	return PageMetrics{
		PageIndex:      index,
		StageDurations: make(map[Stage]time.Duration),
	}
}

// AddDuration accumulates time spent in a stage
func (m *PageMetrics) AddDuration(stage Stage, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if m.StageDurations == nil {
		m.StageDurations = make(map[Stage]time.Duration)
	}
	m.StageDurations[stage] += d
	m.ProcessingTime += d
}

// RecordFailure notes a recoverable stage failure
func (m *PageMetrics) RecordFailure(msg string) {
	m.StageFailures = append(m.StageFailures, msg)
}

// DocumentMetrics is the rollup of every processed page.
type DocumentMetrics struct {
	SourceFile          string
	Languages           []string
	TotalPages          int
	PagesNative         int
	PagesOCR            int
	PagesFailed         int
	AvgOCRConfidence    *float64
	TotalWordsCorrected int
	TotalLowConfidence  int
	TotalTables         int
	TableFailures       int
	StageTotals         map[Stage]time.Duration
	// TotalTime is the sum of every page's stage durations
	TotalTime time.Duration
	// WallTime is the elapsed time of the whole run
	WallTime time.Duration
	Pages    []PageMetrics
}
