// Package langid identifies the languages a document is written in from
// its extracted text. Codes are returned the way Tesseract names its
// language data ("spa", "eng").
package langid

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

const (
	// Fallback is reported when the text is too short to analyse or no
	// language reaches MinConfidence
	Fallback = "spa"

	// TopN bounds the number of languages reported
	TopN = 2

	// MinConfidence is the confidence a language must exceed to be reported
	MinConfidence = 0.1

	// MinTextLength is the shortest trimmed text that is analysed
	MinTextLength = 10
)

// Supported lists the languages the default detector chooses between.
var Supported = []lingua.Language{
	lingua.Spanish,
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Catalan,
	lingua.Basque,
}

// Detector reports the languages of a text, most likely first. It never
// returns an empty slice.
type Detector interface {
	Detect(text string) []string
}

// Lingua is a Detector backed by lingua-go's n-gram models.
type Lingua struct {
	detector lingua.LanguageDetector
}

var defaultDetector = sync.OnceValue(func() *Lingua {
	return New(Supported...)
})

// Default returns a shared detector for the Supported languages. The
// models are loaded on first use.
func Default() *Lingua {
	return defaultDetector()
}

// New builds a detector restricted to langs. Fewer than two languages
// selects Supported.
func New(langs ...lingua.Language) *Lingua {
	if len(langs) < 2 {
		langs = Supported
	}
	return &Lingua{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build(),
	}
}

// Detect returns up to TopN languages whose confidence exceeds
// MinConfidence, or Fallback alone.
func (l *Lingua) Detect(text string) []string {
	if len([]rune(strings.TrimSpace(text))) < MinTextLength {
		return []string{Fallback}
	}

	var out []string
	for _, cv := range l.detector.ComputeLanguageConfidenceValues(text) {
		if len(out) == TopN {
			break
		}
		if cv.Value() > MinConfidence {
			out = append(out, Code(cv.Language()))
		}
	}
	if len(out) == 0 {
		return []string{Fallback}
	}
	return out
}

// Code returns the Tesseract language code for l
func Code(l lingua.Language) string {
	return strings.ToLower(l.IsoCode639_3().String())
}
