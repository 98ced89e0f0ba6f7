package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Tesseract data packs whose names are not plain ISO 639 codes
var tesseractSpecial = map[string]bool{
	"osd": true,
	"equ": true,
}

// NormalizeLanguage converts an ISO 639-1 or ISO 639-2 code into the
// Tesseract traineddata name. Script and variant suffixes such as "_old"
// are kept.
func NormalizeLanguage(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	if tesseractSpecial[code] {
		return code, nil
	}

	base, suffix, _ := strings.Cut(code, "_")
	b, err := language.ParseBase(base)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	iso3 := b.ISO3()
	if iso3 == "" || iso3 == "und" {
		return "", fmt.Errorf("invalid language code %q", code)
	}
	if suffix != "" {
		return iso3 + "_" + suffix, nil
	}
	return iso3, nil
}

// NormalizeLanguages normalises every code and removes duplicates, keeping
// the first occurrence.
func NormalizeLanguages(codes []string) ([]string, error) {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n, err := NormalizeLanguage(c)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// TesseractLanguageString joins languages the way Tesseract expects them,
// for example "spa+eng".
func TesseractLanguageString(langs []string) string {
	return strings.Join(langs, "+")
}
