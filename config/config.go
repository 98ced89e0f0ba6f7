package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/tsawler/msocr/ocr"
	"github.com/tsawler/msocr/pages"
)

// Export format names
const (
	ExportMarkdown = "md"
	ExportJSON     = "json"
	ExportDOCX     = "docx"
	ExportHTML     = "html"
	ExportSlides   = "slides"
)

var knownExports = map[string]bool{
	ExportMarkdown: true,
	ExportJSON:     true,
	ExportDOCX:     true,
	ExportHTML:     true,
	ExportSlides:   true,
}

// Config is the full option set of a conversion run.
type Config struct {
	// Languages is the ordered OCR language set. ISO 639-1 codes are
	// accepted and normalised to Tesseract codes.
	Languages []string `yaml:"languages"`
	DPI       int      `yaml:"dpi"`

	Deskew   bool `yaml:"deskew"`
	Denoise  bool `yaml:"denoise"`
	Contrast bool `yaml:"contrast"`
	Binarize bool `yaml:"binarize"`

	// MinConfidence drops recognized words below this confidence (0-100)
	MinConfidence float64 `yaml:"min_confidence"`

	// PageSegMode is the Tesseract page segmentation mode; 0 keeps the
	// engine default
	PageSegMode int `yaml:"page_seg_mode"`

	// Pages is a selection such as "1,3-10"; empty selects every page
	Pages   string `yaml:"pages"`
	Workers int    `yaml:"workers"`

	IOUThreshold    float64 `yaml:"iou_threshold"`
	HeadingLevelCap int     `yaml:"heading_level_cap"`
	NativeThreshold float64 `yaml:"native_threshold"`

	OCRTimeout      time.Duration `yaml:"ocr_timeout"`
	TableMinQuality float64       `yaml:"table_min_quality"`

	HeaderBand       float64 `yaml:"header_band"`
	HeaderMinRepeats int     `yaml:"header_min_repeats"`

	Exports []string `yaml:"exports"`
}

// Default returns the documented default configuration
func Default() Config {
	return Config{
		Languages:        []string{"spa", "eng"},
		DPI:              300,
		Deskew:           true,
		Denoise:          true,
		Contrast:         true,
		Binarize:         true,
		MinConfidence:    0,
		PageSegMode:      int(ocr.PSM_AUTO),
		Workers:          1,
		IOUThreshold:     0.5,
		HeadingLevelCap:  6,
		NativeThreshold:  0.05,
		OCRTimeout:       2 * time.Minute,
		TableMinQuality:  0.5,
		HeaderBand:       0.1,
		HeaderMinRepeats: 2,
		Exports:          []string{ExportMarkdown, ExportJSON},
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Clone returns a deep copy of the configuration
func (c Config) Clone() Config {
	out := c
	out.Languages = append([]string(nil), c.Languages...)
	out.Exports = append([]string(nil), c.Exports...)
	return out
}

// Selection parses the page selection
func (c Config) Selection() (pages.Selection, error) {
	return pages.Parse(c.Pages)
}

// Normalize canonicalises languages and export names in place. It returns
// the first invalid language code it meets.
func (c *Config) Normalize() error {
	langs, err := NormalizeLanguages(c.Languages)
	if err != nil {
		return err
	}
	c.Languages = langs

	seen := make(map[string]bool)
	var exports []string
	for _, e := range c.Exports {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "markdown" {
			e = ExportMarkdown
		}
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		exports = append(exports, e)
	}
	c.Exports = exports
	return nil
}

// Validate normalises the configuration and checks every option. All
// problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Normalize(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Languages) == 0 {
		errs = append(errs, errors.New("at least one language is required"))
	}
	if c.DPI < 50 || c.DPI > 1200 {
		errs = append(errs, fmt.Errorf("dpi %d out of range (50-1200)", c.DPI))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("min_confidence %.1f out of range (0-100)", c.MinConfidence))
	}
	if !ocr.PageSegMode(c.PageSegMode).Valid() {
		errs = append(errs, fmt.Errorf("page_seg_mode %d is not supported (use 1, 3, 4, 6 or 11)", c.PageSegMode))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.IOUThreshold <= 0 || c.IOUThreshold > 1 {
		errs = append(errs, fmt.Errorf("iou_threshold %.2f out of range (0-1]", c.IOUThreshold))
	}
	if c.HeadingLevelCap < 1 || c.HeadingLevelCap > 6 {
		errs = append(errs, fmt.Errorf("heading_level_cap %d out of range (1-6)", c.HeadingLevelCap))
	}
	if c.NativeThreshold < 0 || c.NativeThreshold > 1 {
		errs = append(errs, fmt.Errorf("native_threshold %.3f out of range (0-1)", c.NativeThreshold))
	}
	if c.OCRTimeout < 0 {
		errs = append(errs, fmt.Errorf("ocr_timeout must not be negative"))
	}
	if c.TableMinQuality < 0 || c.TableMinQuality > 1 {
		errs = append(errs, fmt.Errorf("table_min_quality %.2f out of range (0-1)", c.TableMinQuality))
	}
	if c.HeaderBand <= 0 || c.HeaderBand >= 0.5 {
		errs = append(errs, fmt.Errorf("header_band %.2f out of range (0-0.5)", c.HeaderBand))
	}
	if c.HeaderMinRepeats < 1 {
		errs = append(errs, fmt.Errorf("header_min_repeats must be at least 1"))
	}
	if _, err := c.Selection(); err != nil {
		errs = append(errs, err)
	}
	for _, e := range c.Exports {
		if !knownExports[e] {
			errs = append(errs, fmt.Errorf("unknown export format %q", e))
		}
	}
	return errors.Join(errs...)
}

// ParseList splits a comma separated flag value
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
