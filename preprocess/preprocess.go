package preprocess

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// Stage names, in execution order
const (
	StageGrayscale = "grayscale"
	StageDenoise   = "denoise"
	StageContrast  = "contrast"
	StageBinarize  = "binarize"
	StageDeskew    = "deskew"
)

// ErrEmptyImage is returned by every stage for a nil or zero-sized bitmap
var ErrEmptyImage = errors.New("empty bitmap")

// Options toggles stages and tunes their parameters.
type Options struct {
	Grayscale bool
	Denoise   bool
	Contrast  bool
	Binarize  bool
	Deskew    bool

	// ClipLimit bounds each CLAHE histogram bin at ClipLimit x the mean bin
	// height. Default: 2.0
	ClipLimit float64

	// TileGrid is the number of CLAHE tiles per axis. Default: 8
	TileGrid int

	// MaxSkew is the largest angle, in degrees, the deskew search tries.
	// Default: 10
	MaxSkew float64

	// SkewTolerance is the angle, in degrees, below which no rotation is
	// applied. Default: 0.5
	SkewTolerance float64
}

// DefaultOptions enables every stage
func DefaultOptions() Options {
	return Options{
		Grayscale:     true,
		Denoise:       true,
		Contrast:      true,
		Binarize:      true,
		Deskew:        true,
		ClipLimit:     2.0,
		TileGrid:      8,
		MaxSkew:       10,
		SkewTolerance: 0.5,
	}
}

// StageError records a stage that failed and was skipped
type StageError struct {
	Stage string
	Err   error
}

func (e StageError) Error() string {
	return fmt.Sprintf("preprocess %s: %v", e.Stage, e.Err)
}

func (e StageError) Unwrap() error { return e.Err }

// Result is the output of a preprocessing run.
type Result struct {
	Image image.Image
	// Applied lists the stages that ran successfully, in order
	Applied  []string
	Failures []StageError
	// SkewAngle is the rotation applied by deskew, in degrees
	SkewAngle float64
	Durations map[string]time.Duration
}

// Preprocessor runs the configured stages.
type Preprocessor struct {
	opts Options
}

// New creates a preprocessor. Zero tuning values take their defaults.
func New(opts Options) *Preprocessor {
	def := DefaultOptions()
	if opts.ClipLimit <= 0 {
		opts.ClipLimit = def.ClipLimit
	}
	if opts.TileGrid <= 0 {
		opts.TileGrid = def.TileGrid
	}
	if opts.MaxSkew <= 0 {
		opts.MaxSkew = def.MaxSkew
	}
	if opts.SkewTolerance <= 0 {
		opts.SkewTolerance = def.SkewTolerance
	}
	return &Preprocessor{opts: opts}
}

type stage struct {
	name    string
	enabled bool
	apply   func(image.Image, *Result) (image.Image, error)
}

func (p *Preprocessor) stages() []stage {
	o := p.opts
	return []stage{
		{StageGrayscale, o.Grayscale, func(img image.Image, _ *Result) (image.Image, error) {
			return Grayscale(img)
		}},
		{StageDenoise, o.Denoise, func(img image.Image, _ *Result) (image.Image, error) {
			return Denoise(img)
		}},
		{StageContrast, o.Contrast, func(img image.Image, _ *Result) (image.Image, error) {
			return CLAHE(img, o.ClipLimit, o.TileGrid)
		}},
		{StageBinarize, o.Binarize, func(img image.Image, _ *Result) (image.Image, error) {
			out, _, err := Binarize(img)
			return out, err
		}},
		{StageDeskew, o.Deskew, func(img image.Image, r *Result) (image.Image, error) {
			out, angle, err := Deskew(img, o.MaxSkew, o.SkewTolerance)
			r.SkewAngle = angle
			return out, err
		}},
	}
}

// Process runs every enabled stage in order. It never fails.
func (p *Preprocessor) Process(img image.Image) Result {
	return run(img, p.stages())
}

func run(img image.Image, stages []stage) Result {
	res := Result{Image: img, Durations: make(map[string]time.Duration)}
	for _, s := range stages {
		if !s.enabled {
			continue
		}
		start := time.Now()
		out, err := safeApply(s, res.Image, &res)
		res.Durations[s.name] = time.Since(start)
		if err != nil {
			res.Failures = append(res.Failures, StageError{Stage: s.name, Err: err})
			continue
		}
		res.Image = out
		res.Applied = append(res.Applied, s.name)
	}
	return res
}

func safeApply(s stage, img image.Image, r *Result) (out image.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	out, err = s.apply(img, r)
	if err == nil && out == nil {
		err = ErrEmptyImage
	}
	return out, err
}
