package tables

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/msocr/model"
)

// Strategy is one table extraction method in the fallback chain
type Strategy interface {
	// Name returns the strategy name, recorded as the candidate method
	Name() string

	// Attempt returns the candidates found on the page
	Attempt(ctx context.Context, page *model.Page) ([]model.TableCandidate, error)
}

// Config holds extraction configuration
type Config struct {
	// Minimum rows for a valid table
	MinRows int

	// Minimum columns for a valid table
	MinCols int

	// Minimum quality score (0-1)
	MinQuality float64

	// Candidates with IoU above this collapse into one
	IOUThreshold float64

	// Tolerance for row/column alignment (points)
	AlignmentTolerance float64

	// Shortest native ruling treated as a table line (points)
	MinLineLength float64

	// Shortest bitmap run treated as a table line (points)
	MinRasterLine float64

	// Gap between words, relative to line height, that separates columns
	ColumnGapRatio float64

	// Gap between lines, relative to line height, that ends a stream region
	MaxRowGapRatio float64

	// Average words per filled cell above which a region reads as prose
	MaxCellWords float64
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		MinQuality:         0.5,
		IOUThreshold:       0.5,
		AlignmentTolerance: 2.0,
		MinLineLength:      10.0,
		MinRasterLine:      36.0,
		ColumnGapRatio:     1.2,
		MaxRowGapRatio:     2.5,
		MaxCellWords:       6,
	}
}

// ErrNoTables is matched by a ChainError: no strategy produced a table
var ErrNoTables = errors.New("no tables extracted")

// StrategyError is a failure of a single strategy
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("table strategy %s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// ChainError reports that no strategy produced a table and at least one of
// them failed.
type ChainError struct {
	Page     int
	Failures []*StrategyError
}

func (e *ChainError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Strategy
	}
	return fmt.Sprintf("page %d: every table strategy failed (%s)", e.Page, strings.Join(names, ", "))
}

func (e *ChainError) Unwrap() error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrNoTables)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Result is the outcome of running the chain on one page
type Result struct {
	Tables []model.TableCandidate
	// Method is the strategy whose candidates were accepted
	Method string
	// Attempted lists the strategies tried, in order
	Attempted []string
	// Failures holds the strategies that returned an error
	Failures []*StrategyError
	// Dropped counts candidates removed by cleaning or deduplication
	Dropped int
}

// Extractor runs the strategy chain
type Extractor struct {
	config     Config
	strategies []Strategy
}

// NewExtractor creates an extractor. With no strategies it uses the default
// chain: lattice, stream, raster.
func NewExtractor(config Config, strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = []Strategy{NewLattice(config), NewStream(config), NewRaster(config)}
	}
	return &Extractor{config: config, strategies: strategies}
}

// Strategies returns the chain names in priority order
func (e *Extractor) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract tries each strategy in order until one yields a non-empty
// candidate. The accepted candidates are cleaned, deduplicated and given
// page-scoped IDs.
func (e *Extractor) Extract(ctx context.Context, page *model.Page) (Result, error) {
	var res Result
	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempted = append(res.Attempted, s.Name())

		cands, err := attempt(ctx, s, page)
		if err != nil {
			res.Failures = append(res.Failures, &StrategyError{Strategy: s.Name(), Err: err})
			continue
		}

		kept := make([]model.TableCandidate, 0, len(cands))
		for _, c := range cands {
			c.PageIndex = page.Index
			if c.Method == "" {
				c.Method = s.Name()
			}
			if Clean(&c, e.config) {
				kept = append(kept, c)
			}
		}
		res.Dropped += len(cands) - len(kept)
		if len(kept) == 0 {
			continue
		}

		deduped := Dedup(kept, e.config.IOUThreshold)
		res.Dropped += len(kept) - len(deduped)
		for i := range deduped {
			deduped[i].ID = model.TableID(page.Index, i)
		}
		res.Tables = deduped
		res.Method = s.Name()
		return res, nil
	}

	if len(res.Failures) > 0 && len(res.Failures) == len(res.Attempted) {
		return res, &ChainError{Page: page.Index, Failures: res.Failures}
	}
	return res, nil
}

// attempt calls the strategy, turning a panic into an error
func attempt(ctx context.Context, s Strategy, page *model.Page) (cands []model.TableCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Attempt(ctx, page)
}
