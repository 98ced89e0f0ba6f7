package pipeline

import (
	"errors"
	"fmt"

	"github.com/tsawler/msocr/model"
)

// ErrNoPages is matched by a FatalError when there is nothing to process
var ErrNoPages = errors.New("no pages to process")

// FatalError aborts a run before any page is processed: missing or
// unreadable input, invalid configuration, empty page selection.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err is, or wraps, a FatalError
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// PageError is the failure of a single page. It never stops the run.
type PageError struct {
	Page  int
	Stage model.Stage
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page+1, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Failure converts the error into a failure report entry
func (e *PageError) Failure() model.PageFailure {
	reason := "unknown error"
	if e.Err != nil {
		reason = e.Err.Error()
	}
	return model.PageFailure{PageIndex: e.Page, Stage: e.Stage, Reason: reason}
}
