package usecase

import (
	"errors"
	"fmt"

	"github.com/user/profile-extractor/internal/entity"
)

// ErrNoContent is returned when a crawl produced no usable page.
var ErrNoContent = errors.New("no content could be crawled from the website")

// ParseError means no JSON object could be recovered from an extraction
// response.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse extraction response: %s: %v", e.Reason, e.Err)
	}
	return "parse extraction response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// RunError is returned by the orchestrator for a run that ended in the
// error phase. Phase is the phase that failed.
type RunError struct {
	RunID        string
	Phase        entity.Phase
	PagesCrawled int
	Err          error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("analysis run %s failed during %s after %d pages: %v", e.RunID, e.Phase, e.PagesCrawled, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
