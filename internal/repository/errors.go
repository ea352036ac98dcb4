package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrNavigationFailed  = errors.New("navigation failed")
	ErrExtractionFailed  = errors.New("content extraction failed")
	ErrRedirectBlocked   = errors.New("redirect not followed")

	ErrProfileNotFound = errors.New("profile not found")
)

// FetchError is a single-page failure. The crawl engine logs it and drops
// the page; it never ends a run.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kind returns a short label for metrics.
func (e *FetchError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrNavigationTimeout):
		return "timeout"
	case errors.Is(e.Err, ErrRedirectBlocked):
		return "redirect"
	case errors.Is(e.Err, ErrExtractionFailed):
		return "extraction"
	default:
		return "navigation"
	}
}

// ServiceError is a failed call to the extraction service. It carries the
// upstream status and body for diagnostics.
type ServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("extraction service error (status %d)", e.StatusCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }
