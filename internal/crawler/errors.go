package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge is returned when a response body is longer than the
	// fetcher's MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrPaginationCycle is returned when the visit guard sees a page twice.
	ErrPaginationCycle = errors.New("pagination cycle detected")
)

// FetchError reports a failure to retrieve a page: transport errors, non-2xx
// responses and unreadable bodies.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %v (status %d)", e.URL, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports content that could not be understood as a listing page.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
