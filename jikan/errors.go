package jikan

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrBodySize caps how much of an unexpected response is kept on the
// returned error.
const maxErrBodySize = 4 << 10 // 4KB

// maxBodySize caps a successful response body.
const maxBodySize = 8 << 20 // 8MB

// execFn operates on a response whose status already matched.
type execFn func(resp *http.Response) error

var (
	// ErrUnexpectedStatusCode is the sentinel wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrNotFound is joined with [ErrUnexpectedStatusCode] on 404.
	ErrNotFound = errors.New("anime not found")
	// ErrRateLimited is joined with [ErrUnexpectedStatusCode] on 429.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	ErrInvalidPage  = errors.New("page must be greater than zero")
	ErrInvalidID    = errors.New("id must be greater than zero")
	ErrNilQueue     = errors.New("queue must not be nil")
	ErrNoCoverImage = errors.New("anime has no cover image")
)

// UnexpectedStatusError is returned when the API answers with a status
// other than the one expected.
type UnexpectedStatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s: %v: %d, body: %s", e.Endpoint, e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

func statusErr(code int) error {
	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, ErrUnexpectedStatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, ErrUnexpectedStatusCode)
	default:
		return ErrUnexpectedStatusCode
	}
}
