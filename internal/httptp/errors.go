package httptp

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("httptp: closed")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Method string
	URL    string
	Status int
	// Body holds the start of the response body.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("httptp: %s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("httptp: %s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}
