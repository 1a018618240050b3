package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrUnexpectedStatus matches any *StatusError via errors.Is.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// StatusError is returned when a response status is not 200 OK.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the status the server answered with.
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Is makes errors.Is(err, ErrUnexpectedStatus) true for status errors.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// IsTimeout reports whether err is a timeout-class failure, the only kind
// a Fetcher retries.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
