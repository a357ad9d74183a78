package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotSent is returned by a pending request whose batch has not run it.
	ErrNotSent = errors.New("request not sent")

	// ErrPoolRequired is returned when a batch is created without a worker pool.
	ErrPoolRequired = errors.New("worker pool required")
)

// StatusError reports a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}
