package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by a NetworkError for a 404 response.
	ErrNotFound = errors.New("not found")
	// ErrNotSaved is returned when the backend answers a save with success=false.
	ErrNotSaved = errors.New("backend did not accept the change")
)

// NetworkError is a failed request: either the transport failed or the
// backend answered with a non-2xx status.
type NetworkError struct {
	Op         string
	StatusCode int    // 0 when no response arrived
	Message    string // error text from the response body, if any
	Err        error
}

func (e *NetworkError) Error() string {
	msg := e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UserMessage picks the text to show for err: the backend's own error message
// when it sent one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var nerr *NetworkError
	if errors.As(err, &nerr) && nerr.Message != "" {
		return nerr.Message
	}
	return fallback
}
