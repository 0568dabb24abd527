package query

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreachable is returned when the transport fails or the
	// response body is not a well-formed record collection.
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrSourceRejected is returned when the source answers with a non-2xx
	// status.
	ErrSourceRejected = errors.New("source rejected request")
)

// StatusError carries the status of a rejected request.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Unwrap makes errors.Is(err, ErrSourceRejected) hold.
func (e *StatusError) Unwrap() error {
	return ErrSourceRejected
}

// errorClass labels err for metrics.
func errorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceRejected):
		return "rejected"
	case errors.Is(err, ErrSourceUnreachable):
		return "unreachable"
	default:
		return "other"
	}
}
