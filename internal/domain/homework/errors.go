// internal/domain/homework/errors.go
package homework

import (
	"errors"
	"fmt"
)

// Failure taxonomy of a poll cycle. Every stage wraps one of these with %w
// so callers can classify a failure with errors.Is.
var (
	ErrFetch         = errors.New("fetch failure")
	ErrDecode        = errors.New("decode failure")
	ErrMissingKey    = errors.New("missing key")
	ErrShape         = errors.New("unexpected response shape")
	ErrMissingField  = errors.New("missing field")
	ErrUnknownStatus = errors.New("unknown homework status")
	ErrNotify        = errors.New("notify failure")
)

// FetchError is a FetchFailure with the HTTP status code attached.
// StatusCode is 0 when the request never got a response.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", ErrFetch, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", ErrFetch, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Kind returns a short label for the failure class of err, used as a log field.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrMissingKey):
		return "missing_key"
	case errors.Is(err, ErrShape):
		return "shape"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrUnknownStatus):
		return "unknown_status"
	case errors.Is(err, ErrNotify):
		return "notify"
	default:
		return "internal"
	}
}
