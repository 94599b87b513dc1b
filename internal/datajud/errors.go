package datajud

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks an expected registry outcome that yields no snapshot.
// Callers treat it as "no information this time", never as a failure.
var ErrUnavailable = errors.New("registry unavailable")

// ErrMalformedResponse is returned when a successful response cannot be decoded.
var ErrMalformedResponse = errors.New("malformed registry response")

// Reason categorizes why the registry produced no snapshot.
type Reason string

const (
	ReasonUnresolved Reason = "unresolved"
	ReasonTimeout    Reason = "timeout"
	ReasonTransport  Reason = "transport"
	ReasonStatus     Reason = "status"
	ReasonNotFound   Reason = "not_found"
)

// Error describes an unavailable registry result.
type Error struct {
	Reason     Reason
	Number     string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("registry %s for %s", e.Reason, e.Number)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is match both ErrUnavailable and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}

// IsUnavailable reports whether err is an expected registry miss.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// ReasonOf returns the Reason carried by err, or "" when err is not an *Error.
func ReasonOf(err error) Reason {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr.Reason
	}
	return ""
}
