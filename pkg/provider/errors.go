package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed price fetch.
type ErrorKind string

const (
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindStatus  ErrorKind = "status"
	ErrorKindParse   ErrorKind = "parse"
)

var ErrFetch = errors.New("price fetch failed")

// FetchError is returned by providers when the upstream could not be
// reached, answered with a non-2xx status or sent a body that is not valid
// price JSON.
type FetchError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case ErrorKindStatus:
		return fmt.Sprintf("%s: API error: %d", e.Provider, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s error", e.Provider, e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets callers match any fetch failure with errors.Is(err, ErrFetch).
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Retryable reports whether repeating the identical request may succeed.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case ErrorKindNetwork:
		return true
	case ErrorKindStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// KindOf extracts the error kind of a fetch failure, or "" when err is not
// a *FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
