package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var (
	// ErrMissingBaseURL is returned when no base URL is configured.
	ErrMissingBaseURL = errors.New("base URL is not configured")

	// ErrNoConverter is returned when no converter factory handles a body type.
	ErrNoConverter = errors.New("no converter")

	// ErrNoCallAdapter is returned when no call adapter factory handles a return type.
	ErrNoCallAdapter = errors.New("no call adapter")

	// ErrNilBody is returned when a method declares a body parameter and nil is passed.
	ErrNilBody = errors.New("body parameter must not be nil")

	// ErrMissingPathParam is returned when a path placeholder has no value.
	ErrMissingPathParam = errors.New("missing path parameter")

	// ErrInvalidPathParam is returned when path values would form a "." or ".." segment.
	ErrInvalidPathParam = errors.New("path parameters must not be . or ..")

	// ErrUnexpectedResult is returned when a call adapter produces a value that is not
	// assignable to the method's declared result type.
	ErrUnexpectedResult = errors.New("unexpected result type")
)

// ConfigError reports an unusable configuration value.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("the given %s %q is not valid: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// HTTPError is returned by Call.Execute for responses outside the 2xx range.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return e.Method + " " + e.URL + ": " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}
