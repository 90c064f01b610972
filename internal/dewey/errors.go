package dewey

import (
	"errors"
	"fmt"
)

// ErrNoFiles is returned when a product listing holds no files.
var ErrNoFiles = errors.New("no files in product listing")

// TransportError covers network failures and unexpected HTTP statuses.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s failed with HTTP %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnauthorizedError is returned on HTTP 401, usually a bad or expired API key.
type UnauthorizedError struct {
	URL string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized request to %s: check the API key", e.URL)
}

// ValidationError is returned on HTTP 422, on a malformed response body, and
// on bad caller input such as an unparseable date.
type ValidationError struct {
	URL     string
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("invalid request to %s (HTTP %d): %s", e.URL, e.Status, e.Message)
	}
	if e.URL != "" {
		return fmt.Sprintf("invalid response from %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}
