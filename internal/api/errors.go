// Package api provides error types for IRIDA API responses.
package api

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials indicates the service rejected the OAuth2 password
// grant. Retrying with the same credentials will not help.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ConnectionError indicates the IRIDA service could not be reached, or a
// request failed in transit before the service could answer. Directories
// whose upload fails this way keep their previous status so a later attempt
// can pick them up again.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot reach %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is, or wraps, a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
