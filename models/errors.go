package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing is returned when the remote adapter cannot be
	// initialised, typically because no API key is configured.
	ErrConfigurationMissing = errors.New("remote adapter configuration missing")

	// ErrRemoteCallFailed wraps transport failures and non-2xx answers from the
	// generative model endpoint.
	ErrRemoteCallFailed = errors.New("remote call failed")

	// ErrMalformedReply marks a remote payload that did not decode into a Reply.
	// It is informational: the raw text is still delivered.
	ErrMalformedReply = errors.New("malformed remote reply")

	ErrInvalidMessage    = errors.New("invalid message")
	ErrInvalidRoute      = errors.New("route is not part of the application route set")
	ErrInvalidTransition = errors.New("invalid visibility transition")
	ErrSessionNotFound   = errors.New("widget session not found")
)

// RemoteError describes a failed remote operation.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRemoteCallFailed, e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemoteCallFailed, e.Err}
}
