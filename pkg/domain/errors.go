package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrBusy is returned when a submission arrives while another one for the
// same session is still in flight and the host chose not to queue it.
var ErrBusy = errors.New("session is busy")

// InputError is input that does not fit the current wizard stage.
// It is recovered locally and shown as an error entry.
type InputError struct {
	Step   Step
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// TransportError is a failed, timed-out or rejected backend call.
type TransportError struct {
	Op     string // "generate" or "setup"
	Status int    // HTTP status or process exit code, 0 when unknown
	Cause  error
	Detail string
}

func (e *TransportError) Error() string {
	msg := e.Detail
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, msg)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ConfigurationError means the backend is unreachable or misconfigured.
// Hosts surface it exactly like a TransportError.
type ConfigurationError struct {
	Field string
	Cause error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %v", e.Field, e.Cause)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// NewConfigurationError builds a ConfigurationError from a message.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Cause: fmt.Errorf(format, args...)}
}
