package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the logzship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when a transport is constructed with
	// unusable connection parameters.
	ErrInvalidConfig = errors.New("logzship: invalid configuration")

	// ErrServer is returned when a dispatch to the listener fails.
	ErrServer = errors.New("logzship: server error")

	// ErrInvalidEnvelope is returned when a pushed document is not an
	// object with a "message" array.
	ErrInvalidEnvelope = errors.New("logzship: invalid envelope")
)

// ConfigError describes a misconfiguration caught at construction time.
// It matches ErrInvalidConfig.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("logzship: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ServerError describes a failed dispatch. StatusCode is zero when no
// response was received (connection failure, timeout, cancellation).
// It matches ErrServer and the underlying cause.
type ServerError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ServerError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("logzship: server returned %d: %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("logzship: server returned %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("logzship: dispatch failed: %v", e.Err)
	default:
		return ErrServer.Error()
	}
}

func (e *ServerError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrServer}
	}
	return []error{ErrServer, e.Err}
}

// Temporary reports whether the failure is operational and may succeed when
// repeated: no response at all, or a 5xx status.
func (e *ServerError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}
