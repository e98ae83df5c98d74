package invest

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned when the environment is missing something
// the submission cannot proceed without (e.g. $SCRATCH).
type ConfigurationError struct {
	Key    string // Environment variable or config key
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// ScriptWriteError is returned when the batch script cannot be written.
// A partially written file may remain at Path.
type ScriptWriteError struct {
	Path string
	Err  error
}

func (e *ScriptWriteError) Error() string {
	return fmt.Sprintf("failed to write batch script %s: %v", e.Path, e.Err)
}

func (e *ScriptWriteError) Unwrap() error {
	return e.Err
}

// ValidationError reports a request field that cannot be submitted.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(key, reason string) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: reason}
}

// NewScriptWriteError creates a new ScriptWriteError
func NewScriptWriteError(path string, err error) *ScriptWriteError {
	return &ScriptWriteError{Path: path, Err: err}
}

func newValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsScriptWriteError checks if an error is a ScriptWriteError
func IsScriptWriteError(err error) bool {
	var we *ScriptWriteError
	return errors.As(err, &we)
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
