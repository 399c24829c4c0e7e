package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrSchema signals a missing or structurally invalid feature schema.
	ErrSchema = errors.New("invalid feature schema")
	// ErrInvalidRequest signals a malformed request (bad model name, unknown feature type).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPayloadInvalid signals a payload that failed schema validation.
	ErrPayloadInvalid = errors.New("payload failed validation")
)

// SchemaError wraps ErrSchema with the resource location and the reason it was rejected.
type SchemaError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrSchema.Error(), e.Reason)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *SchemaError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSchema, e.Err}
	}
	return []error{ErrSchema}
}

// NewSchemaError creates a schema error.
func NewSchemaError(path, reason string, cause error) error {
	return &SchemaError{Path: path, Reason: reason, Err: cause}
}

// ValidationError wraps ErrPayloadInvalid with every violation found.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d violation(s)", ErrPayloadInvalid.Error(), len(e.Violations))
}

func (e *ValidationError) Unwrap() error { return ErrPayloadInvalid }
