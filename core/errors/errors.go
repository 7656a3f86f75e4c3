// Package errors provides the typed errors shared by the converter packages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformed indicates a document missing its required top-level structure
	ErrMalformed = errors.New("malformed document")
	// ErrConversion indicates a rule aborted the conversion
	ErrConversion = errors.New("conversion failed")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// RuleError reports the rule that aborted a conversion.
type RuleError struct {
	Rule      string // Rule name (e.g., "type07-joints")
	Direction string // "forward" or "reverse"
	Err       error  // Underlying failure
}

func (e *RuleError) Error() string {
	if e.Direction != "" {
		return fmt.Sprintf("%s conversion aborted in rule %s: %v", e.Direction, e.Rule, e.Err)
	}
	return fmt.Sprintf("conversion aborted in rule %s: %v", e.Rule, e.Err)
}

// Unwrap returns ErrConversion so callers can test with errors.Is; the
// underlying cause stays reachable through errors.As on its own type.
func (e *RuleError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConversion, e.Err}
	}
	return []error{ErrConversion}
}

// MalformedDocumentError reports a missing root or container element.
type MalformedDocumentError struct {
	Missing string // Tag that was expected
	Reason  string
}

func (e *MalformedDocumentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed document: missing %s: %s", e.Missing, e.Reason)
	}
	return fmt.Sprintf("malformed document: missing %s", e.Missing)
}

func (e *MalformedDocumentError) Unwrap() error {
	return ErrMalformed
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "XML", "version")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewRule creates a RuleError
func NewRule(rule, direction string, err error) *RuleError {
	return &RuleError{
		Rule:      rule,
		Direction: direction,
		Err:       err,
	}
}

// NewMalformed creates a MalformedDocumentError
func NewMalformed(missing, reason string) *MalformedDocumentError {
	return &MalformedDocumentError{
		Missing: missing,
		Reason:  reason,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
