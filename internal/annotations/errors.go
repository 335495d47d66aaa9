package annotations

import (
	"fmt"
	"strings"
)

// AnnotationError defines the interface for annotation-related errors
type AnnotationError interface {
	error
	Location() SourceLocation
	Suggestion() string
	Code() ErrorCode
}

// ErrorCode represents different types of annotation errors
type ErrorCode int

const (
	SyntaxErrorCode ErrorCode = iota
	SchemaErrorCode
	RegistrationErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case SyntaxErrorCode:
		return "SyntaxError"
	case SchemaErrorCode:
		return "SchemaError"
	case RegistrationErrorCode:
		return "RegistrationError"
	default:
		return "UnknownError"
	}
}

func formatLocation(loc SourceLocation) string {
	if loc.Line == 0 {
		return loc.Source
	}
	return fmt.Sprintf("%s:%d:%d", loc.Source, loc.Line, loc.Column)
}

// SyntaxError represents a syntax parsing error
type SyntaxError struct {
	Msg  string
	Loc  SourceLocation
	Hint string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: %s. %s", formatLocation(e.Loc), e.Msg, e.Hint)
}

func (e *SyntaxError) Location() SourceLocation { return e.Loc }
func (e *SyntaxError) Suggestion() string       { return e.Hint }
func (e *SyntaxError) Code() ErrorCode          { return SyntaxErrorCode }

// SchemaError reports an unknown annotation, one used on the wrong target or
// one with the wrong number of arguments
type SchemaError struct {
	Annotation string
	Msg        string
	Loc        SourceLocation
	Hint       string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: @%s: %s", formatLocation(e.Loc), e.Annotation, e.Msg)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *SchemaError) Location() SourceLocation { return e.Loc }
func (e *SchemaError) Suggestion() string       { return e.Hint }
func (e *SchemaError) Code() ErrorCode          { return SchemaErrorCode }

// RegistrationError represents an error while registering a schema
type RegistrationError struct {
	Msg  string
	Hint string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration error: %s. %s", e.Msg, e.Hint)
}

func (e *RegistrationError) Location() SourceLocation { return SourceLocation{} }
func (e *RegistrationError) Suggestion() string       { return e.Hint }
func (e *RegistrationError) Code() ErrorCode          { return RegistrationErrorCode }

// MultipleAnnotationErrors represents multiple annotation errors collected together
type MultipleAnnotationErrors struct {
	Errors []AnnotationError
}

func (e *MultipleAnnotationErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d annotation errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As
func (e *MultipleAnnotationErrors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// Add appends err to the collection
func (e *MultipleAnnotationErrors) Add(err AnnotationError) {
	e.Errors = append(e.Errors, err)
}

// ErrOrNil returns nil when nothing was collected
func (e *MultipleAnnotationErrors) ErrOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
