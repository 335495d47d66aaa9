package metaroute

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrConfiguration matches every *ConfigurationError via errors.Is
var ErrConfiguration = errors.New("metaroute: configuration error")

// ConfigurationError reports metadata or options that make startup impossible:
// missing controller or route metadata, duplicate routes, missing callbacks.
type ConfigurationError struct {
	Message string
	Class   string
	Method  string
	Cause   error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("metaroute: ")
	b.WriteString(e.Message)
	switch {
	case e.Class != "" && e.Method != "":
		fmt.Fprintf(&b, " (%s.%s)", e.Class, e.Method)
	case e.Class != "":
		fmt.Fprintf(&b, " (%s)", e.Class)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is reports ErrConfiguration as a match
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(class, method, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Message: fmt.Sprintf(format, args...),
		Class:   class,
		Method:  method,
	}
}

// ValidationErrors maps a property path to the constraint messages it failed
type ValidationErrors map[string][]string

// HttpError represents a request failure with a specific status code and message
type HttpError struct {
	StatusCode       int              `json:"statusCode"`
	Message          string           `json:"message"`
	ValidationErrors ValidationErrors `json:"validationErrors,omitempty"`
	Cause            error            `json:"-"`

	stack string
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("HTTP %d: %s: %v", e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause
func (e *HttpError) Unwrap() error {
	return e.Cause
}

// Stack returns the call stack captured when the error was created
func (e *HttpError) Stack() string {
	return e.stack
}

// WithCause attaches the error that triggered this one
func (e *HttpError) WithCause(cause error) *HttpError {
	e.Cause = cause
	return e
}

// NewHttpError creates a new HttpError with the given status code and message
func NewHttpError(statusCode int, message string) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
		stack:      captureStack(3),
	}
}

// NewValidationError creates a 400 error carrying structured validation failures
func NewValidationError(errs ValidationErrors) *HttpError {
	return &HttpError{
		StatusCode:       http.StatusBadRequest,
		Message:          "Failed validation",
		ValidationErrors: errs,
		stack:            captureStack(3),
	}
}

// Common HTTP error constructors for convenience

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HttpError {
	return &HttpError{StatusCode: http.StatusBadRequest, Message: message, stack: captureStack(3)}
}

// ErrUnauthorized creates a 401 Unauthorized error
func ErrUnauthorized(message string) *HttpError {
	return &HttpError{StatusCode: http.StatusUnauthorized, Message: message, stack: captureStack(3)}
}

// ErrForbidden creates a 403 Forbidden error
func ErrForbidden(message string) *HttpError {
	return &HttpError{StatusCode: http.StatusForbidden, Message: message, stack: captureStack(3)}
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HttpError {
	return &HttpError{StatusCode: http.StatusNotFound, Message: message, stack: captureStack(3)}
}

// statusCoder is implemented by foreign errors that carry an HTTP status
type statusCoder interface {
	HTTPStatus() int
}

// StatusOf returns the HTTP status carried by err, if any
func StatusOf(err error) (int, bool) {
	var httpErr *HttpError
	if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
		return httpErr.StatusCode, true
	}
	var coder statusCoder
	if errors.As(err, &coder) && coder.HTTPStatus() != 0 {
		return coder.HTTPStatus(), true
	}
	return 0, false
}

// unhandledError wraps an error or panic that carries no status of its own
type unhandledError struct {
	cause error
	stack string
}

func (e *unhandledError) Error() string { return e.cause.Error() }
func (e *unhandledError) Unwrap() error { return e.cause }
func (e *unhandledError) Stack() string { return e.stack }

// panicError converts a recovered panic value into an error
func panicError(recovered any) error {
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("%v", recovered)
	}
	return &unhandledError{cause: err, stack: captureStack(4)}
}

type stackTracer interface {
	Stack() string
}

// stackOf returns the stack attached to err, capturing the current one as a fallback
func stackOf(err error) string {
	var tracer stackTracer
	if errors.As(err, &tracer) && tracer.Stack() != "" {
		return tracer.Stack()
	}
	return captureStack(3)
}

func captureStack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "    at %s (%s:%d)\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
