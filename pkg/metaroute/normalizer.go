package metaroute

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// ErrorBody is the JSON document written by the default error stage
type ErrorBody struct {
	StatusCode       int              `json:"statusCode"`
	Message          string           `json:"message"`
	ValidationErrors ValidationErrors `json:"validationErrors,omitempty"`
	Stack            string           `json:"stack,omitempty"`
}

// NewErrorBody maps err to its response document. Errors that carry no status
// become 500.
func NewErrorBody(err error, withStack bool) ErrorBody {
	status, ok := StatusOf(err)
	if !ok {
		status = http.StatusInternalServerError
	}

	body := ErrorBody{StatusCode: status}
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		body.Message = httpErr.Message
		body.ValidationErrors = httpErr.ValidationErrors
	} else if err != nil {
		body.Message = err.Error()
	}
	if body.Message == "" {
		body.Message = "Unknown error"
	}

	if withStack && err != nil {
		body.Stack = stackOf(err)
	}
	return body
}

type errorStage struct {
	opts Options
}

func newErrorStage(opts Options) *errorStage {
	return &errorStage{opts: opts.withDefaults()}
}

// handle sends err through the custom handler if one is configured
func (s *errorStage) handle(err error, c RequestContext) error {
	if s.opts.ErrorHandler != nil {
		return s.opts.ErrorHandler(err, c, func(next error) error {
			return s.respond(next, c)
		})
	}
	return s.respond(err, c)
}

func (s *errorStage) respond(err error, c RequestContext) error {
	body := NewErrorBody(err, s.opts.exposeStack())
	if s.opts.Debug {
		s.opts.Logger.ErrorContext(c.Context(), "request failed",
			"error_id", uuid.NewString(),
			"method", c.Method(),
			"path", c.Path(),
			"status", body.StatusCode,
			"error", err,
		)
	}
	return c.JSON(body.StatusCode, body)
}

// wrap routes every failure of next, including panics, through the error stage
func (s *errorStage) wrap(next HandlerFunc) HandlerFunc {
	return func(c RequestContext) error {
		if err := recoverServe(next, c); err != nil {
			return s.handle(err, c)
		}
		return nil
	}
}

func recoverServe(h HandlerFunc, c RequestContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return h(c)
}
