package metaroute

import (
	"log/slog"
)

// AuthorizationHandler decides whether the request may reach a route that
// requires roles. Returning false answers 401 Unauthorized.
type AuthorizationHandler func(c RequestContext, roles []string) (bool, error)

// CurrentUserHandler resolves the value injected for CurrentUser parameters
type CurrentUserHandler func(c RequestContext) (any, error)

// ErrorHandler replaces the default error stage. next runs the default stage.
type ErrorHandler func(err error, c RequestContext, next func(error) error) error

// Options configures how routes are compiled and mounted
type Options struct {
	// Debug logs every failed request before responding
	Debug bool

	// RoutePrefix is prepended to every route, e.g. "api"
	RoutePrefix string

	// UseCORS enables the framework's CORS handling
	UseCORS bool

	// SaveRawBody keeps the raw request body, see RawBody
	SaveRawBody bool

	// Controllers are the instances to activate, one per controller class.
	// Classes with metadata but no instance here are not mounted.
	Controllers []any

	AuthorizationHandler AuthorizationHandler
	CurrentUserHandler   CurrentUserHandler

	// ErrorHandler replaces the default error stage when set
	ErrorHandler ErrorHandler

	// GlobalMiddleware runs before routing, in order
	GlobalMiddleware []MiddlewareFunc

	// Transformer and Validator handle Body parameters. Defaults are
	// MapTransformer and PlaygroundValidator.
	Transformer Transformer
	Validator   Validator

	// Logger receives debug and mount logs (default: slog.Default())
	Logger *slog.Logger

	// ExposeStack includes stack traces in default error bodies. Debug implies it.
	ExposeStack bool
}

// DefaultOptions returns options with the default transformer, validator and logger
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Transformer == nil {
		o.Transformer = MapTransformer{}
	}
	if o.Validator == nil {
		o.Validator = NewPlaygroundValidator()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) exposeStack() bool {
	return o.ExposeStack || o.Debug
}
