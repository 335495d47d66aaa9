package metaroute

import (
	"context"
)

// WebServer defines the contract a web framework integration implements.
// Routes, middleware and the not-found stage are registered through it; the
// framework keeps ownership of sockets, parsing and connection handling.
type WebServer interface {
	// Route registration
	RegisterRoute(method string, path RoutePath, handler HandlerFunc)

	// Global middleware, run in registration order before routing completes
	Use(middleware MiddlewareFunc)

	// NotFound installs the handler for unmatched verb+path combinations
	NotFound(handler HandlerFunc)

	// EnableCORS turns on the framework's permissive CORS handling
	EnableCORS()

	// Server lifecycle
	Start(addr string) error
	Stop(ctx context.Context) error

	// Server information
	Name() string
}

// RequestContext provides a framework-agnostic view of one request/response pair
type RequestContext interface {
	// Context returns the request scoped context
	Context() context.Context

	// Request data
	Method() string
	Path() string

	// Param returns a path parameter, or "" when absent
	Param(name string) string

	// QueryParam returns the first query value for name, or "" when absent
	QueryParam(name string) string

	// Header returns the first value of the named request header
	Header(name string) string
	ContentType() string

	// Body returns the raw request body. It may be called more than once.
	Body() ([]byte, error)

	// Per-request storage shared between middleware and handlers
	Get(key string) any
	Set(key string, val any)

	// Raw returns the framework's native request and response handles
	Raw() (request any, response any)

	// Response writing
	SetHeader(key, value string)
	JSON(code int, v any) error
	NoContent(code int) error
}

// HandlerFunc defines the signature for HTTP handlers
type HandlerFunc func(RequestContext) error

// MiddlewareFunc defines the signature for middleware
type MiddlewareFunc func(HandlerFunc) HandlerFunc
