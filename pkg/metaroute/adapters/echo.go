package adapters

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// EchoAdapter implements metaroute.WebServer for Echo v4
type EchoAdapter struct {
	engine   *echo.Echo
	notFound echo.HandlerFunc
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	ea := &EchoAdapter{engine: e}
	e.HTTPErrorHandler = ea.handleError
	e.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(foldPath(c.Request()))
			return next(c)
		}
	})
	return ea
}

// NewDefaultEchoAdapter creates a new Echo adapter with a quiet Echo instance
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return NewEchoAdapter(e)
}

// RegisterRoute registers a route with the Echo server
func (ea *EchoAdapter) RegisterRoute(method string, path metaroute.RoutePath, handler metaroute.HandlerFunc) {
	ea.engine.Add(method, path.Format(metaroute.ColonParam, "*"), ea.convertHandler(handler))
}

// Use adds global middleware
func (ea *EchoAdapter) Use(middleware metaroute.MiddlewareFunc) {
	ea.engine.Use(ea.convertMiddleware(middleware))
}

// NotFound handles every request no route matches, including a known path
// requested with the wrong verb
func (ea *EchoAdapter) NotFound(handler metaroute.HandlerFunc) {
	ea.notFound = ea.convertHandler(handler)
	ea.engine.RouteNotFound("/*", ea.notFound)
}

// EnableCORS installs Echo's CORS middleware
func (ea *EchoAdapter) EnableCORS() {
	ea.engine.Use(middleware.CORS())
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	return ea.engine.Start(addr)
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// ServeHTTP implements http.Handler
func (ea *EchoAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ea.engine.ServeHTTP(w, r)
}

// GetEngine returns the underlying Echo instance
func (ea *EchoAdapter) GetEngine() *echo.Echo {
	return ea.engine
}

func (ea *EchoAdapter) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		code, body := fallbackError(err)
		_ = c.JSON(code, body)
		return
	}

	if ea.notFound != nil && (he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed) {
		if nfErr := ea.notFound(c); nfErr == nil {
			return
		}
	}
	ea.engine.DefaultHTTPErrorHandler(err, c)
}

// routeMiss answers Echo's own 404 and 405 errors with the not-found handler
// before they reach metaroute middleware, which would report them as 500
func (ea *EchoAdapter) routeMiss(c echo.Context, err error) error {
	var he *echo.HTTPError
	if ea.notFound == nil || !errors.As(err, &he) {
		return err
	}
	if he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed {
		return ea.notFound(c)
	}
	return err
}

// convertHandler converts metaroute.HandlerFunc to echo.HandlerFunc
func (ea *EchoAdapter) convertHandler(handler metaroute.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handler(&EchoRequestContext{context: c})
	}
}

// convertMiddleware converts metaroute.MiddlewareFunc to echo.MiddlewareFunc
func (ea *EchoAdapter) convertMiddleware(mw metaroute.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			wrapped := mw(func(metaroute.RequestContext) error {
				return ea.routeMiss(c, next(c))
			})
			return wrapped(&EchoRequestContext{context: c})
		}
	}
}

// EchoRequestContext implements metaroute.RequestContext for Echo
type EchoRequestContext struct {
	context echo.Context
}

// Context returns the request context
func (erc *EchoRequestContext) Context() context.Context {
	return erc.context.Request().Context()
}

// Method returns the HTTP method
func (erc *EchoRequestContext) Method() string {
	return erc.context.Request().Method
}

// Path returns the request path
func (erc *EchoRequestContext) Path() string {
	return requestPath(erc.context.Request())
}

// Param returns path parameter by name
func (erc *EchoRequestContext) Param(name string) string {
	segment := ":" + name
	if name == "*" {
		segment = "*"
	}
	return originalValue(erc.context.Request(), erc.context.Path(), segment, erc.context.Param(name), name == "*")
}

// QueryParam returns query parameter by name
func (erc *EchoRequestContext) QueryParam(name string) string {
	return erc.context.QueryParam(name)
}

// Header returns a request header
func (erc *EchoRequestContext) Header(name string) string {
	return erc.context.Request().Header.Get(name)
}

// ContentType returns the request content type
func (erc *EchoRequestContext) ContentType() string {
	return erc.context.Request().Header.Get(echo.HeaderContentType)
}

// Body returns the raw request body
func (erc *EchoRequestContext) Body() ([]byte, error) {
	return readBody(erc.context.Request())
}

// Get retrieves data from context
func (erc *EchoRequestContext) Get(key string) any {
	return erc.context.Get(key)
}

// Set stores data in context
func (erc *EchoRequestContext) Set(key string, val any) {
	erc.context.Set(key, val)
}

// Raw returns the *http.Request and *echo.Response
func (erc *EchoRequestContext) Raw() (any, any) {
	return erc.context.Request(), erc.context.Response()
}

// SetHeader sets a response header
func (erc *EchoRequestContext) SetHeader(key, value string) {
	erc.context.Response().Header().Set(key, value)
}

// JSON writes v as a JSON response
func (erc *EchoRequestContext) JSON(code int, v any) error {
	return erc.context.JSON(code, v)
}

// NoContent writes the status with an empty body
func (erc *EchoRequestContext) NoContent(code int) error {
	return erc.context.NoContent(code)
}
