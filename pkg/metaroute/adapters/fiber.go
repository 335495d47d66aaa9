package adapters

import (
	"bytes"
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// FiberAdapter wraps a Fiber app to implement metaroute.WebServer
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter creates a new Fiber adapter around app
func NewFiberAdapter(app *fiber.App) *FiberAdapter {
	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a Fiber adapter with immutable request values,
// so strings read from a request stay valid after the handler returns
func NewDefaultFiberAdapter() *FiberAdapter {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code, body := fallbackError(err)
			return c.Status(code).JSON(body)
		},
	})
	return &FiberAdapter{app: app}
}

// RegisterRoute registers a route with the Fiber app
func (fa *FiberAdapter) RegisterRoute(method string, path metaroute.RoutePath, handler metaroute.HandlerFunc) {
	fa.app.Add(method, path.Format(metaroute.ColonParam, "*"), convertHandlerToFiber(handler))
}

// Use adds global middleware
func (fa *FiberAdapter) Use(middleware metaroute.MiddlewareFunc) {
	fa.app.Use(convertMiddlewareToFiber(middleware))
}

// NotFound installs a catch-all. It must be registered after every route.
func (fa *FiberAdapter) NotFound(handler metaroute.HandlerFunc) {
	fa.app.Use(convertHandlerToFiber(handler))
}

// EnableCORS installs Fiber's CORS middleware
func (fa *FiberAdapter) EnableCORS() {
	fa.app.Use(cors.New())
}

// Start starts the server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop stops the server
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// App returns the underlying Fiber app
func (fa *FiberAdapter) App() *fiber.App {
	return fa.app
}

// convertHandlerToFiber converts a metaroute handler to a Fiber handler
func convertHandlerToFiber(handler metaroute.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return handler(&FiberRequestContext{ctx: c})
	}
}

// convertMiddlewareToFiber converts a metaroute middleware to a Fiber middleware
func convertMiddlewareToFiber(middleware metaroute.MiddlewareFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return middleware(func(metaroute.RequestContext) error {
			return c.Next()
		})(&FiberRequestContext{ctx: c})
	}
}

// FiberRequestContext wraps fiber.Ctx to implement metaroute.RequestContext
type FiberRequestContext struct {
	ctx *fiber.Ctx
}

// Context returns the user context attached to the request
func (frc *FiberRequestContext) Context() context.Context {
	return frc.ctx.UserContext()
}

// Method returns the HTTP method
func (frc *FiberRequestContext) Method() string {
	return frc.ctx.Method()
}

// Path returns the request path
func (frc *FiberRequestContext) Path() string {
	return frc.ctx.Path()
}

// Param returns a path parameter
func (frc *FiberRequestContext) Param(name string) string {
	return frc.ctx.Params(name)
}

// QueryParam returns a query parameter
func (frc *FiberRequestContext) QueryParam(name string) string {
	return frc.ctx.Query(name)
}

// Header returns a request header
func (frc *FiberRequestContext) Header(name string) string {
	return frc.ctx.Get(name)
}

// ContentType returns the request content type
func (frc *FiberRequestContext) ContentType() string {
	return frc.ctx.Get(fiber.HeaderContentType)
}

// Body returns a copy of the request body
func (frc *FiberRequestContext) Body() ([]byte, error) {
	return bytes.Clone(frc.ctx.Body()), nil
}

// Get retrieves data from the request locals
func (frc *FiberRequestContext) Get(key string) any {
	return frc.ctx.Locals(key)
}

// Set stores data in the request locals
func (frc *FiberRequestContext) Set(key string, val any) {
	frc.ctx.Locals(key, val)
}

// Raw returns the *fiber.Ctx and its *fasthttp.Response
func (frc *FiberRequestContext) Raw() (any, any) {
	return frc.ctx, frc.ctx.Response()
}

// SetHeader sets a response header
func (frc *FiberRequestContext) SetHeader(key, value string) {
	frc.ctx.Set(key, value)
}

// JSON writes v as a JSON response
func (frc *FiberRequestContext) JSON(code int, v any) error {
	return frc.ctx.Status(code).JSON(v)
}

// NoContent writes the status with an empty body
func (frc *FiberRequestContext) NoContent(code int) error {
	frc.ctx.Status(code)
	return nil
}
