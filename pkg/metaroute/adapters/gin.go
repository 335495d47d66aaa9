package adapters

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// ginWildcard is the catch-all parameter name used for "*" segments
const ginWildcard = "path"

// GinAdapter implements metaroute.WebServer for Gin framework
type GinAdapter struct {
	engine *gin.Engine
	cors   bool

	mu     sync.Mutex
	server *http.Server
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a new Gin adapter with panic recovery installed
func NewDefaultGinAdapter() *GinAdapter {
	engine := gin.New()
	engine.Use(gin.Recovery())
	return &GinAdapter{engine: engine}
}

// RegisterRoute registers a route with the Gin engine
func (ga *GinAdapter) RegisterRoute(method string, path metaroute.RoutePath, handler metaroute.HandlerFunc) {
	ga.engine.Handle(method, path.Format(metaroute.ColonParam, "*"+ginWildcard), ga.convertHandler(handler))
}

// Use adds global middleware
func (ga *GinAdapter) Use(middleware metaroute.MiddlewareFunc) {
	ga.engine.Use(ga.convertMiddleware(middleware))
}

// NotFound handles unmatched paths and verbs
func (ga *GinAdapter) NotFound(handler metaroute.HandlerFunc) {
	h := ga.convertHandler(handler)
	ga.engine.NoRoute(h)
	ga.engine.NoMethod(h)
}

// EnableCORS wraps the engine with gorilla's CORS handler
func (ga *GinAdapter) EnableCORS() {
	ga.cors = true
}

// Start starts the server
func (ga *GinAdapter) Start(addr string) error {
	ga.mu.Lock()
	ga.server = &http.Server{Addr: addr, Handler: ga.handler()}
	server := ga.server
	ga.mu.Unlock()
	return server.ListenAndServe()
}

// Stop stops the server
func (ga *GinAdapter) Stop(ctx context.Context) error {
	ga.mu.Lock()
	server := ga.server
	ga.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// ServeHTTP implements http.Handler
func (ga *GinAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ga.handler().ServeHTTP(w, r)
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}

func (ga *GinAdapter) handler() http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ga.engine.ServeHTTP(w, foldPath(r))
	})
	if ga.cors {
		h = withCORS(h)
	}
	return h
}

// convertHandler converts metaroute.HandlerFunc to gin.HandlerFunc
func (ga *GinAdapter) convertHandler(handler metaroute.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handler(&GinRequestContext{ctx: c}); err != nil {
			code, body := fallbackError(err)
			c.AbortWithStatusJSON(code, body)
		}
	}
}

// convertMiddleware converts metaroute.MiddlewareFunc to gin.HandlerFunc.
// A middleware that does not call next stops the chain.
func (ga *GinAdapter) convertMiddleware(middleware metaroute.MiddlewareFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := func(metaroute.RequestContext) error {
			called = true
			c.Next()
			return nil
		}

		if err := middleware(next)(&GinRequestContext{ctx: c}); err != nil {
			code, body := fallbackError(err)
			c.AbortWithStatusJSON(code, body)
			return
		}
		if !called {
			c.Abort()
		}
	}
}

// GinRequestContext implements metaroute.RequestContext for Gin
type GinRequestContext struct {
	ctx *gin.Context
}

// Context returns the request context
func (grc *GinRequestContext) Context() context.Context {
	return grc.ctx.Request.Context()
}

// Method returns the HTTP method
func (grc *GinRequestContext) Method() string {
	return grc.ctx.Request.Method
}

// Path returns the request path
func (grc *GinRequestContext) Path() string {
	return requestPath(grc.ctx.Request)
}

// Param returns a path parameter
func (grc *GinRequestContext) Param(name string) string {
	if name == "*" {
		// Gin's catch-all value keeps its leading slash
		routed := strings.TrimPrefix(grc.ctx.Param(ginWildcard), "/")
		return originalValue(grc.ctx.Request, grc.ctx.FullPath(), "*"+ginWildcard, routed, true)
	}
	return originalValue(grc.ctx.Request, grc.ctx.FullPath(), ":"+name, grc.ctx.Param(name), false)
}

// QueryParam returns a query parameter
func (grc *GinRequestContext) QueryParam(name string) string {
	return grc.ctx.Query(name)
}

// Header returns a request header
func (grc *GinRequestContext) Header(name string) string {
	return grc.ctx.GetHeader(name)
}

// ContentType returns the request content type
func (grc *GinRequestContext) ContentType() string {
	return grc.ctx.GetHeader("Content-Type")
}

// Body returns the raw request body
func (grc *GinRequestContext) Body() ([]byte, error) {
	return readBody(grc.ctx.Request)
}

// Get retrieves data from context
func (grc *GinRequestContext) Get(key string) any {
	val, _ := grc.ctx.Get(key)
	return val
}

// Set stores data in context
func (grc *GinRequestContext) Set(key string, val any) {
	grc.ctx.Set(key, val)
}

// Raw returns the *http.Request and gin.ResponseWriter
func (grc *GinRequestContext) Raw() (any, any) {
	return grc.ctx.Request, grc.ctx.Writer
}

// SetHeader sets a response header
func (grc *GinRequestContext) SetHeader(key, value string) {
	grc.ctx.Header(key, value)
}

// JSON writes v as a JSON response
func (grc *GinRequestContext) JSON(code int, v any) error {
	grc.ctx.JSON(code, v)
	return nil
}

// NoContent writes the status with an empty body
func (grc *GinRequestContext) NoContent(code int) error {
	grc.ctx.Status(code)
	grc.ctx.Writer.WriteHeaderNow()
	return nil
}
