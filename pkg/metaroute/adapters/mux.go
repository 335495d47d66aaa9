package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// muxWildcard is the variable that captures a "*" segment
const muxWildcard = "path"

type storeKey struct{}

// store is the per-request key/value storage behind Get/Set
type store struct {
	mu     sync.RWMutex
	values map[string]any
}

// MuxAdapter implements metaroute.WebServer on gorilla/mux and net/http.
// Global middleware wraps the router, so it also runs for unmatched requests.
type MuxAdapter struct {
	router     *mux.Router
	middleware []metaroute.MiddlewareFunc
	cors       bool

	mu     sync.Mutex
	server *http.Server
}

// NewMuxAdapter creates a new adapter around router
func NewMuxAdapter(router *mux.Router) *MuxAdapter {
	return &MuxAdapter{router: router}
}

// NewDefaultMuxAdapter creates a new adapter with a fresh router
func NewDefaultMuxAdapter() *MuxAdapter {
	return NewMuxAdapter(mux.NewRouter())
}

// RegisterRoute registers a route with the router
func (ma *MuxAdapter) RegisterRoute(method string, path metaroute.RoutePath, handler metaroute.HandlerFunc) {
	muxPath := path.Format(func(name string) string {
		return "{" + name + "}"
	}, "{"+muxWildcard+":.*}")
	ma.router.Handle(muxPath, ma.convertHandler(handler)).Methods(method)
}

// Use adds global middleware
func (ma *MuxAdapter) Use(middleware metaroute.MiddlewareFunc) {
	ma.middleware = append(ma.middleware, middleware)
}

// NotFound handles unmatched paths and verbs
func (ma *MuxAdapter) NotFound(handler metaroute.HandlerFunc) {
	h := ma.convertHandler(handler)
	ma.router.NotFoundHandler = h
	ma.router.MethodNotAllowedHandler = h
}

// EnableCORS wraps the router with gorilla's CORS handler
func (ma *MuxAdapter) EnableCORS() {
	ma.cors = true
}

// Start starts the server
func (ma *MuxAdapter) Start(addr string) error {
	ma.mu.Lock()
	ma.server = &http.Server{Addr: addr, Handler: ma.handler()}
	server := ma.server
	ma.mu.Unlock()
	return server.ListenAndServe()
}

// Stop stops the server
func (ma *MuxAdapter) Stop(ctx context.Context) error {
	ma.mu.Lock()
	server := ma.server
	ma.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Name returns the adapter name
func (ma *MuxAdapter) Name() string {
	return "Mux"
}

// ServeHTTP implements http.Handler
func (ma *MuxAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ma.handler().ServeHTTP(w, r)
}

// GetRouter returns the underlying router
func (ma *MuxAdapter) GetRouter() *mux.Router {
	return ma.router
}

func (ma *MuxAdapter) handler() http.Handler {
	var h http.Handler = http.HandlerFunc(ma.dispatch)
	if ma.cors {
		h = withCORS(h)
	}
	return h
}

// dispatch runs the global middleware chain, then the router
func (ma *MuxAdapter) dispatch(w http.ResponseWriter, r *http.Request) {
	r = foldPath(r)
	r = r.WithContext(context.WithValue(r.Context(), storeKey{}, &store{values: map[string]any{}}))

	chain := func(metaroute.RequestContext) error {
		ma.router.ServeHTTP(w, r)
		return nil
	}
	for i := len(ma.middleware) - 1; i >= 0; i-- {
		chain = ma.middleware[i](chain)
	}

	if err := chain(newMuxRequestContext(w, r)); err != nil {
		code, body := fallbackError(err)
		_ = writeJSON(w, code, body)
	}
}

// convertHandler converts metaroute.HandlerFunc to http.Handler
func (ma *MuxAdapter) convertHandler(handler metaroute.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := handler(newMuxRequestContext(w, r)); err != nil {
			code, body := fallbackError(err)
			_ = writeJSON(w, code, body)
		}
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

// MuxRequestContext implements metaroute.RequestContext for net/http requests
// routed by gorilla/mux
type MuxRequestContext struct {
	w     http.ResponseWriter
	r     *http.Request
	store *store
}

func newMuxRequestContext(w http.ResponseWriter, r *http.Request) *MuxRequestContext {
	s, ok := r.Context().Value(storeKey{}).(*store)
	if !ok {
		s = &store{values: map[string]any{}}
	}
	return &MuxRequestContext{w: w, r: r, store: s}
}

// Context returns the request context
func (mrc *MuxRequestContext) Context() context.Context {
	return mrc.r.Context()
}

// Method returns the HTTP method
func (mrc *MuxRequestContext) Method() string {
	return mrc.r.Method
}

// Path returns the request path
func (mrc *MuxRequestContext) Path() string {
	return requestPath(mrc.r)
}

// Param returns a path variable
func (mrc *MuxRequestContext) Param(name string) string {
	segment := "{" + name + "}"
	rest := name == "*"
	if rest {
		name = muxWildcard
		segment = "{" + muxWildcard + ":.*}"
	}

	routed := mux.Vars(mrc.r)[name]
	route := mux.CurrentRoute(mrc.r)
	if route == nil {
		return routed
	}
	pattern, err := route.GetPathTemplate()
	if err != nil {
		return routed
	}
	return originalValue(mrc.r, pattern, segment, routed, rest)
}

// QueryParam returns a query parameter
func (mrc *MuxRequestContext) QueryParam(name string) string {
	return mrc.r.URL.Query().Get(name)
}

// Header returns a request header
func (mrc *MuxRequestContext) Header(name string) string {
	return mrc.r.Header.Get(name)
}

// ContentType returns the request content type
func (mrc *MuxRequestContext) ContentType() string {
	return mrc.r.Header.Get("Content-Type")
}

// Body returns the raw request body
func (mrc *MuxRequestContext) Body() ([]byte, error) {
	return readBody(mrc.r)
}

// Get retrieves data from the request store
func (mrc *MuxRequestContext) Get(key string) any {
	mrc.store.mu.RLock()
	defer mrc.store.mu.RUnlock()
	return mrc.store.values[key]
}

// Set stores data in the request store
func (mrc *MuxRequestContext) Set(key string, val any) {
	mrc.store.mu.Lock()
	defer mrc.store.mu.Unlock()
	mrc.store.values[key] = val
}

// Raw returns the *http.Request and http.ResponseWriter
func (mrc *MuxRequestContext) Raw() (any, any) {
	return mrc.r, mrc.w
}

// SetHeader sets a response header
func (mrc *MuxRequestContext) SetHeader(key, value string) {
	mrc.w.Header().Set(key, value)
}

// JSON writes v as a JSON response
func (mrc *MuxRequestContext) JSON(code int, v any) error {
	return writeJSON(mrc.w, code, v)
}

// NoContent writes the status with an empty body
func (mrc *MuxRequestContext) NoContent(code int) error {
	mrc.w.WriteHeader(code)
	return nil
}
