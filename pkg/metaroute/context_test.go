package metaroute

import (
	"context"
	"encoding/json"
	"net/http"
)

// fakeContext is an in-memory RequestContext for driving pipelines directly
type fakeContext struct {
	ctx     context.Context
	method  string
	path    string
	params  map[string]string
	query   map[string]string
	headers http.Header
	body    []byte
	values  map[string]any

	status   int
	written  any
	response http.Header
}

func newFakeContext(method, path string) *fakeContext {
	return &fakeContext{
		ctx:      context.Background(),
		method:   method,
		path:     path,
		params:   map[string]string{},
		query:    map[string]string{},
		headers:  http.Header{},
		values:   map[string]any{},
		response: http.Header{},
	}
}

func (f *fakeContext) withParam(name, value string) *fakeContext {
	f.params[name] = value
	return f
}

func (f *fakeContext) withQuery(name, value string) *fakeContext {
	f.query[name] = value
	return f
}

func (f *fakeContext) withHeader(name, value string) *fakeContext {
	f.headers.Set(name, value)
	return f
}

// withJSON stores a decoded body the way the body parser does
func (f *fakeContext) withJSON(raw string) *fakeContext {
	f.headers.Set("Content-Type", "application/json")
	f.body = []byte(raw)
	var v any
	if err := json.Unmarshal(f.body, &v); err != nil {
		panic(err)
	}
	f.values[BodyKey] = v
	return f
}

func (f *fakeContext) Context() context.Context      { return f.ctx }
func (f *fakeContext) Method() string                { return f.method }
func (f *fakeContext) Path() string                  { return f.path }
func (f *fakeContext) Param(name string) string      { return f.params[name] }
func (f *fakeContext) QueryParam(name string) string { return f.query[name] }
func (f *fakeContext) Header(name string) string     { return f.headers.Get(name) }
func (f *fakeContext) ContentType() string           { return f.headers.Get("Content-Type") }
func (f *fakeContext) Body() ([]byte, error)         { return f.body, nil }
func (f *fakeContext) Get(key string) any            { return f.values[key] }
func (f *fakeContext) Set(key string, val any)       { f.values[key] = val }
func (f *fakeContext) Raw() (any, any)               { return "raw-request", "raw-response" }
func (f *fakeContext) SetHeader(key, value string)   { f.response.Set(key, value) }

func (f *fakeContext) JSON(code int, v any) error {
	f.status = code
	f.written = v
	return nil
}

func (f *fakeContext) NoContent(code int) error {
	f.status = code
	f.written = nil
	return nil
}

// fakeServer records what UseServer mounts
type fakeServer struct {
	middleware []MiddlewareFunc
	routes     map[string]HandlerFunc
	order      []string
	notFound   HandlerFunc
	cors       bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{routes: map[string]HandlerFunc{}}
}

func (s *fakeServer) RegisterRoute(method string, path RoutePath, handler HandlerFunc) {
	key := method + " " + string(path)
	s.routes[key] = handler
	s.order = append(s.order, key)
}

func (s *fakeServer) Use(mw MiddlewareFunc)        { s.middleware = append(s.middleware, mw) }
func (s *fakeServer) NotFound(handler HandlerFunc) { s.notFound = handler }
func (s *fakeServer) EnableCORS()                  { s.cors = true }
func (s *fakeServer) Start(string) error           { return nil }
func (s *fakeServer) Stop(context.Context) error   { return nil }
func (s *fakeServer) Name() string                 { return "Fake" }

// serve runs the global middleware and then the route mounted under key,
// or the not-found handler when nothing is
func (s *fakeServer) serve(key string, c *fakeContext) error {
	h, ok := s.routes[key]
	if !ok {
		h = s.notFound
	}
	for i := len(s.middleware) - 1; i >= 0; i-- {
		h = s.middleware[i](h)
	}
	return h(c)
}
