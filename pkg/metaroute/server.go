package metaroute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"
)

// UseServer compiles the route table for opts and mounts it on server.
//
// Mount order: JSON body parser, CORS (when enabled), global middleware,
// routes, then the not-found handler. Nothing is mounted when compilation
// fails.
func UseServer(server WebServer, reg *Registry, opts Options) ([]RouteDescriptor, error) {
	if server == nil {
		return nil, configError("", "", "nil web server")
	}
	opts = opts.withDefaults()

	routes, err := Compile(reg, opts)
	if err != nil {
		return nil, err
	}

	stage := newErrorStage(opts)
	server.Use(func(next HandlerFunc) HandlerFunc {
		return stage.wrap(bodyParser(opts.SaveRawBody)(next))
	})

	if opts.UseCORS {
		server.EnableCORS()
	}

	for _, mw := range opts.GlobalMiddleware {
		server.Use(func(next HandlerFunc) HandlerFunc {
			return stage.wrap(mw(next))
		})
	}

	for _, route := range routes {
		server.RegisterRoute(route.HTTPMethod, route.Path, stage.wrap(Pipeline(route, opts)))
		if opts.Debug {
			opts.Logger.Debug("route mounted",
				"method", route.HTTPMethod,
				"path", route.Path.Raw(),
				"handler", route.Handler(),
				"server", server.Name(),
			)
		}
	}

	server.NotFound(notFound)
	opts.Logger.Info("routes mounted", "count", len(routes), "server", server.Name())
	return routes, nil
}

// RawBody returns the unparsed JSON request body kept when Options.SaveRawBody is set
func RawBody(c RequestContext) ([]byte, bool) {
	raw, ok := c.Get(RawBodyKey).([]byte)
	return raw, ok
}

func notFound(c RequestContext) error {
	return c.JSON(http.StatusNotFound, map[string]string{"message": "Route not found"})
}

// bodyParser decodes JSON request bodies into BodyKey. Bodies of other
// content types are left to the handler.
func bodyParser(saveRaw bool) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c RequestContext) error {
			if !isJSON(c.ContentType()) {
				return next(c)
			}

			data, err := c.Body()
			if err != nil {
				return ErrBadRequest(err.Error()).WithCause(err)
			}
			if saveRaw {
				c.Set(RawBodyKey, data)
			}

			if len(bytes.TrimSpace(data)) > 0 {
				var v any
				if err := json.Unmarshal(data, &v); err != nil {
					return ErrBadRequest(err.Error()).WithCause(err)
				}
				if v != nil {
					c.Set(BodyKey, v)
				}
			}
			return next(c)
		}
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// ServerConfig holds the lifecycle settings used by Server.Run
type ServerConfig struct {
	// ShutdownTimeout is the timeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns a server configuration with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{ShutdownTimeout: 30 * time.Second}
}

// Server ties a WebServer to a registry and owns its lifecycle
type Server struct {
	web      WebServer
	registry *Registry
	opts     Options
	config   ServerConfig
	routes   []RouteDescriptor
	mounted  bool
}

// NewServer creates a server that mounts reg on web with opts
func NewServer(web WebServer, reg *Registry, opts Options, config ServerConfig) *Server {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultServerConfig().ShutdownTimeout
	}
	return &Server{
		web:      web,
		registry: reg,
		opts:     opts.withDefaults(),
		config:   config,
	}
}

// WebServer returns the underlying adapter for advanced configuration
func (s *Server) WebServer() WebServer {
	return s.web
}

// Mount compiles and mounts the routes once. Later calls return the same table.
func (s *Server) Mount() ([]RouteDescriptor, error) {
	if s.mounted {
		return s.routes, nil
	}
	routes, err := UseServer(s.web, s.registry, s.opts)
	if err != nil {
		return nil, err
	}
	s.routes = routes
	s.mounted = true
	return routes, nil
}

// Routes returns the mounted route table
func (s *Server) Routes() []RouteDescriptor {
	return s.routes
}

// Run mounts the routes, serves on addr and shuts down gracefully once ctx is done
func (s *Server) Run(ctx context.Context, addr string) error {
	if _, err := s.Mount(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("starting server", "addr", addr, "server", s.web.Name())
		errCh <- s.web.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.opts.Logger.Info("shutting down server", "server", s.web.Name())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.web.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.opts.Logger.Info("server shutdown complete")
	return nil
}
