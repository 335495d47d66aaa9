// Package demo is a small widget API that exercises every metaroute feature:
// builder and annotation registration, all parameter kinds, JWT authorization,
// async handlers and a custom error handler.
package demo

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// Settings configures the demo application
type Settings struct {
	// JWTSecret signs tokens. An empty secret is replaced by a random one,
	// so tokens do not survive a restart.
	JWTSecret   string
	Prefix      string
	Debug       bool
	CORS        bool
	SaveRawBody bool
	ExposeStack bool
	Logger      *slog.Logger
}

// App holds the demo's registry, controllers and callbacks
type App struct {
	Registry *metaroute.Registry
	Auth     *Authenticator
	Store    *WidgetStore

	settings    Settings
	controllers []any
}

// New registers the demo controllers in a fresh registry
func New(settings Settings) (*App, error) {
	if settings.Logger == nil {
		settings.Logger = slog.Default()
	}
	secret := settings.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
	}
	auth, err := NewAuthenticator(secret)
	if err != nil {
		return nil, err
	}

	store := NewWidgetStore()
	widgets := NewWidgetController(store)
	account := NewAccountController(store)
	admin := NewAdminController(store)

	reg := metaroute.NewRegistry()
	if err := RegisterWidgets(reg); err != nil {
		return nil, err
	}
	if err := metaroute.Annotate(reg, account); err != nil {
		return nil, err
	}
	if err := metaroute.Annotate(reg, admin); err != nil {
		return nil, err
	}

	return &App{
		Registry:    reg,
		Auth:        auth,
		Store:       store,
		settings:    settings,
		controllers: []any{widgets, account, admin},
	}, nil
}

// Options returns the metaroute options for the demo
func (a *App) Options() metaroute.Options {
	return metaroute.Options{
		Debug:                a.settings.Debug,
		RoutePrefix:          a.settings.Prefix,
		UseCORS:              a.settings.CORS,
		SaveRawBody:          a.settings.SaveRawBody,
		ExposeStack:          a.settings.ExposeStack,
		Controllers:          a.controllers,
		AuthorizationHandler: a.Auth.Authorize,
		CurrentUserHandler:   a.Auth.CurrentUser,
		ErrorHandler:         tagErrors,
		GlobalMiddleware: []metaroute.MiddlewareFunc{
			poweredBy,
			requestLogger(a.settings.Logger),
		},
		Logger: a.settings.Logger,
	}
}

// Mount compiles the demo routes onto server
func (a *App) Mount(server metaroute.WebServer) ([]metaroute.RouteDescriptor, error) {
	return metaroute.UseServer(server, a.Registry, a.Options())
}

// Token issues a one hour token, for local testing
func (a *App) Token(subject string, roles ...string) (string, error) {
	return a.Auth.Issue(subject, subject, roles, time.Hour)
}

// tagErrors stamps every failed response with an id before the default handling
func tagErrors(err error, c metaroute.RequestContext, next func(error) error) error {
	c.SetHeader("X-Error-Id", uuid.NewString())
	return next(err)
}

func poweredBy(next metaroute.HandlerFunc) metaroute.HandlerFunc {
	return func(c metaroute.RequestContext) error {
		c.SetHeader("X-Powered-By", "metaroute")
		return next(c)
	}
}

func requestLogger(logger *slog.Logger) metaroute.MiddlewareFunc {
	return func(next metaroute.HandlerFunc) metaroute.HandlerFunc {
		return func(c metaroute.RequestContext) error {
			start := time.Now()
			err := next(c)
			logger.DebugContext(c.Context(), "request handled",
				"method", c.Method(),
				"path", c.Path(),
				"duration", time.Since(start),
			)
			return err
		}
	}
}
