package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/toyz/metaroute/internal/config"
	"github.com/toyz/metaroute/internal/demo"
	"github.com/toyz/metaroute/internal/diagnostics"
	"github.com/toyz/metaroute/pkg/metaroute"
	"github.com/toyz/metaroute/pkg/metaroute/adapters"
)

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to a config file (defaults to ./metaroute.yaml when present)")
		adapterFlag = flag.String("adapter", "", "Web server adapter: "+strings.Join(config.Adapters, ", "))
		routesFlag  = flag.Bool("routes", false, "Print the compiled route table and exit")
		tokenFlag   = flag.String("token", "", "Print a one hour token for the given subject and exit")
		rolesFlag   = flag.String("roles", "USER", "Comma separated roles for -token")
		verboseFlag = flag.Bool("verbose", false, "Enable verbose output")
		quietFlag   = flag.Bool("quiet", false, "Only show errors")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Serves the metaroute demo widget API.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  METAROUTE_SERVER_PORT, METAROUTE_ROUTES_PREFIX, METAROUTE_AUTH_JWT_SECRET, ...\n")
		fmt.Fprintf(os.Stderr, "  A .env file in the working directory is loaded first.\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -adapter gin                # Serve with Gin\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -routes                     # Show the route table\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -token alice -roles ADMIN   # Issue a development token\n", os.Args[0])
	}
	flag.Parse()

	var diag *diagnostics.DiagnosticSystem
	switch {
	case *quietFlag:
		diag = diagnostics.NewQuietDiagnostics()
	case *verboseFlag:
		diag = diagnostics.NewVerboseDiagnostics()
	default:
		diag = diagnostics.NewDiagnosticSystem(diagnostics.DiagnosticInfo)
	}

	// a missing .env is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		diag.Warn("could not load .env: %v", err)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		diag.Error("%v", err)
		os.Exit(1)
	}
	if *adapterFlag != "" {
		cfg.Server.Adapter = *adapterFlag
		if err := cfg.Validate(); err != nil {
			diag.Error("%v", err)
			os.Exit(1)
		}
	}

	logger := newLogger(cfg.Routes.Debug || *verboseFlag)
	app, err := demo.New(demo.Settings{
		JWTSecret:   cfg.Auth.JWTSecret,
		Prefix:      cfg.Routes.Prefix,
		Debug:       cfg.Routes.Debug,
		CORS:        cfg.Routes.CORS,
		SaveRawBody: cfg.Routes.SaveRawBody,
		ExposeStack: cfg.Routes.ExposeStack,
		Logger:      logger,
	})
	if err != nil {
		diag.ConfigurationError(err)
		os.Exit(1)
	}

	if *tokenFlag != "" {
		if cfg.Auth.JWTSecret == "" {
			diag.Warn("auth.jwt_secret is not set, the token is only valid for this process")
		}
		token, err := app.Token(*tokenFlag, strings.Split(*rolesFlag, ",")...)
		if err != nil {
			diag.Error("failed to issue token: %v", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	web, err := newAdapter(cfg.Server.Adapter)
	if err != nil {
		diag.Error("%v", err)
		os.Exit(1)
	}

	srv := metaroute.NewServer(web, app.Registry, app.Options(), metaroute.ServerConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	routes, err := srv.Mount()
	if err != nil {
		diag.ConfigurationError(err)
		os.Exit(1)
	}

	if *routesFlag {
		diag.RouteTable(routes)
		return
	}

	diag.Header(fmt.Sprintf("serving %d routes with %s on %s", len(routes), web.Name(), cfg.Server.Addr()))
	if *verboseFlag {
		diag.RouteTable(routes)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.Server.Addr()); err != nil {
		diag.Error("%v", err)
		os.Exit(1)
	}
	diag.Success("server stopped")
}

// newAdapter builds the web server named by one of config.Adapters
func newAdapter(name string) (metaroute.WebServer, error) {
	switch strings.ToLower(name) {
	case "echo":
		return adapters.NewDefaultEchoAdapter(), nil
	case "gin":
		return adapters.NewDefaultGinAdapter(), nil
	case "fiber":
		return adapters.NewDefaultFiberAdapter(), nil
	case "mux":
		return adapters.NewDefaultMuxAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", name)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
