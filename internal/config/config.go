// Package config loads the settings of the metaroute binary from defaults,
// an optional YAML file and METAROUTE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Adapters lists the supported web server adapters
var Adapters = []string{"echo", "gin", "fiber", "mux"}

// Config represents the application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Routes RoutesConfig `mapstructure:"routes"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

// ServerConfig holds listener and lifecycle settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Adapter         string        `mapstructure:"adapter"` // one of Adapters
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RoutesConfig maps onto metaroute.Options
type RoutesConfig struct {
	Prefix      string `mapstructure:"prefix"`
	Debug       bool   `mapstructure:"debug"`
	CORS        bool   `mapstructure:"cors"`
	SaveRawBody bool   `mapstructure:"save_raw_body"`
	ExposeStack bool   `mapstructure:"expose_stack"`
}

// AuthConfig holds the demo application's token settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// Load reads the configuration. An explicit configPath must exist; without
// one, "metaroute.yaml" in the working directory is used when present.
// Environment variables override both, e.g. METAROUTE_SERVER_PORT.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("METAROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("metaroute")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes the adapter name and rejects unusable values
func (c *Config) Validate() error {
	c.Server.Adapter = strings.ToLower(strings.TrimSpace(c.Server.Adapter))
	if !slices.Contains(Adapters, c.Server.Adapter) {
		return fmt.Errorf("unknown adapter %q, expected one of %s", c.Server.Adapter, strings.Join(Adapters, ", "))
	}
	if c.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	return nil
}

// setDefaults configures sensible default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.adapter", "echo")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("routes.prefix", "api")
	v.SetDefault("routes.debug", false)
	v.SetDefault("routes.cors", true)
	v.SetDefault("routes.save_raw_body", false)
	v.SetDefault("routes.expose_stack", false)

	v.SetDefault("auth.jwt_secret", "")
}
