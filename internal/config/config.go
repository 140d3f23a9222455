// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON file, an
// optional .env file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environment modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// minSecretLen is the minimum signing secret length outside development.
const minSecretLen = 32

// Duration is a time.Duration that decodes from strings such as "24h" in
// both JSON and environment variables.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port" env:"SERVER_ADDRESS"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN"`

	// JWTSecret is the HMAC key tokens are signed with. Never logged.
	JWTSecret string `json:"jwt_secret" env:"JWT_SECRET"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL Duration `json:"token_ttl" env:"JWT_EXPIRES_IN"`

	// CORSOrigin is the single origin allowed to make cross-origin requests.
	CORSOrigin string `json:"cors_origin" env:"CORS_ORIGIN"`

	// Environment is one of development, production or test.
	Environment string `json:"environment" env:"APP_ENV"`

	// LogLevel is the minimum zap level (debug, info, warn, error).
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `json:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile  string `json:"tls_key_file" env:"TLS_KEY_FILE"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	// PoolStatsInterval is how often database pool metrics are sampled.
	PoolStatsInterval Duration `json:"pool_stats_interval" env:"POOL_STATS_INTERVAL"`

	// Config is the path to the Config file.
	Config string `json:"-" env:"CONFIG"`

	// EnvFile is the path to an optional dotenv file.
	EnvFile string `json:"-" env:"ENV_FILE"`
}

// IsDevelopment reports whether the server runs in development mode.
func (o *Options) IsDevelopment() bool {
	return o.Environment == EnvDevelopment
}

// TLSEnabled reports whether both TLS files are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCertFile != "" && o.TLSKeyFile != ""
}

// String describes the options with the signing secret redacted.
func (o Options) String() string {
	secret := ""
	if o.JWTSecret != "" {
		secret = "[REDACTED]"
	}
	return fmt.Sprintf(
		"addr=%s env=%s log_level=%s token_ttl=%s cors_origin=%s tls=%t jwt_secret=%s",
		o.Port, o.Environment, o.LogLevel, o.TokenTTL, o.CORSOrigin, o.TLSEnabled(), secret,
	)
}

// Validate ensures all required configuration is present and consistent.
func (o *Options) Validate() error {
	switch o.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("unknown environment %q", o.Environment)
	}
	if o.DatabaseDSN == "" {
		return errors.New("database DSN is required")
	}
	if o.JWTSecret == "" {
		return errors.New("JWT secret is required")
	}
	if !o.IsDevelopment() && len(o.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT secret must be at least %d bytes", minSecretLen)
	}
	if o.TokenTTL.Duration <= 0 {
		return errors.New("token TTL must be positive")
	}
	if o.ShutdownTimeout.Duration <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if o.PoolStatsInterval.Duration <= 0 {
		return errors.New("pool stats interval must be positive")
	}
	if (o.TLSCertFile == "") != (o.TLSKeyFile == "") {
		return errors.New("TLS cert and key files must be set together")
	}
	return nil
}

func defaults() *Options {
	return &Options{
		Port:              ":5000",
		TokenTTL:          Duration{24 * time.Hour},
		CORSOrigin:        "http://localhost:5173",
		Environment:       EnvProduction,
		LogLevel:          "info",
		ShutdownTimeout:   Duration{10 * time.Second},
		PoolStatsInterval: Duration{15 * time.Second},
		Config:            "config.json",
		EnvFile:           ".env",
	}
}

// Load builds Options from args. Values are applied in order, later sources
// winning: defaults and flags, the JSON config file, the dotenv file, then
// environment variables. The result is validated.
func Load(args []string) (*Options, error) {
	options := defaults()

	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&options.Port, "a", options.Port, "run on ip:port server")
	flags.StringVar(&options.DatabaseDSN, "d", options.DatabaseDSN, "db address")
	flags.StringVar(&options.JWTSecret, "s", options.JWTSecret, "JWT signing secret")
	flags.DurationVar(&options.TokenTTL.Duration, "t", options.TokenTTL.Duration, "token lifetime")
	flags.StringVar(&options.Environment, "e", options.Environment, "environment mode")
	flags.StringVar(&options.Config, "config", options.Config, "path to config file")
	flags.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		options.EnvFile = envFile
	}
	if options.EnvFile != "" {
		if err := godotenv.Load(options.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error while loading env file: %w", err)
		}
	}

	if err := env.Parse(options); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return options, nil
}

// Parse loads Options from os.Args and the environment and exits the
// process on any error.
func Parse() *Options {
	options, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return options
}
