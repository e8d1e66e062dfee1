// Package config resolves the server's settings from the environment and
// command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingEnv is wrapped by Load when a required variable is unset.
var ErrMissingEnv = errors.New("required environment variable not set")

// MaxConns is the size of the database pool.
const MaxConns = 50

type Config struct {
	// Flags
	Workers      int
	Port         int
	DrainTimeout time.Duration

	// Database
	DBUser     string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string
	DBSSLMode  string

	// Ambient
	LogLevel   string
	SentryDSN  string
	CORSOrigin string
}

// LoadEnvFile loads variables from path into the process environment
// without overriding ones already set. A missing file is not an error for
// the caller to act on; it is reported so main can log a warning.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	return godotenv.Load(path)
}

// Load parses args (without the program name) and reads the environment.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	c := &Config{}
	fs.IntVar(&c.Workers, "workers", 1, "number of OS threads executing Go code")
	fs.IntVar(&c.Port, "port", 8001, "HTTP listen port")
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", 10*time.Second, "max time to finish in-flight requests on shutdown")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if c.Workers < 1 {
		return nil, fmt.Errorf("--workers must be at least 1, got %d", c.Workers)
	}
	if c.Port < 1 || c.Port > 65535 {
		return nil, fmt.Errorf("--port must be in 1..65535, got %d", c.Port)
	}
	if c.DrainTimeout <= 0 {
		return nil, fmt.Errorf("--drain-timeout must be positive, got %s", c.DrainTimeout)
	}

	var err error
	if c.DBUser, err = require("DB_USER"); err != nil {
		return nil, err
	}
	if c.DBPassword, err = require("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if c.DBName, err = require("DB_NAME"); err != nil {
		return nil, err
	}
	c.DBHost = getenv("DB_IP", "localhost")
	c.DBPort = getenv("DB_PORT", "5432")
	c.DBSSLMode = getenv("DB_SSLMODE", "disable")

	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.SentryDSN = os.Getenv("SENTRY_DSN")
	c.CORSOrigin = getenv("CORS_ORIGIN", "*")
	if err := validOrigin(c.CORSOrigin); err != nil {
		return nil, err
	}

	return c, nil
}

// DSN returns a postgres URL for pgxpool.ParseConfig. Credentials are
// escaped, so passwords may contain any character.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

// Addr is the listen address on all interfaces.
func (c *Config) Addr() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(c.Port))
}

// validOrigin accepts what gin-contrib/cors accepts without panicking.
func validOrigin(origin string) error {
	if origin == "*" || strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
		return nil
	}
	return fmt.Errorf("CORS_ORIGIN must be * or start with http:// or https://, got %q", origin)
}

func require(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s: %w", key, ErrMissingEnv)
	}
	return v, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
