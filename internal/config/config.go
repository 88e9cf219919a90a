package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults match a lobby server running locally.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 8000
	DefaultEnvFile  = ".env"
	DefaultLogLevel = "error"
)

type Config struct {
	// Lobby server address; the channel and the HTTP API share it.
	Host   string
	Port   int
	Secure bool
	// Origin is reported to the server the way a browser page would.
	Origin string

	// SessionDSN points at the store used to remember the last session.
	SessionDSN string

	LogLevel string
	LogFile  string
}

// Options carries CLI flag overrides. Zero values mean "not set".
type Options struct {
	Host       string
	Port       int
	Secure     bool
	Origin     string
	SessionDSN string
	EnvFile    string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables, optionally seeded from a .env file
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		// The default .env is optional; an explicit one is not.
		if opts.EnvFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Host:       pick(opts.Host, os.Getenv("LOBBY_HOST"), DefaultHost),
		Origin:     pick(opts.Origin, os.Getenv("LOBBY_ORIGIN")),
		SessionDSN: pick(opts.SessionDSN, os.Getenv("LOBBY_SESSION_DSN"), defaultSessionDSN()),
		LogLevel:   pick(os.Getenv("LOG_LEVEL"), DefaultLogLevel),
		LogFile:    os.Getenv("LOG_FILE"),
		Port:       opts.Port,
		Secure:     opts.Secure,
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
		if v := os.Getenv("LOBBY_PORT"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil || port <= 0 || port > 65535 {
				return nil, fmt.Errorf("invalid LOBBY_PORT %q", v)
			}
			cfg.Port = port
		}
	}

	if !cfg.Secure {
		if v := os.Getenv("LOBBY_SECURE"); v != "" {
			secure, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid LOBBY_SECURE %q: %w", v, err)
			}
			cfg.Secure = secure
		}
	}

	if cfg.Origin == "" {
		cfg.Origin = fmt.Sprintf("%s://%s", cfg.httpScheme(), cfg.Host)
	}

	return cfg, nil
}

// APIBase is the root of the join/create HTTP API.
func (c *Config) APIBase() string {
	return fmt.Sprintf("%s://%s:%d/api", c.httpScheme(), c.Host, c.Port)
}

func (c *Config) httpScheme() string {
	if c.Secure {
		return "https"
	}
	return "http"
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultSessionDSN() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lobby-session.db"
	}
	return filepath.Join(home, ".lobby", "session.db")
}
