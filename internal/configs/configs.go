/*
Package configs loads the chat client's configuration.

Values come from environment variables, optionally seeded from a .env file in
the working directory. Command-line flags are applied on top by the caller.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"chatview/internal/app/room"
)

const (
	defaultServerURL        = "ws://localhost:8080/chat"
	defaultViewPort         = 8090
	defaultSubmitRate       = 2.0
	defaultSubmitBurst      = 5
	defaultHandshakeTimeout = 10 * time.Second
)

// AppConfig contains all configuration parameters required for the client to run.
type AppConfig struct {
	// General Settings
	Environment string

	// Chat Connection Settings
	ServerURL        string
	Username         string
	HandshakeTimeout time.Duration

	// Display Settings
	AvatarBaseURL string

	// Local View API Settings
	ViewPort       int
	AllowedOrigins []string
	SubmitRate     float64
	SubmitBurst    int
}

// IsDevelopment reports whether the client runs in development mode.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// ViewEnabled reports whether the local view API should be served.
func (c *AppConfig) ViewEnabled() bool {
	return c.ViewPort >= 0
}

// LoadConfig reads .env (if present) and the environment, applies defaults
// and validates the result.
func LoadConfig() (*AppConfig, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	return FromEnv(os.Getenv)
}

// FromEnv builds an AppConfig from the given lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Settings ---
	cfg.Environment = getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// --- Chat Connection Settings ---
	cfg.ServerURL = getenv("CHAT_SERVER_URL")
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}

	cfg.Username = getenv("CHAT_USERNAME")

	cfg.HandshakeTimeout = defaultHandshakeTimeout
	if raw := getenv("HANDSHAKE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid HANDSHAKE_TIMEOUT environment variable: %w", err)
		}
		cfg.HandshakeTimeout = d
	}

	// --- Display Settings ---
	cfg.AvatarBaseURL = getenv("AVATAR_BASE_URL")
	if cfg.AvatarBaseURL == "" {
		cfg.AvatarBaseURL = room.DefaultAvatarBase
	}

	// --- Local View API Settings ---
	cfg.ViewPort = defaultViewPort
	if raw := getenv("VIEW_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid VIEW_PORT environment variable: %w", err)
		}
		cfg.ViewPort = port
	}

	originsStr := getenv("ALLOWED_ORIGINS")
	cfg.AllowedOrigins = []string{}
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	cfg.SubmitRate = defaultSubmitRate
	if raw := getenv("SUBMIT_RATE"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SUBMIT_RATE environment variable: %w", err)
		}
		cfg.SubmitRate = r
	}

	cfg.SubmitBurst = defaultSubmitBurst
	if raw := getenv("SUBMIT_BURST"); raw != "" {
		b, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SUBMIT_BURST environment variable: %w", err)
		}
		cfg.SubmitBurst = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the invariants between fields. It is called again after
// command-line overrides are applied.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid chat server URL %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("chat server URL %q must use ws or wss", c.ServerURL)
	}

	if c.ViewEnabled() && (c.ViewPort < 1024 || c.ViewPort > 65535) {
		return fmt.Errorf("view port %d is outside the recommended range (%d-%d); use a negative port to disable", c.ViewPort, 1024, 65535)
	}

	if c.SubmitRate <= 0 || c.SubmitBurst <= 0 {
		return fmt.Errorf("submit rate (%v) and burst (%d) must be positive", c.SubmitRate, c.SubmitBurst)
	}

	if c.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake timeout %s must not be negative", c.HandshakeTimeout)
	}

	return nil
}
