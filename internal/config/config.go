// Package config provides centralized configuration management for the
// notes frontend. It loads configuration from CLI flags and environment
// variables, validates required fields, and provides sensible defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rishi00009/markdown-notes-frontend/internal/ratelimit"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr   string
	BaseURL      string
	TemplatesDir string

	// Notes backend
	NotesAPIURL string        // Base URL of the notes REST backend (e.g. https://host/api/notes)
	HTTPTimeout time.Duration // Per-request timeout for backend calls

	// View state
	NotificationTTL time.Duration // How long a popup notification stays visible

	// Rate limiting
	RateLimitConfig ratelimit.Config
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses CLI flags and returns them. Call before LoadConfig.
func ParseFlags() (addr, apiURL string) {
	flag.StringVar(&addr, "addr", "", "Listen address (default :8080, overrides LISTEN_ADDR env var)")
	flag.StringVar(&apiURL, "api", "", "Notes backend URL (overrides NOTES_API_URL env var)")
	flag.Parse()
	return addr, apiURL
}

// LoadConfig loads configuration from environment variables and CLI flag values.
// Non-empty addr and apiURL flags override the corresponding env vars.
func LoadConfig(addr, apiURL string) (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":8080")
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BaseURL = strings.TrimSpace(os.Getenv("BASE_URL"))
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.ListenAddr
	}
	cfg.TemplatesDir = getEnvOrDefault("TEMPLATES_DIR", "./web/templates")

	cfg.NotesAPIURL = strings.TrimSpace(os.Getenv("NOTES_API_URL"))
	if apiURL != "" {
		cfg.NotesAPIURL = strings.TrimSpace(apiURL)
	}
	cfg.HTTPTimeout = parseDurationOrDefault("HTTP_TIMEOUT", 15*time.Second)

	cfg.NotificationTTL = parseDurationOrDefault("NOTIFICATION_TTL", 2500*time.Millisecond)

	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", 20),
		Burst:           parseIntOrDefault("RATE_LIMIT_BURST", 40),
		CleanupInterval: parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.NotesAPIURL == "" {
		errs = append(errs, "NOTES_API_URL is required (base URL of the notes backend, e.g. https://host/api/notes)")
	} else if u, err := url.Parse(c.NotesAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "NOTES_API_URL must be an absolute URL")
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT must be positive")
	}
	if c.NotificationTTL <= 0 {
		errs = append(errs, "NOTIFICATION_TTL must be positive")
	}

	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "markdown-notes frontend starting...")
	fmt.Fprintf(os.Stderr, "  Backend: %s\n", c.NotesAPIURL)
	fmt.Fprintf(os.Stderr, "  Listen:  %s\n", c.ListenAddr)
	fmt.Fprintf(os.Stderr, "  Base:    %s\n", c.BaseURL)
	fmt.Fprintf(os.Stderr, "  Templates: %s\n", c.TemplatesDir)
	fmt.Fprintln(os.Stderr, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustLoadConfig loads configuration and panics if validation fails.
// Use this in main() when you want the application to fail fast on bad config.
func MustLoadConfig(addr, apiURL string) *Config {
	cfg, err := LoadConfig(addr, apiURL)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
