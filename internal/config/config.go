// Package config provides environment-driven configuration for nodelearn.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Duplicate policies for re-suggested concepts (see DuplicatePolicy).
const (
	DuplicateSkip      = "skip"
	DuplicateCrossLink = "cross-link"
)

// Re-suggest policies: "never" (the default) suppresses a candidate for the
// rest of the session once it has been offered on a node; "always" disables
// the seen filter, so an unaccepted candidate may come back on a later
// expansion.
const (
	ResuggestNever  = "never"
	ResuggestAlways = "always"
)

// Config holds all application configuration values.
type Config struct {
	DatabaseURL       Secret
	Port              string
	ListenHost        string
	CORSOrigins       []string
	LogLevel          string
	Provider          string // google | groq
	GeminiAPIKey      Secret
	GeminiModel       string
	GroqAPIKey        Secret
	GroqURL           string
	GroqModel         string
	SuggestionTimeout time.Duration
	MaxResults        int
	DuplicatePolicy   string
	ResuggestPolicy   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     Secret(envOrDefault("DATABASE_URL", "")),
		Port:            envOrDefault("PORT", "3040"),
		ListenHost:      envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		Provider:        envOrDefault("PROVIDER", "google"),
		GeminiAPIKey:    Secret(envOrDefault("GEMINI_API_KEY", "")),
		GeminiModel:     envOrDefault("GEMINI_MODEL", ""),
		GroqAPIKey:      Secret(envOrDefault("GROQ_API_KEY", "")),
		GroqURL:         envOrDefault("GROQ_URL", "https://api.groq.com/openai/v1"),
		GroqModel:       envOrDefault("GROQ_MODEL", ""),
		DuplicatePolicy: envOrDefault("DUPLICATE_POLICY", DuplicateCrossLink),
		ResuggestPolicy: envOrDefault("RESUGGEST_POLICY", ResuggestNever),
	}

	timeoutMs, err := strconv.Atoi(envOrDefault("SUGGESTION_TIMEOUT_MS", "20000"))
	if err != nil || timeoutMs < 1000 || timeoutMs > 120000 {
		return nil, fmt.Errorf("SUGGESTION_TIMEOUT_MS must be an integer between 1000 and 120000")
	}
	cfg.SuggestionTimeout = time.Duration(timeoutMs) * time.Millisecond

	maxResults, err := strconv.Atoi(envOrDefault("MAX_RESULTS", "5"))
	if err != nil || maxResults < 1 || maxResults > 20 {
		return nil, fmt.Errorf("MAX_RESULTS must be an integer between 1 and 20")
	}
	cfg.MaxResults = maxResults

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateProvider(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	return c.validatePolicies()
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	return nil
}

func (c *Config) validateProvider() error {
	switch c.Provider {
	case "google":
		if c.GeminiAPIKey.Value() == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when PROVIDER is google")
		}
	case "groq":
		if c.GroqAPIKey.Value() == "" {
			return fmt.Errorf("GROQ_API_KEY is required when PROVIDER is groq")
		}

		u, err := url.ParseRequestURI(c.GroqURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("GROQ_URL is not a valid URL")
		}
	default:
		return fmt.Errorf("PROVIDER must be 'google' or 'groq', got %q", c.Provider)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}

		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validatePolicies() error {
	switch c.DuplicatePolicy {
	case DuplicateSkip, DuplicateCrossLink:
	default:
		return fmt.Errorf("DUPLICATE_POLICY must be 'skip' or 'cross-link', got %q", c.DuplicatePolicy)
	}

	switch c.ResuggestPolicy {
	case ResuggestNever, ResuggestAlways:
	default:
		return fmt.Errorf("RESUGGEST_POLICY must be 'never' or 'always', got %q", c.ResuggestPolicy)
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
