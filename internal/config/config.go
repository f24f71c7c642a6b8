// Package config loads the archai configuration: defaults, then an
// optional YAML file, then environment overrides, then validation.
// Durations are stored as strings in the file and parsed through
// accessors so a malformed value degrades to the default instead of
// failing the load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all archai configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Generation GenerationConfig `yaml:"generation"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Regulation RegulationConfig `yaml:"regulation"`

	// Models overrides the routed model per agent role
	// (input, spatial, critic, refinement, cost, furniture).
	Models map[string]string `yaml:"models"`

	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`

	// CORSOrigins lists the allowed origins; ["*"] is the permissive
	// default for local clients.
	CORSOrigins []string `yaml:"cors_origins"`

	// MaxConcurrentJobs caps orchestrations across all users.
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs" validate:"min=1"`
	// PerUserJobs caps active jobs per X-User-ID.
	PerUserJobs int `yaml:"per_user_jobs" validate:"min=1"`

	ShutdownTimeout   string `yaml:"shutdown_timeout"`
	HeartbeatInterval string `yaml:"heartbeat_interval"`
}

// GeminiConfig configures the LLM client.
type GeminiConfig struct {
	// APIKey is normally supplied via GEMINI_API_KEY rather than the file.
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	MaxRetries  int    `yaml:"max_retries" validate:"min=1,max=10"`
	CallTimeout string `yaml:"call_timeout"`
	RateLimit   string `yaml:"rate_limit"`
}

// GenerationConfig bounds the orchestrator loop.
type GenerationConfig struct {
	MaxIterations int `yaml:"max_iterations" validate:"min=1,max=10"`
}

// JobsConfig bounds the in-memory job store.
type JobsConfig struct {
	Capacity      int    `yaml:"capacity" validate:"min=1"`
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// RegulationConfig points at the optional municipal-profile override
// file. When Watch is set the file is hot-reloaded on change.
type RegulationConfig struct {
	OverridesPath string `yaml:"overrides_path"`
	Watch         bool   `yaml:"watch"`
}

// LoggingConfig configures the zap logger built in cmd.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			CORSOrigins:       []string{"*"},
			MaxConcurrentJobs: 8,
			PerUserJobs:       2,
			ShutdownTimeout:   "10s",
			HeartbeatInterval: "15s",
		},
		Gemini: GeminiConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			MaxRetries:  3,
			CallTimeout: "120s",
			RateLimit:   "100ms",
		},
		Generation: GenerationConfig{
			MaxIterations: 3,
		},
		Jobs: JobsConfig{
			Capacity:      1000,
			TTL:           "30m",
			SweepInterval: "1m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way. The result is
// validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if url := os.Getenv("ARCHAI_GEMINI_BASE_URL"); url != "" {
		c.Gemini.BaseURL = url
	}
	if host := os.Getenv("ARCHAI_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("ARCHAI_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if iters := os.Getenv("ARCHAI_MAX_ITERATIONS"); iters != "" {
		if n, err := strconv.Atoi(iters); err == nil {
			c.Generation.MaxIterations = n
		}
	}
	if level := os.Getenv("ARCHAI_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("ARCHAI_PROFILE_OVERRIDES"); path != "" {
		c.Regulation.OverridesPath = path
	}
}

var validate = validator.New()

// Validate checks structural constraints. The API key is deliberately
// not required here: serve fails fast on startup, but offline commands
// (version, validators on a saved plan) work without one.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ===== DURATION ACCESSORS =====

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ShutdownTimeout returns how long graceful shutdown may take.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout, 10*time.Second)
}

// HeartbeatIntervalDuration returns the SSE keep-alive spacing.
func (c *ServerConfig) HeartbeatIntervalDuration() time.Duration {
	return parseDuration(c.HeartbeatInterval, 15*time.Second)
}

// CallTimeoutDuration returns the per-LLM-call wall clock ceiling.
func (c *GeminiConfig) CallTimeoutDuration() time.Duration {
	return parseDuration(c.CallTimeout, 120*time.Second)
}

// RateLimitDuration returns the minimum spacing between LLM calls.
func (c *GeminiConfig) RateLimitDuration() time.Duration {
	return parseDuration(c.RateLimit, 100*time.Millisecond)
}

// TTLDuration returns how long finished jobs are retained.
func (c *JobsConfig) TTLDuration() time.Duration {
	return parseDuration(c.TTL, 30*time.Minute)
}

// SweepIntervalDuration returns the background sweep cadence.
func (c *JobsConfig) SweepIntervalDuration() time.Duration {
	return parseDuration(c.SweepInterval, time.Minute)
}
