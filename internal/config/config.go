// Package config loads TripScan settings from a YAML file, an optional
// .env file and TRIPSCAN_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given
const DefaultPath = "tripscan.yaml"

// DefaultFallbackImageURL is the placeholder shown for destinations
// whose image lookup failed.
const DefaultFallbackImageURL = "https://via.placeholder.com/400x300?text=Image+Not+Found"

// DefaultMaxConcurrency bounds parallel image lookups when unset
const DefaultMaxConcurrency = 3

// Config holds all TripScan configuration.
type Config struct {
	API             APIConfig             `yaml:"api"`
	Chat            ChatConfig            `yaml:"chat"`
	Recommendations RecommendationsConfig `yaml:"recommendations"`
	Storage         StorageConfig         `yaml:"storage"`
	Logging         LoggingConfig         `yaml:"logging"`
}

// APIConfig configures the backend REST client.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

// ChatConfig configures chat synchronization.
type ChatConfig struct {
	PollInterval string `yaml:"poll_interval"`
}

// RecommendationsConfig configures recommendation aggregation.
type RecommendationsConfig struct {
	TopN             int    `yaml:"top_n"`           // cities that get an image lookup
	MaxConcurrency   int    `yaml:"max_concurrency"` // parallel image lookups
	FallbackImageURL string `yaml:"fallback_image_url"`
}

// StorageConfig configures client-local persistence.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig configures the file logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // defaults to <data_dir>/tripscan.log
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			Timeout:   "30s",
			UserAgent: "TripScan/1.0",
		},
		Chat: ChatConfig{
			PollInterval: "2s",
		},
		Recommendations: RecommendationsConfig{
			TopN:             3,
			MaxConcurrency:   DefaultMaxConcurrency,
			FallbackImageURL: DefaultFallbackImageURL,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path. A missing file is not an error:
// defaults are used and environment overrides still apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// .env is optional; variables already set in the environment win
	_ = godotenv.Load()

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TRIPSCAN_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("TRIPSCAN_API_TIMEOUT"); v != "" {
		c.API.Timeout = v
	}
	if v := os.Getenv("TRIPSCAN_POLL_INTERVAL"); v != "" {
		c.Chat.PollInterval = v
	}
	if v := os.Getenv("TRIPSCAN_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Recommendations.TopN = n
		}
	}
	if v := os.Getenv("TRIPSCAN_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Recommendations.MaxConcurrency = n
		}
	}
	if v, ok := os.LookupEnv("TRIPSCAN_FALLBACK_IMAGE_URL"); ok {
		c.Recommendations.FallbackImageURL = v
	}
	if v := os.Getenv("TRIPSCAN_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("TRIPSCAN_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TRIPSCAN_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}
	if d, err := time.ParseDuration(c.Chat.PollInterval); err != nil {
		return fmt.Errorf("chat.poll_interval: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("chat.poll_interval must be positive")
	}
	if c.Recommendations.TopN < 1 {
		return fmt.Errorf("recommendations.top_n must be at least 1")
	}
	// 0 means the default
	if c.Recommendations.MaxConcurrency < 0 {
		return fmt.Errorf("recommendations.max_concurrency must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// GetAPITimeout returns the HTTP client timeout.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetPollInterval returns the chat polling interval.
func (c *Config) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Chat.PollInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// GetMaxConcurrency returns the image lookup limit, never below one
func (c *Config) GetMaxConcurrency() int {
	if c.Recommendations.MaxConcurrency < 1 {
		return DefaultMaxConcurrency
	}
	return c.Recommendations.MaxConcurrency
}

// GetLogFile returns the log file path.
func (c *Config) GetLogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Storage.DataDir, "tripscan.log")
}
