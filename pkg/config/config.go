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

// Config holds all configuration options for tumbledee
type Config struct {
	// Tumblr API settings
	Tumblr TumblrConfig `yaml:"tumblr" json:"tumblr"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Resume state
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TumblrConfig holds API endpoint and credential settings
type TumblrConfig struct {
	APIBaseURL      string `yaml:"api_base_url" json:"api_base_url"`
	DefaultDomain   string `yaml:"default_domain" json:"default_domain"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
}

// RateLimitConfig holds rate limiting configuration.
// Zero requests per minute disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	RequestTimeout      time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// CheckpointConfig holds resume state settings
type CheckpointConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tumblr: TumblrConfig{
			APIBaseURL:      "https://api.tumblr.com",
			DefaultDomain:   ".tumblr.com",
			CredentialsFile: "~/.credentials.json",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
		},
		Output: OutputConfig{
			BaseDirectory: ".",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 1,
			RequestTimeout:      30 * time.Second,
		},
		Checkpoint: CheckpointConfig{
			Enabled: true,
			Path:    filepath.Join(os.Getenv("HOME"), ".config", "tumbledee", "checkpoints.db"),
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from TUMBLEDEE_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("TUMBLEDEE_API_BASE_URL"); v != "" {
		c.Tumblr.APIBaseURL = v
	}
	if v := os.Getenv("TUMBLEDEE_CREDENTIALS_FILE"); v != "" {
		c.Tumblr.CredentialsFile = v
	}
	if v := os.Getenv("TUMBLEDEE_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("TUMBLEDEE_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TUMBLEDEE_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("TUMBLEDEE_CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TUMBLEDEE_CONCURRENT_DOWNLOADS: %w", err))
		} else {
			c.Download.ConcurrentDownloads = n
		}
	}
	if v := os.Getenv("TUMBLEDEE_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TUMBLEDEE_REQUEST_TIMEOUT: %w", err))
		} else {
			c.Download.RequestTimeout = d
		}
	}
	if v := os.Getenv("TUMBLEDEE_CHECKPOINT_ENABLED"); v != "" {
		c.Checkpoint.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("TUMBLEDEE_CHECKPOINT_PATH"); v != "" {
		c.Checkpoint.Path = v
	}
	if v := os.Getenv("TUMBLEDEE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TUMBLEDEE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the default locations and is not an error when none exists.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"tumbledee.yaml",
		".tumbledee.yaml",
		".tumbledee.yml",
		filepath.Join(home, ".config", "tumbledee", "config.yaml"),
		filepath.Join(home, ".config", "tumbledee", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Tumblr.APIBaseURL == "" {
		errs = append(errs, errors.New("tumblr API base URL is required"))
	}
	if c.Tumblr.DefaultDomain != "" && !strings.HasPrefix(c.Tumblr.DefaultDomain, ".") {
		errs = append(errs, errors.New("default domain must start with '.'"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Checkpoint.Enabled && c.Checkpoint.Path == "" {
		errs = append(errs, errors.New("checkpoint path is required when checkpoints are enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies flags that were explicitly set on the command line
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["credentials"].(string); ok && v != "" {
		c.Tumblr.CredentialsFile = v
	}
	if v, ok := flags["concurrent"].(int); ok && v > 0 {
		c.Download.ConcurrentDownloads = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["no-checkpoint"].(bool); ok && v {
		c.Checkpoint.Enabled = false
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tumbledee.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
