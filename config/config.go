// Package config provides YAML configuration parsing for DistroBoard.
//
// This package enables running DistroBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Distribution Control
//	port: 8080
//	poll_interval: 2s
//	credentials_file: ${HOME}/.config/distroboard/credentials.yaml
//	auto_start: true
//
//	dynamodb:
//	  endpoint: ${DYNAMODB_ENDPOINT:-}
//
//	display:
//	  timezone: Europe/London
//	  time_format: "2006-01-02 15:04:05"
//
//	log:
//	  level: info
//	  file: /var/log/distroboard/distroboard.log
//
//	metrics:
//	  enabled: true
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/distroboard/internal/logging"
)

const (
	// minPollInterval keeps the scan rate at one per second or slower.
	minPollInterval = 1 * time.Second

	defaultPort         = 8080
	defaultPollInterval = 2 * time.Second
)

// Config is the root configuration structure for DistroBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "DistroBoard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between scans while a session runs.
	// Accepts duration strings like "2s", "1m". Defaults to 2s.
	PollInterval Duration `yaml:"poll_interval"`

	// CredentialsFile is where operator credentials are persisted.
	// Empty uses the per-user config directory.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	CredentialsFile string `yaml:"credentials_file"`

	// AutoStart starts a session on launch when complete credentials are stored.
	AutoStart bool `yaml:"auto_start"`

	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DynamoDBConfig tunes the DynamoDB client.
type DynamoDBConfig struct {
	// Endpoint overrides the service endpoint, e.g. http://localhost:8000
	// for DynamoDB Local. Supports environment variable substitution.
	Endpoint string `yaml:"endpoint"`
}

// DisplayConfig controls how replication timestamps are rendered.
type DisplayConfig struct {
	// Timezone is an IANA zone name such as "UTC" or "Europe/London".
	// Empty means the local zone of the host.
	Timezone string `yaml:"timezone"`

	// TimeFormat is a Go reference-time layout.
	// Empty means "2006-01-02 15:04:05".
	TimeFormat string `yaml:"time_format"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`

	// File enables size-based log rotation at this path.
	// Empty logs to stderr. Supports environment variable substitution.
	File string `yaml:"file"`

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled serves /metrics. Defaults to true.
	Enabled *bool `yaml:"enabled"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MetricsEnabled reports whether /metrics should be served.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// Location resolves Display.Timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Display.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return nil, fmt.Errorf("display.timezone: %w", err)
	}
	return loc, nil
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns a configuration with every default applied. It is used
// when no configuration file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Title, CredentialsFile,
// DynamoDB.Endpoint and Log.File. Defaults are applied for Port (8080) and
// PollInterval (2s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(defaultPollInterval)
	}
}

// expand substitutes environment variables in string fields that commonly
// carry paths or hosts.
func (c *Config) expand() error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"title", &c.Title},
		{"credentials_file", &c.CredentialsFile},
		{"dynamodb.endpoint", &c.DynamoDB.Endpoint},
		{"log.file", &c.Log.File},
	}

	for _, f := range fields {
		expanded, err := expandEnvVars(*f.ptr)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = expanded
	}
	return nil
}

// Validate checks the configuration. It is run by [Parse] and must be run
// again after applying overrides.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}

	if c.DynamoDB.Endpoint != "" {
		parsedURL, err := url.Parse(c.DynamoDB.Endpoint)
		if err != nil {
			return fmt.Errorf("dynamodb.endpoint: invalid url: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("dynamodb.endpoint: url scheme must be http or https, got %q", parsedURL.Scheme)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings cannot be negative")
	}

	return nil
}
