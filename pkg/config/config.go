// Package config loads exhume settings from defaults, an optional YAML file, a .env
// file and EXHUME_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel validation errors.
var (
	ErrInvalidTimeout  = errors.New("api timeout must be positive")
	ErrInvalidRate     = errors.New("api rate must not be negative")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config holds every exhume setting.
type Config struct {
	Output    OutputConfig    `mapstructure:"output"`
	Clone     CloneConfig     `mapstructure:"clone"`
	Filters   FiltersConfig   `mapstructure:"filters"`
	API       APIConfig       `mapstructure:"api"`
	GitHub    HostConfig      `mapstructure:"github"`
	GitLab    HostConfig      `mapstructure:"gitlab"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// OutputConfig controls where restored files go.
type OutputConfig struct {
	// Root is the parent of the default <name>_restored directories.
	Root string `mapstructure:"root"`
	// Manifest is the manifest file name. Empty disables the manifest.
	Manifest string `mapstructure:"manifest"`
}

// CloneConfig controls where remote repositories are cloned.
type CloneConfig struct {
	Root string `mapstructure:"root"`
}

// FiltersConfig holds filter sources.
type FiltersConfig struct {
	ExtensionsFile string `mapstructure:"extensions_file"`
}

// APIConfig bounds hosting API usage.
type APIConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Rate    float64       `mapstructure:"rate"`
}

// HostConfig holds credentials and endpoint of one hosting service.
type HostConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool   `mapstructure:"otlp_insecure"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.API.Timeout)
	}

	if c.API.Rate < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, c.API.Rate)
	}

	if !logLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("%w: %q (want debug, info, warn or error)", ErrInvalidLogLevel, c.Log.Level)
	}

	return nil
}
