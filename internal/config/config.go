// internal/config/config.go
package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/valpere/GIVerify/internal/browser"
	"github.com/valpere/GIVerify/internal/monitoring"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	config := &Config{
		Browser: *browser.DefaultBrowserConfig(),
		Metrics: monitoring.DefaultMetricsConfig(),
	}
	applyDefaults(config)
	return config
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, eris.New("configuration filename cannot be empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Errorf("configuration file not found: %s", filename)
		}
		return nil, eris.Wrap(err, "failed to read configuration file")
	}

	return LoadFromBytes(data)
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, eris.New("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read from reader")
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML over the defaults, expanding ${VAR} and
// ${VAR:-fallback} references first
func LoadFromBytes(data []byte) (*Config, error) {
	config := &Config{
		Browser: *browser.DefaultBrowserConfig(),
		Metrics: monitoring.DefaultMetricsConfig(),
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		expanded := expandEnvironmentVariables(string(data))
		if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
			return nil, eris.Wrap(err, "failed to parse YAML configuration")
		}
	}

	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid configuration")
	}

	return config, nil
}

// SaveToWriter writes config as YAML
func SaveToWriter(config *Config, writer io.Writer) error {
	if config == nil {
		return eris.New("configuration cannot be nil")
	}
	if writer == nil {
		return eris.New("writer cannot be nil")
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(config); err != nil {
		return eris.Wrap(err, "failed to marshal configuration to YAML")
	}
	return encoder.Close()
}

// expandEnvironmentVariables substitutes ${VAR} and ${VAR:-fallback}
func expandEnvironmentVariables(content string) string {
	return os.Expand(content, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value, ok := os.LookupEnv(name); ok && value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		return ""
	})
}

// applyDefaults applies default values to the configuration
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 15 * time.Second
	}
	// A cold request can wait behind a queue of multi-minute extractions.
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 10 * time.Minute
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	if config.Browser.UserAgent == "" {
		config.Browser.UserAgent = browser.DefaultUserAgent
	}
	if config.Browser.ViewportWidth == 0 {
		config.Browser.ViewportWidth = 1366
	}
	if config.Browser.ViewportHeight == 0 {
		config.Browser.ViewportHeight = 768
	}

	defaults := monitoring.DefaultMetricsConfig()
	if config.Metrics.Namespace == "" {
		config.Metrics.Namespace = defaults.Namespace
	}
	if config.Metrics.Subsystem == "" {
		config.Metrics.Subsystem = defaults.Subsystem
	}
	if config.Metrics.Path == "" {
		config.Metrics.Path = defaults.Path
	}
}
