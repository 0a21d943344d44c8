// internal/config/types.go
package config

import (
	"time"

	"github.com/valpere/GIVerify/internal/browser"
	"github.com/valpere/GIVerify/internal/monitoring"
)

// Config is the service configuration. Extraction timeouts and retry
// counts are fixed in code and deliberately absent here.
type Config struct {
	Server  ServerConfig             `yaml:"server" json:"server"`
	Logging LoggingConfig            `yaml:"logging" json:"logging"`
	Browser browser.BrowserConfig    `yaml:"browser" json:"browser"`
	Metrics monitoring.MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ServerConfig configures the HTTP boundary
type ServerConfig struct {
	Address         string        `yaml:"address" json:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

// ValidationError describes one invalid setting
type ValidationError struct {
	Field   string
	Message string
}

func (ve ValidationError) Error() string {
	return ve.Field + ": " + ve.Message
}
