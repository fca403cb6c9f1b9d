// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/pagelens/internal/dom/serializer"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Serializer serializer.Config `mapstructure:"serializer" yaml:"serializer"`
	Capture    CaptureConfig     `mapstructure:"capture" yaml:"capture"`
	Render     RenderConfig      `mapstructure:"render" yaml:"render"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"serviceName" yaml:"serviceName"`
	AddSource   bool   `mapstructure:"addSource" yaml:"addSource"`

	// File sink (optional, rotated).
	LogFile    string `mapstructure:"logFile" yaml:"logFile"`
	MaxSize    int    `mapstructure:"maxSize" yaml:"maxSize"` // megabytes
	MaxBackups int    `mapstructure:"maxBackups" yaml:"maxBackups"`
	MaxAge     int    `mapstructure:"maxAge" yaml:"maxAge"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults applies default values if they aren't set in the config file.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.ServiceName == "" {
		c.ServiceName = "pagelens"
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 50
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 14
	}
}

// CaptureConfig controls live snapshot acquisition.
type CaptureConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	NavigationTimeout time.Duration `mapstructure:"navigationTimeout" yaml:"navigationTimeout"`
	PostLoadWait      time.Duration `mapstructure:"postLoadWait" yaml:"postLoadWait"`
	ViewportWidth     int           `mapstructure:"viewportWidth" yaml:"viewportWidth"`
	ViewportHeight    int           `mapstructure:"viewportHeight" yaml:"viewportHeight"`
	// Requests per second across a multi-URL capture run.
	RateLimit float64 `mapstructure:"rateLimit" yaml:"rateLimit"`
}

// SetDefaults applies default values if they aren't set in the config file.
func (c *CaptureConfig) SetDefaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 45 * time.Second
	}
	if c.PostLoadWait <= 0 {
		c.PostLoadWait = 500 * time.Millisecond
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1280
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 900
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 1
	}
}

// RenderConfig controls the text renderer.
type RenderConfig struct {
	// IncludeAttributes is the attribute allow-list passed to the renderer.
	IncludeAttributes []string `mapstructure:"includeAttributes" yaml:"includeAttributes"`
}

// DefaultIncludeAttributes is the attribute allow-list used when the config
// file does not provide one.
var DefaultIncludeAttributes = []string{
	"title", "type", "checked", "name", "role", "value", "placeholder",
	"alt", "aria-label", "aria-expanded", "href", "src", "pattern",
	"format", "expected_format", "invalid", "required", "expanded",
	"multiple", "min", "max", "step",
}

// SetDefaults applies default values if they aren't set in the config file.
func (c *RenderConfig) SetDefaults() {
	if len(c.IncludeAttributes) == 0 {
		c.IncludeAttributes = append([]string(nil), DefaultIncludeAttributes...)
	}
}

// Load unmarshals the viper state into a Config and applies defaults.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Logger.SetDefaults()
	cfg.Serializer.SetDefaults()
	cfg.Capture.SetDefaults()
	cfg.Render.SetDefaults()
	return &cfg, nil
}
