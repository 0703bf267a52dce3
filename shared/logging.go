package shared

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Format      string `json:"format"`
	ServiceName string `json:"service_name"`
}

// NewDefaultLoggingConfig returns the CLI defaults: warnings and above, text format
func NewDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:       "warn",
		Format:      "text",
		ServiceName: "vnmarket",
	}
}

// ValidateAndApplyDefaults replaces empty values with defaults
func (c *LoggingConfig) ValidateAndApplyDefaults() {
	defaults := NewDefaultLoggingConfig()

	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.ServiceName == "" {
		c.ServiceName = defaults.ServiceName
	}
}

// SetupLogging configures the global logrus logger. Output goes to w, which is
// standard error for the CLI since standard output carries the JSON document.
func SetupLogging(cfg LoggingConfig, w io.Writer) {
	cfg.ValidateAndApplyDefaults()
	if w == nil {
		w = os.Stderr
	}
	logrus.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.SetLevel(logrus.WarnLevel)
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using warn", cfg.Level)
	} else {
		logrus.SetLevel(level)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
}
