package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"github.com/tirasundara/payment-converter/internal/control"
	"github.com/tirasundara/payment-converter/internal/security"
)

type Config struct {
	// Input limits
	MaxFileSize int64    `env:"CONVERTER_MAX_FILE_SIZE" envDefault:"52428800"`
	MaxLines    int      `env:"CONVERTER_MAX_LINES" envDefault:"1000000"`
	AllowedDirs []string `env:"CONVERTER_ALLOWED_DIRS" envSeparator:","`

	// NACHA handling
	ControlTotals string `env:"CONVERTER_CONTROL_TOTALS" envDefault:"warn"`
	NACHAStrict   bool   `env:"CONVERTER_NACHA_STRICT" envDefault:"false"`

	// Output
	OverwriteOutput bool   `env:"CONVERTER_OVERWRITE_OUTPUT" envDefault:"true"`
	InitiatingParty string `env:"CONVERTER_INITIATING_PARTY" envDefault:"ConvertISO20022"`

	// Batch runs
	Workers int `env:"CONVERTER_WORKERS" envDefault:"4"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the converter cannot run with.
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("CONVERTER_MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}
	if c.MaxLines <= 0 {
		return fmt.Errorf("CONVERTER_MAX_LINES must be positive, got %d", c.MaxLines)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("CONVERTER_WORKERS must be positive, got %d", c.Workers)
	}
	if _, err := control.ParsePolicy(c.ControlTotals); err != nil {
		return fmt.Errorf("CONVERTER_CONTROL_TOTALS: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) Limits() security.Limits {
	return security.Limits{MaxFileSize: c.MaxFileSize, MaxLines: c.MaxLines}
}

// PathPolicy allows AllowedDirs, or the home and temp directories when none
// are configured.
func (c *Config) PathPolicy() *security.PathPolicy {
	var dirs []string
	for _, d := range c.AllowedDirs {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 {
		return security.DefaultPathPolicy()
	}
	return security.NewPathPolicy(dirs...)
}

func (c *Config) ControlPolicy() control.Policy {
	p, err := control.ParsePolicy(c.ControlTotals)
	if err != nil {
		return control.PolicyWarn
	}
	return p
}

// NewLogger builds a logrus logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
