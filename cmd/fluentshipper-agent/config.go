// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all agent configuration.
//
// Tags:
//
//	env: Environment variable name
//	envDefault: Default value if not set
type Config struct {
	FluentAddr    string `env:"FLUENTSHIPPER_FLUENTD_ADDR" envDefault:"127.0.0.1:24224"`
	FluentNetwork string `env:"FLUENTSHIPPER_FLUENTD_NETWORK" envDefault:"tcp"` // tcp or unix
	Tag           string `env:"FLUENTSHIPPER_TAG" envDefault:"app.log"`
	Framing       string `env:"FLUENTSHIPPER_FRAMING" envDefault:"msgpack"` // msgpack or json

	BufferCapacity int           `env:"FLUENTSHIPPER_BUFFER_CAPACITY" envDefault:"8388608"`
	RetryMaxErrors int           `env:"FLUENTSHIPPER_RETRY_MAX_ERRORS" envDefault:"100"`
	RetryWait      time.Duration `env:"FLUENTSHIPPER_RETRY_WAIT" envDefault:"50ms"`

	AdminAddr string `env:"FLUENTSHIPPER_ADMIN_ADDR" envDefault:":9090"`

	LogLevel  string `env:"FLUENTSHIPPER_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"FLUENTSHIPPER_LOG_FORMAT" envDefault:"json"` // json or pretty
	LogFile   string `env:"FLUENTSHIPPER_LOG_FILE" envDefault:""`       // empty = stderr only
	LogMaxMB  int    `env:"FLUENTSHIPPER_LOG_MAX_MB" envDefault:"100"`
	LogMaxAge int    `env:"FLUENTSHIPPER_LOG_MAX_AGE_DAYS" envDefault:"28"`
}

// LoadConfig reads configuration from a .env file (if present) and the
// environment. Environment variables win over .env file values.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("fluentshipper-agent: no .env file found (using environment variables only)")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.FluentAddr == "" {
		return fmt.Errorf("FLUENTSHIPPER_FLUENTD_ADDR is required")
	}
	if c.FluentNetwork != "tcp" && c.FluentNetwork != "unix" {
		return fmt.Errorf("FLUENTSHIPPER_FLUENTD_NETWORK must be tcp or unix, got %q", c.FluentNetwork)
	}
	if c.Framing != "msgpack" && c.Framing != "json" {
		return fmt.Errorf("FLUENTSHIPPER_FRAMING must be msgpack or json, got %q", c.Framing)
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("FLUENTSHIPPER_BUFFER_CAPACITY must be > 0, got %d", c.BufferCapacity)
	}
	if c.RetryMaxErrors < 1 {
		return fmt.Errorf("FLUENTSHIPPER_RETRY_MAX_ERRORS must be > 0, got %d", c.RetryMaxErrors)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("FLUENTSHIPPER_LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "pretty" {
		return fmt.Errorf("FLUENTSHIPPER_LOG_FORMAT must be json or pretty, got %q", c.LogFormat)
	}
	return nil
}

// logConfig emits the loaded configuration as a structured log line.
func logConfig(logger zerolog.Logger, c *Config) {
	logger.Info().
		Str("fluentd_addr", c.FluentAddr).
		Str("fluentd_network", c.FluentNetwork).
		Str("tag", c.Tag).
		Str("framing", c.Framing).
		Int("buffer_capacity", c.BufferCapacity).
		Int("retry_max_errors", c.RetryMaxErrors).
		Dur("retry_wait", c.RetryWait).
		Str("admin_addr", c.AdminAddr).
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Msg("configuration loaded")
}
