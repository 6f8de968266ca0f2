// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package config loads coapattr configuration from the environment and
// option registry files.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/absmach/coapattr/pkg/attributes"
	"github.com/absmach/coapattr/pkg/errors"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix is the prefix of all coapattr environment variables.
const EnvPrefix = "COAPATTR_"

// Config holds the runtime configuration.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT"   envDefault:"json"`
	MetricsAddr string `env:"METRICS_ADDR"`

	// OptionsFile is a TOML or YAML file with other-option definitions.
	OptionsFile string `env:"OPTIONS_FILE"`
	// SnapshotDir holds the discovery snapshot store. Empty keeps
	// snapshots in memory.
	SnapshotDir string `env:"SNAPSHOT_DIR"`

	// StrictOptions makes invalid options fail the message instead of
	// being skipped and reported.
	StrictOptions bool `env:"STRICT_OPTIONS" envDefault:"false"`
	Workers       int  `env:"WORKERS"        envDefault:"4"`

	Methods    attributes.MethodSet `env:"METHODS"     envDefault:"*"`
	Observable bool                 `env:"OBSERVABLE"  envDefault:"true"`
	EarlyAck   bool                 `env:"EARLY_ACK"   envDefault:"false"`
}

// Load parses the configuration from the environment.
func Load(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, err
	}
	if c.Workers < 1 {
		return Config{}, fmt.Errorf("%w: workers must be positive, got %d", errors.ErrInvalidInput, c.Workers)
	}
	return c, nil
}

// Resource returns the resource configuration requests are checked against.
func (c Config) Resource() attributes.ResourceConfig {
	return attributes.ResourceConfig{
		Methods:    c.Methods,
		Observable: c.Observable,
		EarlyAck:   c.EarlyAck,
	}
}

// Logger creates a logger writing to w with the configured level and format.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", errors.ErrInvalidInput, c.LogLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.LogFormat) {
	case "json", "":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: log format %q", errors.ErrInvalidInput, c.LogFormat)
	}
}
