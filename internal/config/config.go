// Package config loads process configuration from TOLSTACK_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/danielpatrickdp/tolstack/internal/chain"
	"github.com/danielpatrickdp/tolstack/internal/stackup"
	"github.com/danielpatrickdp/tolstack/internal/verdict"
)

// #region config
// Config holds the daemon and CLI settings. Analysis fields seed the
// per-document defaults.
type Config struct {
	Addr        string `env:"TOLSTACK_ADDR" envDefault:":50061"`
	MetricsAddr string `env:"TOLSTACK_METRICS_ADDR" envDefault:":9464"`
	DBPath      string `env:"TOLSTACK_DB" envDefault:"tolstack.db"`
	LogLevel    string `env:"TOLSTACK_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"TOLSTACK_LOG_FORMAT" envDefault:"text"`

	SigmaLevel float64 `env:"TOLSTACK_SIGMA_LEVEL" envDefault:"6"`
	Iterations int     `env:"TOLSTACK_ITERATIONS" envDefault:"10000"`
	Workers    int     `env:"TOLSTACK_WORKERS" envDefault:"1"`
	BatchLimit int     `env:"TOLSTACK_BATCH_LIMIT" envDefault:"4"`

	MinCpk   float64 `env:"TOLSTACK_MIN_CPK" envDefault:"1.33"`
	MinYield float64 `env:"TOLSTACK_MIN_YIELD" envDefault:"99.73"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// #endregion config

// #region analysis-defaults
// Stackup returns the 1-D analysis defaults.
func (c Config) Stackup() stackup.Config {
	s := stackup.DefaultConfig()
	s.SigmaLevel = c.SigmaLevel
	s.Iterations = c.Iterations
	s.Workers = c.Workers
	return s
}

// Chain returns the 3-D analysis defaults.
func (c Config) Chain() chain.Config {
	ch := chain.DefaultConfig()
	ch.Iterations = c.Iterations
	ch.Workers = c.Workers
	return ch
}

// Verdict returns the acceptance thresholds.
func (c Config) Verdict() verdict.Config {
	return verdict.Config{MinCpk: c.MinCpk, MinYield: c.MinYield}
}

// #endregion analysis-defaults

// #region logger
// Logger builds the slog logger described by LogLevel and LogFormat.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// #endregion logger
