// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config holding every default.
// - Load(ctx) layers a YAML file and MATCHSIM_* environment variables on top.
// - Validation and load failures wrap this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/matchsim/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of match simulation workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory simulation job queue.
	QueueSize int `koanf:"queue_size"`

	// QuarterLengthSeconds is the default quarter length for submitted matches.
	QuarterLengthSeconds int `koanf:"quarter_length_seconds"`

	// Engine tuning. Unset fields keep the engine defaults.
	TickSeconds             int     `koanf:"tick_seconds"`
	OnFieldSize             int     `koanf:"on_field_size"`
	SnapshotEveryTicks      int     `koanf:"snapshot_every_ticks"`
	MaxInjuries             int     `koanf:"max_injuries"`
	MaxQuarterSeconds       int     `koanf:"max_quarter_seconds"`
	BaseInjuryRatePerMinute float64 `koanf:"base_injury_rate_per_minute"`
	FatigueDecayPerMinute   float64 `koanf:"fatigue_decay_per_minute"`
	BenchRecoveryPerMinute  float64 `koanf:"bench_recovery_per_minute"`
	QuarterBreakRecovery    float64 `koanf:"quarter_break_recovery"`
	DefaultInterchanges     int     `koanf:"default_interchanges"`

	// ReplayDir enables compressed replay bundles when set.
	ReplayDir string `koanf:"replay_dir"`

	// InjuryDBPath selects the SQLite injury history store when set;
	// otherwise history is kept in memory.
	InjuryDBPath string `koanf:"injury_db_path"`

	// CORSOrigins is a comma-separated list of allowed origins.
	CORSOrigins string `koanf:"cors_origins"`

	// OTLPEndpoint enables trace export over OTLP/HTTP when set, e.g. "localhost:4318".
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// New creates a Config holding the defaults.
func New() *Config {
	t := model.DefaultTuning()
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		WorkerCount:             runtime.NumCPU(),
		QueueSize:               1024,
		QuarterLengthSeconds:    1200,
		TickSeconds:             t.TickSeconds,
		OnFieldSize:             t.OnFieldSize,
		SnapshotEveryTicks:      t.SnapshotEveryTicks,
		MaxInjuries:             t.MaxInjuries,
		MaxQuarterSeconds:       t.MaxQuarterSeconds,
		BaseInjuryRatePerMinute: t.BaseInjuryRatePerMinute,
		FatigueDecayPerMinute:   t.FatigueDecayPerMinute,
		BenchRecoveryPerMinute:  t.BenchRecoveryPerMinute,
		QuarterBreakRecovery:    t.QuarterBreakRecovery,
		DefaultInterchanges:     t.DefaultInterchanges,
		CORSOrigins:             "*",
	}
}

// Tuning projects the engine tuning from the configuration.
func (c *Config) Tuning() model.Tuning {
	t := model.DefaultTuning()
	t.TickSeconds = c.TickSeconds
	t.OnFieldSize = c.OnFieldSize
	t.SnapshotEveryTicks = c.SnapshotEveryTicks
	t.MaxInjuries = c.MaxInjuries
	t.MaxQuarterSeconds = c.MaxQuarterSeconds
	t.BaseInjuryRatePerMinute = c.BaseInjuryRatePerMinute
	t.FatigueDecayPerMinute = c.FatigueDecayPerMinute
	t.BenchRecoveryPerMinute = c.BenchRecoveryPerMinute
	t.QuarterBreakRecovery = c.QuarterBreakRecovery
	t.DefaultInterchanges = c.DefaultInterchanges
	return t
}

// Origins splits CORSOrigins into a list, dropping blanks.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("worker_count must be positive: %w", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("queue_size must be positive: %w", ErrInvalidConfig)
	case c.QuarterLengthSeconds <= 0:
		return fmt.Errorf("quarter_length_seconds must be positive: %w", ErrInvalidConfig)
	case c.QuarterLengthSeconds > c.MaxQuarterSeconds:
		return fmt.Errorf("quarter_length_seconds exceeds max_quarter_seconds: %w", ErrInvalidConfig)
	}
	if err := c.Tuning().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
