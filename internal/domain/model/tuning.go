package model

import "fmt"

// Tuning holds the engine constants. DefaultTuning documents every default.
type Tuning struct {
	// TickSeconds is the simulated duration of one tick.
	TickSeconds int `json:"tick_seconds"`
	// OnFieldSize is the number of players each team fields.
	OnFieldSize int `json:"on_field_size"`
	// SnapshotEveryTicks throttles snapshots; 0 emits only the final one.
	SnapshotEveryTicks int `json:"snapshot_every_ticks"`
	// MaxInjuries caps new injuries across the whole match.
	MaxInjuries int `json:"max_injuries"`
	// MaxQuarterSeconds bounds every quarter length a request may ask for.
	MaxQuarterSeconds int `json:"max_quarter_seconds"`

	// BaseInjuryRatePerMinute is the injury probability per on-field minute
	// for a fresh player of durability 60 in open play.
	BaseInjuryRatePerMinute float64 `json:"base_injury_rate_per_minute"`
	// FatigueRiskWeight scales how much lost condition raises injury risk.
	FatigueRiskWeight float64 `json:"fatigue_risk_weight"`

	// FatigueDecayPerMinute is the fraction of condition headroom lost per
	// minute in open play by a player of endurance 60.
	FatigueDecayPerMinute float64 `json:"fatigue_decay_per_minute"`
	// FatigueThreshold is the condition below which decay accelerates.
	FatigueThreshold float64 `json:"fatigue_threshold"`
	// FatigueAcceleration multiplies decay below the threshold.
	FatigueAcceleration float64 `json:"fatigue_acceleration"`
	// FatigueFloor bounds condition from below. It is never reached.
	FatigueFloor float64 `json:"fatigue_floor"`
	// BenchRecoveryPerMinute is the linear condition gain on the bench.
	BenchRecoveryPerMinute float64 `json:"bench_recovery_per_minute"`
	// QuarterBreakRecovery is restored to every available player at each break.
	QuarterBreakRecovery float64 `json:"quarter_break_recovery"`

	// DefaultInterchanges is the rotation target when a team has no tactics.
	DefaultInterchanges int `json:"default_interchanges"`
	// MinStrength is the floor for any team strength aggregate.
	MinStrength float64 `json:"min_strength"`
}

// DefaultTuning returns the documented defaults.
func DefaultTuning() Tuning {
	return Tuning{
		TickSeconds:             5,
		OnFieldSize:             18,
		SnapshotEveryTicks:      12,
		MaxInjuries:             6,
		MaxQuarterSeconds:       3600,
		BaseInjuryRatePerMinute: 0.0005,
		FatigueRiskWeight:       1.0,
		FatigueDecayPerMinute:   0.02,
		FatigueThreshold:        0.7,
		FatigueAcceleration:     1.5,
		FatigueFloor:            0.4,
		BenchRecoveryPerMinute:  0.06,
		QuarterBreakRecovery:    0.05,
		DefaultInterchanges:     DefaultInterchanges,
		MinStrength:             0.5,
	}
}

// Validate reports the first out-of-range field, wrapped in ErrInvalidTuning.
func (t Tuning) Validate() error {
	switch {
	case t.TickSeconds <= 0:
		return fmt.Errorf("tick_seconds must be positive: %w", ErrInvalidTuning)
	case t.OnFieldSize <= 0:
		return fmt.Errorf("on_field_size must be positive: %w", ErrInvalidTuning)
	case t.SnapshotEveryTicks < 0:
		return fmt.Errorf("snapshot_every_ticks must not be negative: %w", ErrInvalidTuning)
	case t.MaxInjuries < 0:
		return fmt.Errorf("max_injuries must not be negative: %w", ErrInvalidTuning)
	case t.MaxQuarterSeconds <= 0:
		return fmt.Errorf("max_quarter_seconds must be positive: %w", ErrInvalidTuning)
	case t.BaseInjuryRatePerMinute < 0 || t.FatigueRiskWeight < 0:
		return fmt.Errorf("injury rates must not be negative: %w", ErrInvalidTuning)
	case t.FatigueDecayPerMinute < 0 || t.BenchRecoveryPerMinute < 0:
		return fmt.Errorf("fatigue rates must not be negative: %w", ErrInvalidTuning)
	case t.FatigueFloor < 0 || t.FatigueFloor >= 1:
		return fmt.Errorf("fatigue_floor must be in [0,1): %w", ErrInvalidTuning)
	case t.FatigueThreshold <= t.FatigueFloor || t.FatigueThreshold > 1:
		return fmt.Errorf("fatigue_threshold must be in (floor,1]: %w", ErrInvalidTuning)
	case t.FatigueAcceleration < 1:
		return fmt.Errorf("fatigue_acceleration must be at least 1: %w", ErrInvalidTuning)
	case t.QuarterBreakRecovery < 0 || t.QuarterBreakRecovery > 1:
		return fmt.Errorf("quarter_break_recovery must be in [0,1]: %w", ErrInvalidTuning)
	case t.DefaultInterchanges < 0:
		return fmt.Errorf("default_interchanges must not be negative: %w", ErrInvalidTuning)
	case t.MinStrength <= 0:
		return fmt.Errorf("min_strength must be positive: %w", ErrInvalidTuning)
	}
	return nil
}
