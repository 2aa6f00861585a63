package sim

import (
	"time"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
)

// DetectionStrategy selects when deadlock detection runs during a
// simulation.
type DetectionStrategy string

// Detection strategies.
const (
	// DetectImmediate runs detection the moment a process blocks.
	DetectImmediate DetectionStrategy = "immediate"

	// DetectPeriodic runs detection on a fixed wall-clock interval.
	DetectPeriodic DetectionStrategy = "periodic"

	// DetectCPUTriggered runs detection whenever any process is blocked
	// or deadlocked, approximating a load-based trigger.
	DetectCPUTriggered DetectionStrategy = "cpu_triggered"
)

// ValidDetectionStrategies is the set of accepted strategy names.
var ValidDetectionStrategies = map[DetectionStrategy]bool{
	DetectImmediate:    true,
	DetectPeriodic:     true,
	DetectCPUTriggered: true,
}

// Configuration defaults.
const (
	DefaultDetectionStrategy = DetectPeriodic
	DefaultDetectionInterval = 1.0 // seconds
	DefaultRecoveryStrategy  = "cost"
	DefaultCPUThreshold      = 20.0 // percent
	DefaultMaxIterations     = 100
)

// Config carries the tunable parameters of one simulation. Interval and
// delay fields are in seconds so the struct round-trips through the
// scenario files and API payloads unchanged.
//
// The zero value is usable after [Config.ValidateAndSetDefaults].
type Config struct {
	DetectionStrategy string  `json:"detection_strategy,omitempty" toml:"detection_strategy,omitempty" bson:"detection_strategy,omitempty"`
	DetectionInterval float64 `json:"detection_interval,omitempty" toml:"detection_interval,omitempty" bson:"detection_interval,omitempty"`
	RecoveryStrategy  string  `json:"recovery_strategy,omitempty" toml:"recovery_strategy,omitempty" bson:"recovery_strategy,omitempty"`
	CPUThreshold      float64 `json:"cpu_threshold,omitempty" toml:"cpu_threshold,omitempty" bson:"cpu_threshold,omitempty"`
	MaxIterations     int     `json:"max_iterations,omitempty" toml:"max_iterations,omitempty" bson:"max_iterations,omitempty"`

	// StepDelay paces [Controller.Run] between iterations. Zero runs the
	// loop as fast as possible.
	StepDelay float64 `json:"step_delay,omitempty" toml:"step_delay,omitempty" bson:"step_delay,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-" toml:"-" bson:"-"`
}

// ValidateAndSetDefaults checks field ranges and fills zero values with
// defaults. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}

	if c.DetectionStrategy == "" {
		c.DetectionStrategy = string(DefaultDetectionStrategy)
	}
	if !ValidDetectionStrategies[DetectionStrategy(c.DetectionStrategy)] {
		return errors.New(errors.ErrCodeInvalidStrategy,
			"invalid detection strategy %q (must be one of: immediate, periodic, cpu_triggered)",
			c.DetectionStrategy)
	}

	if c.DetectionInterval < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "detection interval must not be negative")
	}
	if c.DetectionInterval == 0 {
		c.DetectionInterval = DefaultDetectionInterval
	}

	if c.RecoveryStrategy == "" {
		c.RecoveryStrategy = DefaultRecoveryStrategy
	}

	if c.CPUThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cpu threshold must not be negative")
	}
	if c.CPUThreshold == 0 {
		c.CPUThreshold = DefaultCPUThreshold
	}

	if c.MaxIterations < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max iterations must not be negative")
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}

	if c.StepDelay < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "step delay must not be negative")
	}

	c.validated = true
	return nil
}

// Interval returns the detection interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.DetectionInterval * float64(time.Second))
}

// Delay returns the per-iteration pacing delay as a duration.
func (c Config) Delay() time.Duration {
	return time.Duration(c.StepDelay * float64(time.Second))
}
