// Package config provides CLI-level configuration and preset loading for distenc.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Default constants for CLI-level settings.
const (
	// DefaultJobs is the default local concurrency when -j/--jobs is unset.
	DefaultJobs int = 1

	// DefaultProbeTimeoutSecs is the process runner's default timeout for probe calls (spec §5).
	DefaultProbeTimeoutSecs = 300

	// DefaultCropSampleTimeoutSecs is the process runner's default timeout for crop-sample calls (spec §5).
	DefaultCropSampleTimeoutSecs = 60
)

// RateSpec is a (seconds, multiplier) pair parsed from "--title-rate S,M" or
// "--closing-rate S,M" and from the `title_rate`/`closing_rate` preset keys.
type RateSpec struct {
	Seconds    float64
	Multiplier float64
}

// ParseRateSpec parses a "S,M" string into a RateSpec.
func ParseRateSpec(s string) (RateSpec, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return RateSpec{}, fmt.Errorf("%w: expected \"seconds,multiplier\", got %q", ErrInvalidRateSpec, s)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RateSpec{}, fmt.Errorf("%w: bad seconds in %q: %v", ErrInvalidRateSpec, s, err)
	}
	mult, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RateSpec{}, fmt.Errorf("%w: bad multiplier in %q: %v", ErrInvalidRateSpec, s, err)
	}
	return RateSpec{Seconds: secs, Multiplier: mult}, nil
}

// Config holds the run-level settings parsed from CLI flags (spec §6).
type Config struct {
	Inputs     []string
	OutputDir  string
	ScratchDir string
	TokenDir   string
	PresetName string
	ConfigPath string

	Jobs int

	OnePassOverride *bool

	TitleRate                *RateSpec
	ClosingRate              *RateSpec
	SkipRateForFirstEpisodes bool

	ListPresets bool
	Verbose     bool
}

// NewConfig creates a Config with CLI-level defaults applied.
func NewConfig() *Config {
	return &Config{
		Jobs: DefaultJobs,
	}
}

// Validate checks the configuration for errors before the batch scheduler runs.
func (c *Config) Validate() error {
	if c.ListPresets {
		if c.ConfigPath == "" {
			return fmt.Errorf("%w: --list-presets requires -c/--config", ErrMissingConfigPath)
		}
		return nil
	}

	if len(c.Inputs) == 0 {
		return fmt.Errorf("%w: at least one -i/--inputs path is required", ErrMissingInputs)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: -o/--output-dir is required", ErrMissingOutputDir)
	}
	if c.ScratchDir == "" {
		return fmt.Errorf("%w: -s/--scratch-dir is required", ErrMissingScratchDir)
	}
	if c.TokenDir == "" {
		return fmt.Errorf("%w: -t/--token-dir is required", ErrMissingTokenDir)
	}
	if c.PresetName == "" {
		return fmt.Errorf("%w: -p/--preset is required", ErrMissingPreset)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("%w: -j/--jobs must be at least 1, got %d", ErrInvalidJobs, c.Jobs)
	}
	return nil
}

// ZoneConfig returns the ZoneConfig implied by the CLI flags (spec §3 ZoneConfig).
func (c *Config) ZoneConfig() ZoneConfig {
	return ZoneConfig{
		TitleRate:         c.TitleRate,
		ClosingRate:       c.ClosingRate,
		SkipFirstEpisodes: c.SkipRateForFirstEpisodes,
	}
}

// ZoneConfig is the per-preset zone-rewrite configuration (spec §3).
type ZoneConfig struct {
	TitleRate         *RateSpec
	ClosingRate       *RateSpec
	SkipFirstEpisodes bool
}
