// Package config provides CLI-level configuration and preset loading for distenc.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrMissingInputs indicates no -i/--inputs paths were given.
	ErrMissingInputs = errors.New("missing inputs")

	// ErrMissingOutputDir indicates -o/--output-dir was not given.
	ErrMissingOutputDir = errors.New("missing output directory")

	// ErrMissingScratchDir indicates -s/--scratch-dir was not given.
	ErrMissingScratchDir = errors.New("missing scratch directory")

	// ErrMissingTokenDir indicates -t/--token-dir was not given.
	ErrMissingTokenDir = errors.New("missing token directory")

	// ErrMissingPreset indicates -p/--preset was not given.
	ErrMissingPreset = errors.New("missing preset name")

	// ErrMissingConfigPath indicates -c/--config was not given where required.
	ErrMissingConfigPath = errors.New("missing config path")

	// ErrInvalidJobs indicates -j/--jobs was less than 1.
	ErrInvalidJobs = errors.New("invalid jobs count")

	// ErrInvalidRateSpec indicates a "--title-rate"/"--closing-rate" value failed to parse.
	ErrInvalidRateSpec = errors.New("invalid rate spec")

	// ErrUnknownPreset indicates the named preset section is absent from the config file.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrPresetFileUnreadable indicates the preset file could not be opened or parsed.
	ErrPresetFileUnreadable = errors.New("preset file unreadable")
)
