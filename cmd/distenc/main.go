// Command distenc is the batch H.265 transcoder CLI: it enumerates input
// files, claims each across the shared token directory, and drives every
// claimed input through the probe -> crop -> zone-plan -> encode pipeline
// (spec §6).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/distenc/internal/config"
	"github.com/five82/distenc/internal/discovery"
	"github.com/five82/distenc/internal/encode"
	"github.com/five82/distenc/internal/logging"
	"github.com/five82/distenc/internal/reporter"
	"github.com/five82/distenc/internal/scheduler"
)

// Exit codes (spec §6): 0 on failed==0, 1 on any job failure or
// KeyboardInterrupt, 2 on argument errors.
const (
	exitOK            = 0
	exitJobFailure    = 1
	exitArgumentError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.NewConfig()
	var jobsFlag string

	cmd := &cobra.Command{
		Use:           "distenc",
		Short:         "Distributed batch H.265 transcoder",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), cfg, jobsFlag)
		},
	}

	cmd.Flags().StringSliceVarP(&cfg.Inputs, "inputs", "i", nil, "input video files or directories (repeatable)")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output-dir", "o", "", "output directory")
	cmd.Flags().StringVarP(&cfg.ScratchDir, "scratch-dir", "s", "", "scratch directory for two-pass stats files")
	cmd.Flags().StringVarP(&cfg.TokenDir, "token-dir", "t", "", "shared claim-token directory")
	cmd.Flags().StringVarP(&cfg.PresetName, "preset", "p", "", "preset name to apply from the config file")
	cmd.Flags().StringVarP(&cfg.ConfigPath, "config", "c", "", "path to the preset config file")
	cmd.Flags().StringVarP(&jobsFlag, "jobs", "j", "1", `concurrent workers, a positive integer or "auto"`)
	var onePass bool
	cmd.Flags().BoolVarP(&onePass, "one-pass", "1", false, "force a one-pass encode regardless of preset")
	var titleRate, closingRate string
	cmd.Flags().StringVar(&titleRate, "title-rate", "", `title-zone override "seconds,multiplier"`)
	cmd.Flags().StringVar(&closingRate, "closing-rate", "", `closing-zone override "seconds,multiplier"`)
	cmd.Flags().BoolVar(&cfg.SkipRateForFirstEpisodes, "skip-rate-for-first-episodes", false, "skip title-rate zone on inputs matching an E01-style marker")
	cmd.Flags().BoolVarP(&cfg.ListPresets, "list-presets", "l", false, "print preset names from the config file and exit")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug-level logging")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if onePass {
			t := true
			cfg.OnePassOverride = &t
		}
		if titleRate != "" {
			r, err := config.ParseRateSpec(titleRate)
			if err != nil {
				return err
			}
			cfg.TitleRate = &r
		}
		if closingRate != "" {
			r, err := config.ParseRateSpec(closingRate)
			if err != nil {
				return err
			}
			cfg.ClosingRate = &r
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	cmd.SetContext(ctx)

	err := cmd.Execute()
	switch {
	case err == nil:
		return lastExitCode
	case isArgumentError(err):
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitArgumentError
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitJobFailure
	}
}

// lastExitCode carries the outcome of a successful (non-error) run: 0 when
// every job completed, 1 when the batch summary recorded any failure. A
// package-level var mirrors the teacher's CLI-as-single-command shape,
// where RunE can only return an error, not a batch-specific exit code.
var lastExitCode int

var argumentErrors = []error{
	config.ErrMissingInputs, config.ErrMissingOutputDir, config.ErrMissingScratchDir,
	config.ErrMissingTokenDir, config.ErrMissingPreset, config.ErrInvalidJobs,
	config.ErrMissingConfigPath, config.ErrInvalidRateSpec, config.ErrUnknownPreset,
	config.ErrPresetFileUnreadable, scheduler.ErrInvalidJobsFlag, discovery.ErrNoInputFiles,
}

func isArgumentError(err error) bool {
	for _, sentinel := range argumentErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func execute(ctx context.Context, cfg *config.Config, jobsFlag string) error {
	if cfg.ListPresets {
		return listPresets(cfg)
	}

	presetFile, err := config.LoadPresetFile(cfg.ConfigPath)
	if err != nil {
		return err
	}
	preset, err := presetFile.Resolve(cfg.PresetName)
	if err != nil {
		return err
	}
	if cfg.OnePassOverride != nil {
		preset.OnePass = *cfg.OnePassOverride
	}

	jobs, err := scheduler.ResolveJobs(jobsFlag, preset.TargetWidth, preset.TargetHeight)
	if err != nil {
		return err
	}
	cfg.Jobs = jobs

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.TokenDir, cfg.Verbose, false)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if logger != nil {
		defer func() { _ = logger.Close() }()
	}

	var warn func(format string, args ...any)
	if logger != nil {
		warn = logger.Warn
	}
	if err := scheduler.PrepareDirectories(cfg, warn); err != nil {
		return err
	}

	discoveryLogger := discoveryWarnAdapter{logger: logger}
	enumerated := discovery.Enumerate(cfg.Inputs, discoveryLogger)
	for _, dropped := range enumerated.Dropped {
		fmt.Fprintf(os.Stderr, "warning: skipping %s\n", dropped)
	}
	if len(enumerated.Files) == 0 {
		return discovery.ErrNoInputFiles
	}

	rep := reporter.NewTerminalReporter()
	driver := encode.NewDriver(preset, cfg.ZoneConfig(), cfg.TokenDir, cfg.ScratchDir, rep)
	sched := scheduler.New(driver, rep, cfg.OutputDir, cfg.Jobs)

	summary := sched.Run(ctx, enumerated.Files)
	reporter.RenderSummaryTable(summary.Results)

	if summary.Failed > 0 {
		lastExitCode = exitJobFailure
	} else {
		lastExitCode = exitOK
	}
	return nil
}

func listPresets(cfg *config.Config) error {
	presetFile, err := config.LoadPresetFile(cfg.ConfigPath)
	if err != nil {
		return err
	}
	for _, name := range presetFile.Names() {
		fmt.Println(name)
	}
	lastExitCode = exitOK
	return nil
}

// discoveryWarnAdapter bridges the file logger's Warn method into
// discovery.Logger without discovery depending on the logging package.
type discoveryWarnAdapter struct {
	logger *logging.Logger
}

func (d discoveryWarnAdapter) Warn(format string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(format, args...)
	}
}
