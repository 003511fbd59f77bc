package reporter

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/distenc/internal/util"
)

// stageWeight is each driver stage's share of one job's progress bar,
// loosely mirroring the system overview's per-component budgets (spec §2):
// analysis/crop/plan are the lighter leaf components, the two encode passes
// dominate.
var stageWeight = map[string]int{
	"ANALYZE": 12,
	"CROP":    12,
	"PLAN":    6,
	"PASS1":   35,
	"MEASURE": 5,
	"PASS2":   25,
	"COMMIT":  5,
}

var stageOrder = []string{"ANALYZE", "CROP", "PLAN", "PASS1", "MEASURE", "PASS2", "COMMIT"}

// TerminalReporter prints human-friendly, colorized progress to the
// terminal. Colors and the progress bar are suppressed when stdout is not
// a TTY (e.g. piped into a log file or run under a supervisor).
type TerminalReporter struct {
	mu          sync.Mutex
	progress    *progressbar.ProgressBar
	currentJob  string
	cumWeight   int
	isTTY       bool
	cyan        *color.Color
	green       *color.Color
	yellow      *color.Color
	red         *color.Color
	magenta     *color.Color
	bold        *color.Color
	faint       *color.Color
}

// NewTerminalReporter creates a terminal reporter. Color output is forced
// off when stdout is not a terminal (isatty.IsTerminal).
func NewTerminalReporter() *TerminalReporter {
	tty := isatty.IsTerminal(os.Stdout.Fd())
	color.NoColor = !tty
	return &TerminalReporter{
		isTTY:   tty,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	fmt.Println()
	_, _ = r.cyan.Println("BATCH")
	fmt.Printf("  Processing %d job(s) -> %s\n", info.TotalJobs, r.bold.Sprint(info.OutputDir))
}

func (r *TerminalReporter) JobStarted(info JobStartInfo) {
	r.mu.Lock()
	r.currentJob = info.JobName
	r.cumWeight = 0
	r.mu.Unlock()

	fmt.Println()
	_, _ = r.cyan.Println("JOB " + info.JobName)
	r.printLabel(10, "Output:", info.OutputFile)
	r.printLabel(10, "Duration:", info.Duration)
	r.printLabel(10, "Resolution:", info.Resolution)
	r.printLabel(10, "Dynamic:", info.DynamicRange)

	if !r.isTTY {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = progressbar.NewOptions(100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer: "=", SaucerHead: ">", SaucerPadding: " ",
			BarStart: "[", BarEnd: "]",
		}),
	)
}

func (r *TerminalReporter) Stage(update StageUpdate) {
	fmt.Printf("  %s %s: %s\n", r.magenta.Sprint("›"), update.Stage, update.Message)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress == nil {
		return
	}
	for _, s := range stageOrder {
		if s == update.Stage {
			r.cumWeight += stageWeight[s]
			break
		}
	}
	r.progress.Describe(strings.ToLower(update.Stage))
	_ = r.progress.Set(r.cumWeight)
}

func (r *TerminalReporter) CropDetected(jobName, crop string) {
	fmt.Printf("  %s %s\n", r.bold.Sprint("Crop:"), r.green.Sprint(crop))
}

func (r *TerminalReporter) Warning(jobName, message string) {
	_, _ = r.yellow.Printf("  WARN [%s]: %s\n", jobName, message)
}

func (r *TerminalReporter) JobSkipped(jobName, reason string) {
	fmt.Printf("  %s %s (%s)\n", r.faint.Sprint("SKIPPED"), jobName, reason)
}

func (r *TerminalReporter) JobFailed(jobName, message string) {
	r.finishProgress()
	_, _ = fmt.Fprintf(os.Stderr, "  %s %s: %s\n", r.red.Sprint("FAILED"), jobName, message)
}

func (r *TerminalReporter) JobCompleted(info JobCompleteInfo) {
	r.finishProgress()

	reduction := util.CalculateSizeReduction(info.InputSize, info.OutputSize)
	fmt.Printf("  %s %s -> %s (%.1f%% smaller, %s)\n",
		r.green.Sprint("DONE"),
		util.FormatBytesReadable(info.InputSize),
		util.FormatBytesReadable(info.OutputSize),
		reduction,
		util.FormatDurationFromSecs(int64(info.Elapsed.Seconds())))
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
}

func (r *TerminalReporter) BatchCompleted(summary BatchSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("BATCH SUMMARY")
	fmt.Printf("  %s\n", r.bold.Sprintf("%d completed, %d failed, %d skipped",
		summary.Completed, summary.Failed, summary.Skipped))
	fmt.Printf("  Time: %s\n", util.FormatDurationFromSecs(int64(summary.Elapsed.Seconds())))

	RenderSummaryTable(summary.Results)
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.isTTY {
		return
	}
	_, _ = r.faint.Println("  " + message)
}
