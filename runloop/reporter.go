package runloop

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Reporter writes the user-facing outcome of each line. Diagnostics go to
// the logger; the reporter only says what the user needs to act on.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Ready prints the banner shown once before the first line is read.
func (r *Reporter) Ready() {
	color.New(color.FgCyan, color.Bold).Fprintln(r.out, "ready")
	color.New(color.FgHiBlack).Fprintf(r.out,
		"  enter --prompt \"...\" --output \"img_{seed}.png\" [flags], --help, or %s\n", ExitSentinel)
}

// Success prints a completed run.
func (r *Reporter) Success(outputPath string, seed int64, elapsed time.Duration) {
	color.New(color.FgGreen).Fprintf(r.out, "  ✓ %s", outputPath)
	color.New(color.FgHiBlack).Fprintf(r.out, " (seed %d, %v)\n", seed, elapsed.Round(time.Millisecond))
}

// Failure prints a run that did not produce an image.
func (r *Reporter) Failure(err error) {
	color.New(color.FgRed).Fprintf(r.out, "  ✗ %s\n", err.Error())
	if runErr, ok := IsRunError(err); ok && runErr.Stage == StageParse {
		color.New(color.FgHiBlack).Fprintln(r.out, "    └─ type --help for the list of flags")
	}
}

// Usage prints the per-run flag help.
func (r *Reporter) Usage() {
	fmt.Fprint(r.out, Usage())
}
