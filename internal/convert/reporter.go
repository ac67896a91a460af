package convert

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

const startedLayout = "2006-01-02 15:04:05"

// Reporter writes the human status stream. It is separate from the
// structured log and safe for concurrent use by workers.
type Reporter struct {
	mu       sync.Mutex
	w        io.Writer
	colorize bool
}

// NewReporter writes status lines to w. When colorize is set, finish and
// failure lines are wrapped in ANSI colours.
func NewReporter(w io.Writer, colorize bool) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{w: w, colorize: colorize}
}

// RunStarted prints the startup timestamp and echoes the arguments.
func (r *Reporter) RunStarted(at time.Time, runID string, args InvocationArgs) {
	r.printf("Script started %s\n", at.Format(startedLayout))
	r.printf("  watched:    %s\n  full_path:  %s\n  flags:      %s\n  output_dir: %s\n  run:        %s\n",
		args.WatchedRoot, args.ChangedPath, args.Event, args.OutputRoot, runID)
}

// FileStarted precedes an encode.
func (r *Reporter) FileStarted(source, destination string) {
	r.printf("\nStarted conversion\nSource: %s\nTarget: %s\n", source, destination)
}

// FileFinished follows a successful encode.
func (r *Reporter) FileFinished(source string, took time.Duration) {
	r.printf("%s\n", r.paint(ansiGreen, fmt.Sprintf("Finished conversion (%s)", took.Round(time.Millisecond))))
}

// FileFailed follows a failed encode or a file that could not be mapped.
func (r *Reporter) FileFailed(source string, err error) {
	r.printf("%s\n", r.paint(ansiRed, fmt.Sprintf("Failed conversion %s: %v", source, err)))
}

// RunFinished prints the final summary banner.
func (r *Reporter) RunFinished(summary Summary) {
	r.printf("\nScript finished: %s\n", summary.Line())
}

// RunAborted reports a run that ended before processing files.
func (r *Reporter) RunAborted(err error) {
	r.printf("%s\n", r.paint(ansiRed, fmt.Sprintf("Script aborted: %v", err)))
}

func (r *Reporter) paint(color, text string) string {
	if !r.colorize {
		return text
	}
	return color + text + ansiReset
}

func (r *Reporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}
