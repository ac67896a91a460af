package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTranscode marks per-file encoder failures.
var ErrTranscode = errors.New("transcode failed")

// TranscodeError describes why a single encode did not produce a usable file.
type TranscodeError struct {
	Source      string
	Destination string
	// ExitCode is -1 when the process did not exit normally (start failure,
	// signal, or output verification failure after a clean exit).
	ExitCode int
	Stderr   string
	Hint     string
	Err      error
}

func (e *TranscodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transcode %s", e.Source)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " [%s]", e.Hint)
	}
	return b.String()
}

func (e *TranscodeError) Unwrap() error { return e.Err }

func (e *TranscodeError) Is(target error) bool { return target == ErrTranscode }

// StderrTail returns the last n lines of captured stderr.
func (e *TranscodeError) StderrTail(n int) string {
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
