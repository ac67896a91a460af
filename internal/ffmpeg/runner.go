package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"movconv/internal/config"
)

// Job is a single source to destination conversion.
type Job struct {
	Source      string
	Destination string
}

// Result captures the outcome of one encoder invocation.
type Result struct {
	Job      Job
	Args     []string
	ExitCode int
	Stderr   string
	Duration time.Duration
	Size     int64
}

// Validator checks a finished output file.
type Validator interface {
	Validate(ctx context.Context, path string) error
}

// Runner executes ffmpeg for conversion jobs. A zero Runner is not usable;
// build one with NewRunner.
type Runner struct {
	binary    string
	profile   Profile
	timeout   time.Duration
	validator Validator
	stderr    io.Writer
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithValidator verifies every output with v after a clean exit.
func WithValidator(v Validator) RunnerOption {
	return func(r *Runner) { r.validator = v }
}

// WithTimeout bounds each encode. Zero disables the bound.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// WithStderr tees encoder stderr to w as well as capturing it.
func WithStderr(w io.Writer) RunnerOption {
	return func(r *Runner) { r.stderr = w }
}

// NewRunner returns a Runner for binary with the given profile.
func NewRunner(binary string, profile Profile, opts ...RunnerOption) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	r := &Runner{binary: binary, profile: profile}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRunnerFromConfig wires binary, profile, and timeout from cfg.
func NewRunnerFromConfig(cfg *config.Config, opts ...RunnerOption) *Runner {
	base := []RunnerOption{WithTimeout(cfg.EncodeTimeout())}
	return NewRunner(cfg.FFmpeg.Binary, ProfileFromConfig(cfg), append(base, opts...)...)
}

// Binary returns the ffmpeg executable the runner invokes.
func (r *Runner) Binary() string { return r.binary }

// Transcode runs ffmpeg for job and blocks until it exits. The returned error
// is a *TranscodeError whenever the destination is not usable.
func (r *Runner) Transcode(ctx context.Context, job Job) (Result, error) {
	args := BuildArgs(r.profile, job.Source, job.Destination)
	result := Result{Job: job, Args: args, ExitCode: -1}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.binary, args...)
	var stderrBuf bytes.Buffer
	if r.stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, r.stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)
	result.Stderr = stderrBuf.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if runErr != nil {
		cause := runErr
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			cause = fmt.Errorf("timed out after %s: %w", r.timeout, context.DeadlineExceeded)
		case ctx.Err() != nil:
			cause = ctx.Err()
		}
		return result, r.fail(job, result, cause)
	}

	info, err := os.Stat(job.Destination)
	if err != nil {
		return result, r.fail(job, result, fmt.Errorf("output missing: %w", err))
	}
	if info.Size() == 0 {
		return result, r.fail(job, result, errors.New("output is empty"))
	}
	result.Size = info.Size()

	if r.validator != nil {
		if err := r.validator.Validate(ctx, job.Destination); err != nil {
			return result, r.fail(job, result, fmt.Errorf("output validation: %w", err))
		}
	}
	return result, nil
}

func (r *Runner) fail(job Job, result Result, cause error) error {
	code := result.ExitCode
	if code == 0 {
		// A clean exit with a bad output is still a failure; keep the code
		// out of the message to avoid "exit 0" confusion.
		code = -1
	}
	return &TranscodeError{
		Source:      job.Source,
		Destination: job.Destination,
		ExitCode:    code,
		Stderr:      result.Stderr,
		Hint:        Diagnose(result.Stderr),
		Err:         cause,
	}
}
