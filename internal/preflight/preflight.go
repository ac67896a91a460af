package preflight

import (
	"context"
	"fmt"
	"path/filepath"

	"movconv/internal/config"
	"movconv/internal/deps"
	"movconv/internal/ffmpeg"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Failed reports whether any required check did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	ffmpegAvailable := false
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available(),
			Optional: status.Optional,
			Detail:   status.Detail(),
		})
		if status.Name == "FFmpeg" && status.Available() {
			ffmpegAvailable = true
		}
	}

	if ffmpegAvailable {
		results = append(results, CheckEncoders(ctx, cfg.FFmpeg.Binary, ffmpeg.ProfileFromConfig(cfg)))
	}

	if cfg.History.Enabled {
		results = append(results, CheckCreatableDirectory("History directory", filepath.Dir(cfg.History.Path)))
	}

	for _, job := range cfg.Watch.Jobs {
		results = append(results,
			CheckReadableDirectory(fmt.Sprintf("Watch %s", job.Label), job.Watch),
			CheckCreatableDirectory(fmt.Sprintf("Output %s", job.Label), job.Output),
		)
	}
	return results
}
