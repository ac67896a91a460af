package config

import (
	"errors"
	"fmt"
	"strings"
)

// WatchEvents lists the event names a watch job may subscribe to.
var WatchEvents = []string{"create", "write", "remove", "rename", "chmod"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateWatch()
}

func (c *Config) validateFFmpeg() error {
	switch c.FFmpeg.LogLevel {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
	default:
		return fmt.Errorf("ffmpeg.log_level: unsupported value %q", c.FFmpeg.LogLevel)
	}
	if strings.ContainsAny(c.FFmpeg.OutputSuffix, `/\`) {
		return errors.New("ffmpeg.output_suffix must not contain path separators")
	}
	return nil
}

func (c *Config) validateConvert() error {
	switch c.Convert.PathMode {
	case PathModeRelative, PathModeLiteral:
	default:
		return fmt.Errorf("convert.path_mode must be %q or %q, got %q", PathModeRelative, PathModeLiteral, c.Convert.PathMode)
	}
	if c.Convert.Workers > 64 {
		return errors.New("convert.workers must be between 1 and 64")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	switch c.Discovery.MissingPath {
	case MissingPathSkip, MissingPathFail:
		return nil
	default:
		return fmt.Errorf("discovery.missing_path must be %q or %q, got %q", MissingPathSkip, MissingPathFail, c.Discovery.MissingPath)
	}
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateWatch() error {
	labels := make(map[string]struct{}, len(c.Watch.Jobs))
	for i, job := range c.Watch.Jobs {
		if job.Watch == "" {
			return fmt.Errorf("watch.jobs[%d].watch must be set", i)
		}
		if job.Output == "" {
			return fmt.Errorf("watch.jobs[%d].output must be set", i)
		}
		if job.Output == job.Watch || strings.HasPrefix(job.Output, job.Watch+"/") {
			return fmt.Errorf("watch.jobs[%d].output must not be inside the watched directory", i)
		}
		if _, dup := labels[job.Label]; dup {
			return fmt.Errorf("watch.jobs[%d].label %q is not unique", i, job.Label)
		}
		labels[job.Label] = struct{}{}
		for _, event := range job.Events {
			if !validWatchEvent(event) {
				return fmt.Errorf("watch.jobs[%d].events: unsupported event %q (want one of %s)", i, event, strings.Join(WatchEvents, ", "))
			}
		}
	}
	return nil
}

func validWatchEvent(name string) bool {
	for _, candidate := range WatchEvents {
		if candidate == name {
			return true
		}
	}
	return false
}
