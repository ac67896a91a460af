package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeFFmpeg()
	c.normalizeConvert()
	c.normalizeDiscovery()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return c.normalizeWatch()
}

func (c *Config) normalizeFFmpeg() {
	if value, ok := os.LookupEnv("MOVCONV_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.FFmpeg.Binary = value
	}
	if value, ok := os.LookupEnv("MOVCONV_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.FFmpeg.ProbeBinary = value
	}
	c.FFmpeg.Binary = trimOr(c.FFmpeg.Binary, defaultFFmpegBinary)
	c.FFmpeg.ProbeBinary = trimOr(c.FFmpeg.ProbeBinary, defaultFFprobeBinary)
	c.FFmpeg.VideoCodec = trimOr(c.FFmpeg.VideoCodec, defaultVideoCodec)
	c.FFmpeg.VideoProfile = trimOr(c.FFmpeg.VideoProfile, defaultVideoProfile)
	c.FFmpeg.AudioCodec = trimOr(c.FFmpeg.AudioCodec, defaultAudioCodec)
	c.FFmpeg.LogLevel = strings.ToLower(trimOr(c.FFmpeg.LogLevel, defaultLogLevel))
	// The suffix is appended verbatim, so only an empty value is replaced.
	if c.FFmpeg.OutputSuffix == "" {
		c.FFmpeg.OutputSuffix = defaultOutputSuffix
	}
	if c.FFmpeg.TimeoutSeconds < 0 {
		c.FFmpeg.TimeoutSeconds = 0
	}
	extra := c.FFmpeg.ExtraArgs[:0]
	for _, arg := range c.FFmpeg.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			extra = append(extra, trimmed)
		}
	}
	c.FFmpeg.ExtraArgs = extra
}

func (c *Config) normalizeConvert() {
	if c.Convert.Workers <= 0 {
		c.Convert.Workers = defaultWorkers
	}
	c.Convert.PathMode = strings.ToLower(strings.TrimSpace(c.Convert.PathMode))
	if c.Convert.PathMode == "" {
		c.Convert.PathMode = defaultPathMode
	}
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.MissingPath = strings.ToLower(strings.TrimSpace(c.Discovery.MissingPath))
	if c.Discovery.MissingPath == "" {
		c.Discovery.MissingPath = defaultMissingPath
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.KeepRuns < 0 {
		c.History.KeepRuns = 0
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultAppLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeWatch() error {
	var err error
	if strings.TrimSpace(c.Watch.PidFile) == "" {
		c.Watch.PidFile = defaultWatchPidFile
	}
	if c.Watch.PidFile, err = expandPath(c.Watch.PidFile); err != nil {
		return fmt.Errorf("watch.pid_file: %w", err)
	}
	if c.Watch.DebounceMS < 0 {
		c.Watch.DebounceMS = 0
	}
	for i := range c.Watch.Jobs {
		job := &c.Watch.Jobs[i]
		job.Label = strings.TrimSpace(job.Label)
		if job.Watch, err = expandPath(strings.TrimSpace(job.Watch)); err != nil {
			return fmt.Errorf("watch.jobs[%d].watch: %w", i, err)
		}
		if job.Output, err = expandPath(strings.TrimSpace(job.Output)); err != nil {
			return fmt.Errorf("watch.jobs[%d].output: %w", i, err)
		}
		if job.Label == "" {
			job.Label = job.Watch
		}
		events := make([]string, 0, len(job.Events))
		seen := make(map[string]struct{}, len(job.Events))
		for _, event := range job.Events {
			normalized := strings.ToLower(strings.TrimSpace(event))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			events = append(events, normalized)
		}
		if len(events) == 0 {
			events = []string{"create", "write"}
		}
		job.Events = events
	}
	return nil
}

func trimOr(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
