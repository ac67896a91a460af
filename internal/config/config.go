package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// FFmpeg contains the encoder invocation settings.
type FFmpeg struct {
	Binary        string   `toml:"binary"`
	ProbeBinary   string   `toml:"probe_binary"`
	VideoCodec    string   `toml:"video_codec"`
	VideoProfile  string   `toml:"video_profile"`
	AudioCodec    string   `toml:"audio_codec"`
	OutputSuffix  string   `toml:"output_suffix"`
	LogLevel      string   `toml:"log_level"`
	Overwrite     bool     `toml:"overwrite"`
	ExtraArgs     []string `toml:"extra_args"`
	ValidateProbe bool     `toml:"validate_output"`
	// TimeoutSeconds bounds a single encode. Zero means no timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Convert contains batch behaviour settings.
type Convert struct {
	Workers     int    `toml:"workers"`
	PathMode    string `toml:"path_mode"`
	FailOnError bool   `toml:"fail_on_error"`
}

// Discovery controls how the changed path is expanded into candidates.
type Discovery struct {
	MissingPath string `toml:"missing_path"`
}

// History contains configuration for the SQLite run ledger.
type History struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	KeepRuns int    `toml:"keep_runs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// WatchJob binds a watched directory to an output root.
type WatchJob struct {
	Label  string   `toml:"label"`
	Watch  string   `toml:"watch"`
	Output string   `toml:"output"`
	Events []string `toml:"events"`
}

// Watch contains configuration for the long-running watcher.
type Watch struct {
	PidFile    string     `toml:"pid_file"`
	DebounceMS int        `toml:"debounce_ms"`
	Jobs       []WatchJob `toml:"jobs"`
}

// Config encapsulates all configuration values for movconv.
//
// Configuration sections by subsystem:
//   - FFmpeg: encoder binary and fixed codec flags
//   - Convert: worker count, path mapping mode, exit policy
//   - Discovery: handling of a missing changed path
//   - History: SQLite run ledger
//   - Logging: log format, level, and optional file
//   - Watch: incron-style jobs for the watcher
type Config struct {
	FFmpeg    FFmpeg    `toml:"ffmpeg"`
	Convert   Convert   `toml:"convert"`
	Discovery Discovery `toml:"discovery"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
	Watch     Watch     `toml:"watch"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("movconv.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates directories the enabled features write into.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.History.Enabled && c.History.Path != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EncodeTimeout returns the per-file encoder timeout, or zero when unbounded.
func (c *Config) EncodeTimeout() time.Duration {
	if c.FFmpeg.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second
}

// WatchDebounce returns the per-path event debounce window.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
