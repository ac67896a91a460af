package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"movconv/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "movconv", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantHistory := filepath.Join(tempHome, ".local", "share", "movconv", "history.db")
	if cfg.History.Path != wantHistory {
		t.Fatalf("unexpected history path: got %q want %q", cfg.History.Path, wantHistory)
	}
	if cfg.FFmpeg.VideoCodec != "prores_ks" || cfg.FFmpeg.VideoProfile != "3" || cfg.FFmpeg.AudioCodec != "pcm_s16be" {
		t.Fatalf("unexpected codec defaults: %+v", cfg.FFmpeg)
	}
	if cfg.FFmpeg.OutputSuffix != ".mov" {
		t.Fatalf("unexpected suffix %q", cfg.FFmpeg.OutputSuffix)
	}
	if cfg.Convert.Workers != 1 {
		t.Fatalf("expected sequential default, got %d workers", cfg.Convert.Workers)
	}
	if cfg.Convert.PathMode != config.PathModeRelative {
		t.Fatalf("unexpected path mode %q", cfg.Convert.PathMode)
	}
	if cfg.Discovery.MissingPath != config.MissingPathSkip {
		t.Fatalf("unexpected missing path policy %q", cfg.Discovery.MissingPath)
	}
	if cfg.EncodeTimeout() != 0 {
		t.Fatalf("expected no encode timeout, got %s", cfg.EncodeTimeout())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(wantHistory)); err != nil || !info.IsDir() {
		t.Fatalf("expected history directory to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "movconv.toml")

	type payload struct {
		FFmpeg struct {
			Binary         string `toml:"binary"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
		} `toml:"ffmpeg"`
		Convert struct {
			Workers  int    `toml:"workers"`
			PathMode string `toml:"path_mode"`
		} `toml:"convert"`
		Watch struct {
			Jobs []config.WatchJob `toml:"jobs"`
		} `toml:"watch"`
	}
	custom := payload{}
	custom.FFmpeg.Binary = "/opt/ffmpeg/bin/ffmpeg"
	custom.FFmpeg.TimeoutSeconds = 90
	custom.Convert.Workers = 4
	custom.Convert.PathMode = " Literal "
	custom.Watch.Jobs = []config.WatchJob{{
		Watch:  filepath.Join(tempDir, "in"),
		Output: filepath.Join(tempDir, "out"),
		Events: []string{"Create", "create", " WRITE "},
	}}

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.FFmpeg.Binary != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected binary %q", cfg.FFmpeg.Binary)
	}
	if cfg.EncodeTimeout().Seconds() != 90 {
		t.Fatalf("unexpected timeout %s", cfg.EncodeTimeout())
	}
	if cfg.Convert.Workers != 4 || cfg.Convert.PathMode != config.PathModeLiteral {
		t.Fatalf("unexpected convert section: %+v", cfg.Convert)
	}
	if len(cfg.Watch.Jobs) != 1 {
		t.Fatalf("expected one watch job, got %d", len(cfg.Watch.Jobs))
	}
	job := cfg.Watch.Jobs[0]
	if job.Label != job.Watch {
		t.Fatalf("expected label to default to watch dir, got %q", job.Label)
	}
	if strings.Join(job.Events, ",") != "create,write" {
		t.Fatalf("unexpected events %v", job.Events)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "movconv.toml")
	if err := os.WriteFile(configPath, []byte("[ffmpeg]\nvidoe_codec = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected parse error for unknown key")
	}
}

func TestEnvironmentOverridesBinaries(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MOVCONV_FFMPEG", "/usr/local/bin/ffmpeg7")
	t.Setenv("MOVCONV_FFPROBE", "/usr/local/bin/ffprobe7")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFmpeg.Binary != "/usr/local/bin/ffmpeg7" || cfg.FFmpeg.ProbeBinary != "/usr/local/bin/ffprobe7" {
		t.Fatalf("env overrides not applied: %+v", cfg.FFmpeg)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"path mode", func(c *config.Config) { c.Convert.PathMode = "fuzzy" }, "convert.path_mode"},
		{"missing path", func(c *config.Config) { c.Discovery.MissingPath = "ignore" }, "discovery.missing_path"},
		{"workers", func(c *config.Config) { c.Convert.Workers = 100 }, "convert.workers"},
		{"log level", func(c *config.Config) { c.FFmpeg.LogLevel = "loud" }, "ffmpeg.log_level"},
		{"suffix", func(c *config.Config) { c.FFmpeg.OutputSuffix = "/x.mov" }, "ffmpeg.output_suffix"},
		{"job output inside watch", func(c *config.Config) {
			c.Watch.Jobs = []config.WatchJob{{Label: "a", Watch: "/in", Output: "/in/out", Events: []string{"create"}}}
		}, "must not be inside"},
		{"job event", func(c *config.Config) {
			c.Watch.Jobs = []config.WatchJob{{Label: "a", Watch: "/in", Output: "/out", Events: []string{"open"}}}
		}, "unsupported event"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.FFmpeg.VideoCodec != "prores_ks" {
		t.Fatalf("unexpected codec from sample: %q", cfg.FFmpeg.VideoCodec)
	}
}
