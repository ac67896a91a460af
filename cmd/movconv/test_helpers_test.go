package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"movconv/internal/config"
	"movconv/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	watchDir   string
	outputDir  string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(base, "movconv.toml"),
		baseDir:    base,
		watchDir:   filepath.Join(base, "watch"),
		outputDir:  filepath.Join(base, "out"),
	}
	if err := os.MkdirAll(env.watchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// runMain drives the process entry point and returns its exit code.
func runMain(t *testing.T, args []string, configPath string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	code := run(append(flags, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[ffmpeg]\nbinary = %q\nprobe_binary = %q\n\n", cfg.FFmpeg.Binary, cfg.FFmpeg.ProbeBinary)
	fmt.Fprintf(&b, "[convert]\nworkers = %d\nfail_on_error = %t\n\n", cfg.Convert.Workers, cfg.Convert.FailOnError)
	fmt.Fprintf(&b, "[history]\nenabled = %t\npath = %q\n\n", cfg.History.Enabled, cfg.History.Path)
	fmt.Fprintf(&b, "[logging]\nlevel = \"error\"\n\n")
	fmt.Fprintf(&b, "[watch]\npid_file = %q\ndebounce_ms = %d\n", cfg.Watch.PidFile, cfg.Watch.DebounceMS)
	for _, job := range cfg.Watch.Jobs {
		fmt.Fprintf(&b, "\n[[watch.jobs]]\nlabel = %q\nwatch = %q\noutput = %q\n", job.Label, job.Watch, job.Output)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
