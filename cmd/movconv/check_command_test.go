package main

import (
	"path/filepath"
	"testing"

	"movconv/internal/config"
	"movconv/internal/testsupport"
)

func TestCheckCommandPasses(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory())
	env.cfg.Watch.Jobs = []config.WatchJob{{
		Label:  "camera",
		Watch:  env.watchDir,
		Output: env.outputDir,
	}}
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "[OK]")
	requireContains(t, out, "Encoders")
	requireContains(t, out, "Watch camera")
	requireContains(t, out, "Output camera")
}

func TestCheckCommandMissingEncoder(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.FFmpeg.Binary = filepath.Join(env.baseDir, "bin", "no-such-ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)

	code, stdout, _ := runMain(t, []string{"check"}, env.configPath)
	if code != exitFatal {
		t.Fatalf("exit code = %d, want %d", code, exitFatal)
	}
	requireContains(t, stdout, "[ERROR]")
}
