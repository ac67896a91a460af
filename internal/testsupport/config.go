// Package testsupport holds helpers shared by package tests: temp configs,
// stub encoder binaries, and small media fixtures.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"movconv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// History is disabled unless WithHistory is passed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.History.Enabled = false
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Watch.PidFile = filepath.Join(base, "state", "watch.pid")
	cfgVal.Watch.DebounceMS = 50

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistory enables the SQLite run ledger under the temp directory.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithWorkers sets the converter worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Convert.Workers = n
	}
}

// WithStubbedBinaries writes stub ffmpeg and ffprobe executables into the temp
// directory and points the config at them.
//
// The ffmpeg stub writes a small file to its last argument, appends its
// argument list to $MOVCONV_STUB_LOG when set, and fails with an "Invalid
// data" message for any source whose path contains "fail". The ffprobe stub
// reports one video and one audio stream unless the path contains "nostream".
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.FFmpeg.Binary = WriteScript(b.t, binDir, "ffmpeg", FFmpegStubScript)
		b.cfg.FFmpeg.ProbeBinary = WriteScript(b.t, binDir, "ffprobe", FFprobeStubScript)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.History.Path))
}

// WriteScript writes an executable shell script and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// FFmpegStubScript is the default ffmpeg stand-in used by WithStubbedBinaries.
const FFmpegStubScript = `#!/bin/sh
if [ "$2" = "-encoders" ]; then
  printf 'Encoders:\n V..... = Video\n A..... = Audio\n ------\n V....D prores_ks            Apple ProRes (iCodec Pro) (codec prores)\n A....D pcm_s16be            PCM signed 16-bit big-endian\n'
  exit 0
fi
src=""
prev=""
last=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then src="$arg"; fi
  prev="$arg"
  last="$arg"
done
if [ -n "$MOVCONV_STUB_LOG" ]; then
  printf '%s\n' "$*" >> "$MOVCONV_STUB_LOG"
fi
case "$src" in
  *fail*)
    echo "$src: Invalid data found when processing input" >&2
    exit 1
    ;;
esac
printf 'stub-mov' > "$last"
`

// FFprobeStubScript is the default ffprobe stand-in used by WithStubbedBinaries.
const FFprobeStubScript = `#!/bin/sh
for last in "$@"; do :; done
case "$last" in
  *nostream*)
    printf '{"streams":[],"format":{"filename":"%s","nb_streams":0}}\n' "$last"
    ;;
  *)
    printf '{"streams":[{"index":0,"codec_type":"video","codec_name":"prores"},{"index":1,"codec_type":"audio","codec_name":"pcm_s16be"}],"format":{"filename":"%s","nb_streams":2,"format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}\n' "$last"
    ;;
esac
`
