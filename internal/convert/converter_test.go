package convert_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"movconv/internal/config"
	"movconv/internal/convert"
	"movconv/internal/discover"
	"movconv/internal/history"
	"movconv/internal/logging"
	"movconv/internal/pathmap"
	"movconv/internal/testsupport"
)

type fixture struct {
	cfg    *config.Config
	watch  string
	out    string
	status *bytes.Buffer
	conv   *convert.Converter
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	f := &fixture{
		cfg:    cfg,
		watch:  filepath.Join(base, "watch"),
		out:    filepath.Join(base, "out"),
		status: &bytes.Buffer{},
	}
	if err := os.MkdirAll(f.watch, 0o755); err != nil {
		t.Fatalf("mkdir watch: %v", err)
	}
	f.rebuild(t)
	return f
}

func (f *fixture) rebuild(t *testing.T, opts ...convert.Option) {
	t.Helper()
	all := append([]convert.Option{convert.WithReporter(convert.NewReporter(f.status, false))}, opts...)
	conv, err := convert.New(f.cfg, all...)
	if err != nil {
		t.Fatalf("convert.New: %v", err)
	}
	f.conv = conv
}

func (f *fixture) run(t *testing.T, changed string) (convert.Summary, error) {
	t.Helper()
	return f.conv.Run(context.Background(), convert.InvocationArgs{
		WatchedRoot: f.watch,
		ChangedPath: changed,
		Event:       "IN_CLOSE_WRITE",
		OutputRoot:  f.out,
	})
}

func listOutputs(t *testing.T, root string) []string {
	t.Helper()
	var found []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			found = append(found, rel)
		}
		return nil
	})
	return found
}

func TestSingleAudioFile(t *testing.T) {
	f := newFixture(t)
	song := testsupport.WriteAudio(t, filepath.Join(f.watch, "song.wav"))

	summary, err := f.run(t, song)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 || summary.Converted != 1 {
		t.Fatalf("unexpected summary: %s", summary.Line())
	}
	want := filepath.Join(f.out, "song.wav.mov")
	if summary.Files[0].Destination != want {
		t.Fatalf("destination = %q want %q", summary.Files[0].Destination, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected output: %v", err)
	}
	if summary.RunID == "" || summary.Duration() < 0 {
		t.Fatalf("unexpected run metadata: %+v", summary)
	}
}

func TestDirectoryConvertsOnlyMedia(t *testing.T) {
	f := newFixture(t)
	day := filepath.Join(f.watch, "day1")
	testsupport.WriteText(t, filepath.Join(day, "notes.txt"))
	testsupport.WriteVideo(t, filepath.Join(day, "cam", "clip.mp4"))

	summary, err := f.run(t, day)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Line() != "processed 2, converted 1, skipped 1 (non-media), failed 0 (errors)" {
		t.Fatalf("unexpected summary line %q", summary.Line())
	}
	outputs := listOutputs(t, f.out)
	if len(outputs) != 1 || outputs[0] != filepath.Join("day1", "cam", "clip.mp4.mov") {
		t.Fatalf("unexpected outputs %v", outputs)
	}
	for _, file := range summary.Files {
		if file.Outcome == convert.OutcomeSkipped && (file.Reason != "non-media" || file.Err != nil) {
			t.Fatalf("text file should be a silent non-media skip: %+v", file)
		}
	}

	status := f.status.String()
	for _, want := range []string{
		"Script started ",
		"flags:      IN_CLOSE_WRITE",
		"Started conversion\nSource: " + filepath.Join(day, "cam", "clip.mp4"),
		"Target: " + filepath.Join(f.out, "day1", "cam", "clip.mp4.mov"),
		"Finished conversion",
		"Script finished: processed 2, converted 1, skipped 1 (non-media), failed 0 (errors)",
	} {
		if !strings.Contains(status, want) {
			t.Fatalf("status stream missing %q:\n%s", want, status)
		}
	}
	if strings.Contains(status, "notes.txt") {
		t.Fatalf("skipped file should not appear in the status stream:\n%s", status)
	}
}

func TestRerunOverwritesAndExistingDirsAreFine(t *testing.T) {
	f := newFixture(t)
	clip := testsupport.WriteVideo(t, filepath.Join(f.watch, "a", "clip.mp4"))
	if err := os.MkdirAll(filepath.Join(f.out, "a"), 0o755); err != nil {
		t.Fatalf("pre-create target dir: %v", err)
	}

	for i := 0; i < 2; i++ {
		summary, err := f.run(t, clip)
		if err != nil || summary.Converted != 1 {
			t.Fatalf("run %d: %s, %v", i+1, summary.Line(), err)
		}
	}
	if outputs := listOutputs(t, f.out); len(outputs) != 1 {
		t.Fatalf("expected one output after rerun, got %v", outputs)
	}
}

func TestMissingChangedPath(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(f.watch, "gone.mp4")

	summary, err := f.run(t, missing)
	if err != nil {
		t.Fatalf("skip policy should not fail: %v", err)
	}
	if summary.Converted != 0 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary %s", summary.Line())
	}
	var cerr *convert.ClassificationError
	if !errors.As(summary.Files[0].Err, &cerr) || cerr.Reason != "missing" {
		t.Fatalf("expected classification error, got %v", summary.Files[0].Err)
	}

	f.cfg.Discovery.MissingPath = config.MissingPathFail
	_, err = f.run(t, missing)
	var derr *convert.DiscoveryError
	if !errors.As(err, &derr) || !errors.Is(err, discover.ErrDiscovery) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
	if !strings.Contains(f.status.String(), "Script aborted") {
		t.Fatalf("expected abort line:\n%s", f.status.String())
	}
}

func TestTranscodeFailureDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.watch, "batch")
	testsupport.WriteVideo(t, filepath.Join(dir, "good.mp4"))
	testsupport.WriteVideo(t, filepath.Join(dir, "will-fail.mp4"))
	testsupport.WriteAudio(t, filepath.Join(dir, "tone.wav"))

	summary, err := f.run(t, dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Converted != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %s", summary.Line())
	}
	failed := summary.FailedFiles()
	if len(failed) != 1 || !strings.HasSuffix(failed[0].Source, "will-fail.mp4") {
		t.Fatalf("unexpected failures %+v", failed)
	}
	var terr *convert.TranscodeError
	if !errors.As(failed[0].Err, &terr) || !errors.Is(failed[0].Err, convert.ErrTranscode) {
		t.Fatalf("expected TranscodeError, got %v", failed[0].Err)
	}
	if !strings.Contains(f.status.String(), "Failed conversion") {
		t.Fatalf("expected failure line:\n%s", f.status.String())
	}
}

func TestLiteralPathMode(t *testing.T) {
	f := newFixture(t)
	f.cfg.Convert.PathMode = config.PathModeLiteral
	f.rebuild(t)
	clip := testsupport.WriteVideo(t, filepath.Join(f.watch, "c", "d.mp4"))

	summary, err := f.run(t, clip)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := summary.Files[0].Destination, f.out+"/c/d.mp4.mov"; got != want {
		t.Fatalf("destination = %q want %q", got, want)
	}
}

func TestRelativeModeRejectsFilesOutsideRoot(t *testing.T) {
	f := newFixture(t)
	outside := testsupport.WriteVideo(t, filepath.Join(testsupport.BaseDir(f.cfg), "elsewhere", "x.mp4"))

	summary, err := f.run(t, outside)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("expected mapping failure, got %s", summary.Line())
	}
	if !errors.Is(summary.Files[0].Err, convert.ErrMapping) || !errors.Is(summary.Files[0].Err, pathmap.ErrOutsideRoot) {
		t.Fatalf("expected MappingError, got %v", summary.Files[0].Err)
	}
}

func TestSymlinkedChangedDirectory(t *testing.T) {
	f := newFixture(t)
	card := filepath.Join(testsupport.BaseDir(f.cfg), "card")
	testsupport.WriteVideo(t, filepath.Join(card, "clip.mp4"))
	testsupport.WriteAudio(t, filepath.Join(card, "audio", "take.wav"))
	link := filepath.Join(f.watch, "latest")
	if err := os.Symlink(card, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	summary, err := f.run(t, link)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 2 || summary.Converted != 2 {
		t.Fatalf("unexpected summary: %s", summary.Line())
	}
	for _, rel := range []string{"clip.mp4.mov", filepath.Join("audio", "take.wav.mov")} {
		if _, err := os.Stat(filepath.Join(f.out, "latest", rel)); err != nil {
			t.Fatalf("expected output %s: %v", rel, err)
		}
	}
}

func TestUnreadableChangedDirectoryAborts(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	f := newFixture(t)
	locked := filepath.Join(f.watch, "locked")
	testsupport.WriteVideo(t, filepath.Join(locked, "clip.mp4"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	summary, err := f.run(t, locked)
	var derr *convert.DiscoveryError
	if !errors.As(err, &derr) || !errors.Is(err, discover.ErrDiscovery) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
	if summary.Processed != 0 {
		t.Fatalf("unexpected summary: %s", summary.Line())
	}
	if !strings.Contains(f.status.String(), "Script aborted") {
		t.Fatalf("expected abort line:\n%s", f.status.String())
	}
}

func TestDirectoryCreationFailure(t *testing.T) {
	f := newFixture(t)
	clip := testsupport.WriteVideo(t, filepath.Join(f.watch, "sub", "clip.mp4"))
	// A regular file where the target directory should go.
	testsupport.WriteText(t, filepath.Join(f.out, "sub"))

	summary, err := f.run(t, clip)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var derr *convert.DirectoryCreationError
	if summary.Failed != 1 || !errors.As(summary.Files[0].Err, &derr) || !errors.Is(derr, convert.ErrDirectory) {
		t.Fatalf("expected DirectoryCreationError, got %s / %v", summary.Line(), summary.Files[0].Err)
	}
}

func TestWorkerPoolProcessesEachFileOnce(t *testing.T) {
	f := newFixture(t, testsupport.WithWorkers(4))
	logPath := filepath.Join(testsupport.BaseDir(f.cfg), "calls.log")
	t.Setenv("MOVCONV_STUB_LOG", logPath)

	dir := filepath.Join(f.watch, "many")
	for _, name := range []string{"a.mp4", "b.mp4", "c.wav", "d/e.mp4", "d/f.wav", "g.txt"} {
		path := filepath.Join(dir, name)
		switch filepath.Ext(name) {
		case ".mp4":
			testsupport.WriteVideo(t, path)
		case ".wav":
			testsupport.WriteAudio(t, path)
		default:
			testsupport.WriteText(t, path)
		}
	}

	summary, err := f.run(t, dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 6 || summary.Converted != 5 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary %s", summary.Line())
	}
	calls, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read call log: %v", err)
	}
	if n := strings.Count(string(calls), "\n"); n != 5 {
		t.Fatalf("expected 5 encoder calls, got %d:\n%s", n, calls)
	}
}

func TestCancelledRunConvertsNothing(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.watch, "batch")
	testsupport.WriteVideo(t, filepath.Join(dir, "a.mp4"))
	testsupport.WriteVideo(t, filepath.Join(dir, "b.mp4"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := f.conv.Run(ctx, convert.InvocationArgs{WatchedRoot: f.watch, ChangedPath: dir, Event: "x", OutputRoot: f.out})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Converted != 0 {
		t.Fatalf("cancelled run converted files: %s", summary.Line())
	}
}

func TestRunsAreRecordedInHistory(t *testing.T) {
	f := newFixture(t, testsupport.WithHistory())
	store := testsupport.MustOpenHistory(t, f.cfg)
	f.rebuild(t, convert.WithRecorder(store))

	day := filepath.Join(f.watch, "day")
	testsupport.WriteVideo(t, filepath.Join(day, "clip.mp4"))
	testsupport.WriteText(t, filepath.Join(day, "readme.txt"))

	summary, err := f.run(t, day)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	run, err := store.GetRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Trigger != history.TriggerCLI || run.Converted != 1 || run.Skipped != 1 || len(run.Files) != 2 {
		t.Fatalf("unexpected recorded run %+v", run)
	}

	ctx := logging.WithJob(context.Background(), "camera")
	watched, err := f.conv.Run(ctx, convert.InvocationArgs{WatchedRoot: f.watch, ChangedPath: day, Event: "create", OutputRoot: f.out})
	if err != nil {
		t.Fatalf("Run with job: %v", err)
	}
	run, err = store.GetRun(context.Background(), watched.RunID)
	if err != nil {
		t.Fatalf("GetRun watched: %v", err)
	}
	if run.Trigger != history.TriggerWatch || run.JobLabel != "camera" {
		t.Fatalf("expected watch trigger for job run, got %+v", run)
	}
}

func TestParseArgs(t *testing.T) {
	args, err := convert.ParseArgs([]string{"/w", "/w/x", "IN_CREATE", "/o"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.WatchedRoot != "/w" || args.ChangedPath != "/w/x" || args.Event != "IN_CREATE" || args.OutputRoot != "/o" {
		t.Fatalf("unexpected args %+v", args)
	}
	for _, bad := range [][]string{nil, {"a", "b", "c"}, {"a", "b", "c", "d", "e"}} {
		_, err := convert.ParseArgs(bad)
		var uerr *convert.UsageError
		if !errors.As(err, &uerr) || !errors.Is(err, convert.ErrUsage) || uerr.Got != len(bad) {
			t.Fatalf("ParseArgs(%v) = %v", bad, err)
		}
	}
}

func TestOutcomeLabel(t *testing.T) {
	if got := convert.OutcomeConverted.Label(); got != "Converted" {
		t.Fatalf("Label() = %q", got)
	}
}

func TestNewRejectsUnknownPathMode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Convert.PathMode = "sideways"
	if _, err := convert.New(cfg); err == nil {
		t.Fatal("expected unknown path mode to fail")
	}
}
