package sniff_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"movconv/internal/sniff"
	"movconv/internal/testsupport"
)

var (
	wavHeader = testsupport.WAVHeader
	mp4Header = testsupport.MP4Header
)

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestClassifyUsesContentNotExtension(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name      string
		data      []byte
		decision  sniff.Decision
		wantVideo bool
		wantAudio bool
	}{
		{"song.wav", wavHeader, sniff.Qualifies, false, true},
		{"clip.mp4", mp4Header, sniff.Qualifies, true, false},
		{"notes.txt", []byte("just some notes\n"), sniff.Skip, false, false},
		{"fake.mp4", []byte("plain text pretending to be video\n"), sniff.Skip, false, false},
		{"audio-without-extension", wavHeader, sniff.Qualifies, false, true},
	}

	s := sniff.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Classify(write(t, dir, tc.name, tc.data))
			if got.Decision != tc.decision {
				t.Fatalf("decision: got %s want %s (mime %q)", got.Decision, tc.decision, got.MIME)
			}
			if got.IsVideo != tc.wantVideo || got.IsAudio != tc.wantAudio {
				t.Fatalf("unexpected flags for %q: %+v", got.MIME, got)
			}
			if got.Decision == sniff.Skip && got.Reason != sniff.ReasonNonMedia {
				t.Fatalf("expected non-media reason, got %q", got.Reason)
			}
		})
	}
}

func TestClassifyMissingFileIsSkippedNotFatal(t *testing.T) {
	got := sniff.New().Classify(filepath.Join(t.TempDir(), "vanished.mov"))
	if got.Decision != sniff.Skip || got.Reason != sniff.ReasonMissing {
		t.Fatalf("unexpected classification: %+v", got)
	}
	if !errors.Is(got.Err, sniff.ErrClassification) {
		t.Fatalf("expected ErrClassification, got %v", got.Err)
	}
}

func TestClassifyDirectoryIsSkipped(t *testing.T) {
	got := sniff.New().Classify(t.TempDir())
	if got.Decision != sniff.Skip || got.Reason != sniff.ReasonIsDirectory {
		t.Fatalf("unexpected classification: %+v", got)
	}
}

type failingDetector struct{}

func (failingDetector) DetectFile(string) (string, error) { return "", errors.New("permission denied") }

func TestClassifyDetectorFailure(t *testing.T) {
	path := write(t, t.TempDir(), "locked.mp4", mp4Header)
	got := sniff.NewWithDetector(failingDetector{}).Classify(path)
	if got.Decision != sniff.Skip || got.Reason != sniff.ReasonUnreadable {
		t.Fatalf("unexpected classification: %+v", got)
	}
}

func TestDecideMatchesCategorySubstring(t *testing.T) {
	cases := map[string]sniff.Decision{
		"video/quicktime":           sniff.Qualifies,
		"audio/mpeg":                sniff.Qualifies,
		"application/x-audio-thing": sniff.Qualifies,
		"image/png":                 sniff.Skip,
		"text/plain; charset=utf-8": sniff.Skip,
		"application/octet-stream":  sniff.Skip,
	}
	for mime, want := range cases {
		if got := sniff.Decide("f", mime).Decision; got != want {
			t.Fatalf("%s: got %s want %s", mime, got, want)
		}
	}
}
