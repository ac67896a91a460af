package discover_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"movconv/internal/discover"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiscoverDirectoryReturnsEveryRegularFile(t *testing.T) {
	root := t.TempDir()
	want := []string{
		filepath.Join(root, "a.mp4"),
		filepath.Join(root, "noext"),
		filepath.Join(root, ".hidden.wav"),
		filepath.Join(root, "nested", "deeper", "b.mov"),
		filepath.Join(root, "nested", "c.txt"),
	}
	for _, path := range want {
		writeFile(t, path)
	}
	if err := os.MkdirAll(filepath.Join(root, "empty", "dir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "a.mp4"), filepath.Join(root, "link.mp4")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "nested"), filepath.Join(root, "dirlink")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	want = append(want, filepath.Join(root, "link.mp4"))

	result, err := discover.Discover(context.Background(), root, discover.MissingAsCandidate, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !result.Directory {
		t.Fatal("expected directory result")
	}

	got := append([]string(nil), result.Candidates...)
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("candidate count mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestDiscoverSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	writeFile(t, path)

	result, err := discover.Discover(context.Background(), path, discover.MissingAsCandidate, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if result.Directory || len(result.Candidates) != 1 || result.Candidates[0] != path {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestDiscoverMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.mp4")

	result, err := discover.Discover(context.Background(), missing, discover.MissingAsCandidate, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !result.Missing || len(result.Candidates) != 1 || result.Candidates[0] != missing {
		t.Fatalf("unexpected result: %+v", result)
	}

	_, err = discover.Discover(context.Background(), missing, discover.MissingFails, nil)
	if !errors.Is(err, discover.ErrDiscovery) {
		t.Fatalf("expected ErrDiscovery, got %v", err)
	}
}

func TestDiscoverHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp4"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := discover.Discover(ctx, root, discover.MissingAsCandidate, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDiscoverFollowsSymlinkedRoot(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "card")
	writeFile(t, filepath.Join(target, "a.mp4"))
	writeFile(t, filepath.Join(target, "sub", "b.wav"))
	link := filepath.Join(base, "watch", "latest")
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	result, err := discover.Discover(context.Background(), link, discover.MissingAsCandidate, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !result.Directory {
		t.Fatal("expected directory result")
	}
	got := append([]string(nil), result.Candidates...)
	sort.Strings(got)
	want := []string{
		filepath.Join(link, "a.mp4"),
		filepath.Join(link, "sub", "b.wav"),
	}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestDiscoverUnreadableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	root := filepath.Join(t.TempDir(), "locked")
	writeFile(t, filepath.Join(root, "a.mp4"))
	if err := os.Chmod(root, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err := discover.Discover(context.Background(), root, discover.MissingAsCandidate, nil)
	if !errors.Is(err, discover.ErrDiscovery) {
		t.Fatalf("expected ErrDiscovery, got %v", err)
	}
}
