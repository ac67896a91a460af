// Package discover expands a changed path into the candidate files a
// conversion run considers.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"movconv/internal/logging"
)

// ErrDiscovery marks failures that prevent enumerating the changed path.
var ErrDiscovery = errors.New("discovery failed")

// MissingPolicy decides what happens when the changed path does not exist.
type MissingPolicy int

const (
	// MissingAsCandidate keeps the path as the sole candidate; it is later
	// skipped as unreadable.
	MissingAsCandidate MissingPolicy = iota
	// MissingFails reports ErrDiscovery.
	MissingFails
)

// Result lists the candidates found under a changed path.
type Result struct {
	Root       string
	Directory  bool
	Missing    bool
	Candidates []string
}

// Discover returns every regular file beneath changedPath when it is a
// directory, and changedPath itself otherwise. Order follows the walk and is
// not part of the contract.
func Discover(ctx context.Context, changedPath string, policy MissingPolicy, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	result := Result{Root: changedPath}

	info, err := os.Stat(changedPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Missing = true
		if policy == MissingFails {
			return result, fmt.Errorf("%w: %s does not exist", ErrDiscovery, changedPath)
		}
		result.Candidates = []string{changedPath}
		return result, nil
	case err != nil:
		// Unstattable but present paths still go through classification,
		// which records why they were skipped.
		result.Candidates = []string{changedPath}
		return result, nil
	case !info.IsDir():
		result.Candidates = []string{changedPath}
		return result, nil
	}

	result.Directory = true

	// WalkDir does not descend into a symlinked root, so walk its target and
	// report paths under changedPath.
	walkRoot, err := filepath.EvalSymlinks(changedPath)
	if err != nil {
		return result, fmt.Errorf("%w: resolve %s: %w", ErrDiscovery, changedPath, err)
	}
	walkErr := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == walkRoot {
				return err
			}
			logger.Warn("skipping unreadable entry",
				logging.String(logging.FieldSource, path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "discover_entry_unreadable"),
			)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if isFileLike(path, d) {
			result.Candidates = append(result.Candidates, underRoot(changedPath, walkRoot, path))
		}
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return result, walkErr
		}
		return result, fmt.Errorf("%w: walk %s: %w", ErrDiscovery, changedPath, walkErr)
	}
	return result, nil
}

// isFileLike accepts regular files and symlinks that resolve to regular files.
func isFileLike(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// underRoot re-expresses path, found beneath walkRoot, relative to root.
func underRoot(root, walkRoot, path string) string {
	if root == walkRoot {
		return path
	}
	rel, err := filepath.Rel(walkRoot, path)
	if err != nil {
		return path
	}
	return filepath.Join(root, rel)
}
