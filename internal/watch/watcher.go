package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"movconv/internal/config"
	"movconv/internal/convert"
	"movconv/internal/logging"
)

// Runner converts one changed path.
type Runner interface {
	Run(ctx context.Context, args convert.InvocationArgs) (convert.Summary, error)
}

type pendingKey struct {
	job  string
	path string
}

type pending struct {
	job   config.WatchJob
	ops   fsnotify.Op
	timer *time.Timer
}

// Watcher dispatches debounced filesystem events to a Runner.
type Watcher struct {
	jobs     []config.WatchJob
	runner   Runner
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[pendingKey]*pending

	// runMu serializes conversions so jobs never encode concurrently.
	runMu    sync.Mutex
	inflight sync.WaitGroup
	added    map[string]struct{}
	ready    chan struct{}
}

// New returns a Watcher for the jobs configured in cfg.
func New(cfg *config.Config, runner Runner, logger *slog.Logger) (*Watcher, error) {
	if runner == nil {
		return nil, errors.New("watch: runner is required")
	}
	if len(cfg.Watch.Jobs) == 0 {
		return nil, errors.New("watch: no jobs configured (add [[watch.jobs]] to the config)")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		jobs:     cfg.Watch.Jobs,
		runner:   runner,
		debounce: cfg.WatchDebounce(),
		logger:   logging.NewComponentLogger(logger, "watch"),
		pending:  make(map[pendingKey]*pending),
		added:    make(map[string]struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Run watches every job until ctx is done, then waits for in-flight
// conversions. Debounced events that have not fired yet are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	for _, job := range w.jobs {
		if err := w.addTree(fsw, job.Watch); err != nil {
			return fmt.Errorf("watch %s (%s): %w", job.Watch, job.Label, err)
		}
		w.logger.Info("watching",
			logging.String(logging.FieldJob, job.Label),
			logging.String("path", job.Watch),
			logging.String("output", job.Output),
			logging.Strings("events", job.Events),
		)
	}

	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			w.inflight.Wait()
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				w.inflight.Wait()
				return errors.New("fsnotify events channel closed")
			}
			w.handle(ctx, fsw, ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				w.inflight.Wait()
				return errors.New("fsnotify errors channel closed")
			}
			w.logger.Error("fsnotify error", logging.Error(err))
		}
	}
}

// Ready is closed once every job's tree is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	w.logger.Debug("event", logging.String("name", ev.Name), logging.String("op", ev.Op.String()))

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.forget(fsw, ev.Name)
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					logging.String("path", ev.Name),
					logging.Error(err),
				)
			}
		}
	}

	for _, job := range w.jobs {
		if !within(job.Watch, ev.Name) || !Matches(job.Events, ev.Op) {
			continue
		}
		w.schedule(ctx, job, ev)
	}
}

// addTree adds root and every directory beneath it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Warn("skipping unreadable directory", logging.String("path", path), logging.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		w.mu.Lock()
		_, seen := w.added[path]
		w.mu.Unlock()
		if seen {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return err
		}
		w.mu.Lock()
		w.added[path] = struct{}{}
		w.mu.Unlock()
		return nil
	})
}

// forget drops path and every directory beneath it from the watch set so a
// directory recreated at the same path is added again.
func (w *Watcher) forget(fsw *fsnotify.Watcher, path string) {
	w.mu.Lock()
	var gone []string
	for dir := range w.added {
		if within(path, dir) {
			gone = append(gone, dir)
			delete(w.added, dir)
		}
	}
	w.mu.Unlock()

	for _, dir := range gone {
		// The kernel drops the watch of a deleted directory on its own.
		if err := fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			w.logger.Debug("failed to unwatch directory", logging.String("path", dir), logging.Error(err))
		}
	}
	if len(gone) > 0 {
		w.logger.Debug("directories unwatched", logging.String("path", path), logging.Int("count", len(gone)))
	}
}

// schedule (re)arms the debounce timer for the job and path. Ops seen while
// waiting are merged into the descriptor.
func (w *Watcher) schedule(ctx context.Context, job config.WatchJob, ev fsnotify.Event) {
	key := pendingKey{job: job.Label, path: ev.Name}

	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[key]; ok {
		p.ops |= ev.Op
		p.timer.Reset(w.debounce)
		return
	}
	p := &pending{job: job, ops: ev.Op}
	p.timer = time.AfterFunc(w.debounce, func() { w.fire(ctx, key) })
	w.pending[key] = p
}

func (w *Watcher) fire(ctx context.Context, key pendingKey) {
	w.mu.Lock()
	p, ok := w.pending[key]
	if ok {
		delete(w.pending, key)
	}
	if !ok || ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mu.Unlock()
	defer w.inflight.Done()

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("conversion panic", logging.Any("panic", r), logging.String(logging.FieldJob, key.job))
		}
	}()

	w.runMu.Lock()
	defer w.runMu.Unlock()

	args := convert.InvocationArgs{
		WatchedRoot: p.job.Watch,
		ChangedPath: key.path,
		Event:       Descriptor(p.ops),
		OutputRoot:  p.job.Output,
	}
	jobCtx := logging.WithJob(ctx, p.job.Label)
	summary, err := w.runner.Run(jobCtx, args)
	logger := logging.WithContext(jobCtx, w.logger)
	if err != nil {
		logger.Error("conversion run failed",
			logging.String(logging.FieldSource, key.path),
			logging.Error(err),
		)
		return
	}
	logger.Info("conversion run complete",
		logging.String(logging.FieldSource, key.path),
		logging.String("summary", summary.Line()),
		logging.String(logging.FieldRunID, summary.RunID),
	)
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, key)
	}
}

// within reports whether path is root or lies beneath it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
