package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"movconv/internal/config"
	"movconv/internal/discover"
	"movconv/internal/ffmpeg"
	"movconv/internal/history"
	"movconv/internal/logging"
	"movconv/internal/media/ffprobe"
	"movconv/internal/pathmap"
	"movconv/internal/sniff"
)

// Classifier decides whether a candidate is media.
type Classifier interface {
	Classify(path string) sniff.Classification
}

// Transcoder runs one encode.
type Transcoder interface {
	Transcode(ctx context.Context, job ffmpeg.Job) (ffmpeg.Result, error)
}

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run history.Run) error
	Prune(ctx context.Context, keep int) (int64, error)
}

// Converter runs conversion batches. It is safe to call Run concurrently;
// each call owns its own worker pool.
type Converter struct {
	cfg        *config.Config
	classifier Classifier
	transcoder Transcoder
	reporter   *Reporter
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes a Converter.
type Option func(*Converter)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) { c.logger = logger }
}

// WithReporter sets the status stream.
func WithReporter(r *Reporter) Option {
	return func(c *Converter) { c.reporter = r }
}

// WithClassifier replaces the mimetype-backed sniffer.
func WithClassifier(cl Classifier) Option {
	return func(c *Converter) { c.classifier = cl }
}

// WithTranscoder replaces the ffmpeg runner built from config.
func WithTranscoder(t Transcoder) Option {
	return func(c *Converter) { c.transcoder = t }
}

// WithRecorder stores every finished run in r.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) { c.recorder = r }
}

// New builds a Converter from cfg. Collaborators not supplied through options
// are built from configuration.
func New(cfg *config.Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		return nil, errors.New("convert: config is required")
	}
	if _, err := pathmap.ParseMode(cfg.Convert.PathMode); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	c := &Converter{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	c.logger = logging.NewComponentLogger(c.logger, "convert")
	if c.reporter == nil {
		c.reporter = NewReporter(os.Stdout, false)
	}
	if c.classifier == nil {
		c.classifier = sniff.New()
	}
	if c.transcoder == nil {
		var runnerOpts []ffmpeg.RunnerOption
		if cfg.FFmpeg.ValidateProbe {
			runnerOpts = append(runnerOpts, ffmpeg.WithValidator(ffprobe.Validator{Binary: cfg.FFmpeg.ProbeBinary}))
		}
		c.transcoder = ffmpeg.NewRunnerFromConfig(cfg, runnerOpts...)
	}
	return c, nil
}

// Run converts every qualifying file under args.ChangedPath. Per-file
// failures are counted in the summary; the returned error is non-nil only
// for discovery failures and cancellation.
func (c *Converter) Run(ctx context.Context, args InvocationArgs) (Summary, error) {
	summary := Summary{
		RunID:   uuid.NewString(),
		Args:    args,
		Started: c.now(),
	}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, c.logger)

	c.reporter.RunStarted(summary.Started, summary.RunID, args)
	logger.Info("conversion run started",
		logging.String("watched_root", args.WatchedRoot),
		logging.String("changed_path", args.ChangedPath),
		logging.String(logging.FieldEventType, args.Event),
		logging.String("output_root", args.OutputRoot),
	)

	policy := discover.MissingAsCandidate
	if c.cfg.Discovery.MissingPath == config.MissingPathFail {
		policy = discover.MissingFails
	}
	found, err := discover.Discover(ctx, args.ChangedPath, policy, logger)
	if err != nil {
		runErr := error(&DiscoveryError{Path: args.ChangedPath, Err: err})
		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = ctxErr
		}
		summary.Finished = c.now()
		c.reporter.RunAborted(runErr)
		logger.Error("conversion run aborted", logging.Error(runErr))
		c.record(ctx, logger, summary, runErr)
		return summary, runErr
	}
	logger.Debug("candidates discovered",
		logging.Int("count", len(found.Candidates)),
		logging.Bool("directory", found.Directory),
		logging.Bool("missing", found.Missing),
	)

	mode, _ := pathmap.ParseMode(c.cfg.Convert.PathMode)
	mapper := pathmap.Mapper{
		WatchedRoot: args.WatchedRoot,
		OutputRoot:  args.OutputRoot,
		Mode:        mode,
		Suffix:      c.cfg.FFmpeg.OutputSuffix,
	}

	outcomes := c.dispatch(ctx, logger, mapper, found.Candidates)
	for _, outcome := range outcomes {
		if outcome != nil {
			summary.add(*outcome)
		}
	}
	summary.Finished = c.now()

	runErr := ctx.Err()
	c.reporter.RunFinished(summary)
	logger.Info("conversion run finished",
		logging.Int("processed", summary.Processed),
		logging.Int("converted", summary.Converted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Duration()),
	)
	c.record(ctx, logger, summary, runErr)
	return summary, runErr
}

// dispatch feeds candidates to a fixed pool of workers. Slots for candidates
// never dispatched because ctx ended stay nil.
func (c *Converter) dispatch(ctx context.Context, logger *slog.Logger, mapper pathmap.Mapper, candidates []string) []*FileOutcome {
	outcomes := make([]*FileOutcome, len(candidates))
	workers := c.cfg.Convert.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcome := c.processFile(ctx, logger, mapper, candidates[idx])
				outcomes[idx] = &outcome
			}
		}()
	}

dispatchLoop:
	for idx := range candidates {
		select {
		case <-ctx.Done():
			logger.Warn("run cancelled; remaining candidates not dispatched",
				logging.Int("remaining", len(candidates)-idx))
			break dispatchLoop
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func (c *Converter) processFile(ctx context.Context, logger *slog.Logger, mapper pathmap.Mapper, path string) FileOutcome {
	logger = logger.With(logging.String(logging.FieldSource, path))
	outcome := FileOutcome{Source: path}

	class := c.classifier.Classify(path)
	outcome.MIME = class.MIME
	if class.Decision != sniff.Qualifies {
		outcome.Outcome = OutcomeSkipped
		outcome.Reason = class.Reason
		if class.Err != nil {
			outcome.Err = &ClassificationError{Path: path, Reason: class.Reason, Err: class.Err}
			logger.Warn("candidate skipped",
				logging.String("reason", class.Reason),
				logging.Error(class.Err),
				logging.String(logging.FieldErrorHint, "check that the file exists and is readable"),
			)
		} else {
			logger.Debug("candidate skipped",
				logging.String("reason", class.Reason),
				logging.String("mime", class.MIME),
			)
		}
		return outcome
	}

	mapping, err := mapper.Map(path)
	if err != nil {
		return c.fail(logger, outcome, &MappingError{Path: path, Err: err})
	}
	outcome.Destination = mapping.Destination
	logger = logger.With(logging.String(logging.FieldDestination, mapping.Destination))

	if err := pathmap.EnsureDir(mapping); err != nil {
		return c.fail(logger, outcome, &DirectoryCreationError{Dir: mapping.TargetDir, Err: err})
	}

	c.reporter.FileStarted(path, mapping.Destination)
	logger.Debug("transcode started", logging.String("mime", class.MIME))
	result, err := c.transcoder.Transcode(ctx, ffmpeg.Job{Source: path, Destination: mapping.Destination})
	outcome.Duration = result.Duration
	if err != nil {
		return c.fail(logger, outcome, err)
	}
	outcome.Outcome = OutcomeConverted
	outcome.OutputBytes = result.Size
	c.reporter.FileFinished(path, result.Duration)
	logger.Info("file converted",
		logging.Duration("elapsed", result.Duration),
		logging.Any("bytes", result.Size),
	)
	return outcome
}

func (c *Converter) fail(logger *slog.Logger, outcome FileOutcome, err error) FileOutcome {
	outcome.Outcome = OutcomeFailed
	outcome.Err = err
	c.reporter.FileFailed(outcome.Source, err)

	attrs := []logging.Attr{logging.Error(err)}
	var terr *TranscodeError
	if errors.As(err, &terr) {
		if terr.Hint != "" {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, terr.Hint))
		}
		if tail := terr.StderrTail(5); tail != "" {
			attrs = append(attrs, logging.String("stderr", tail))
		}
	}
	logger.Error("file failed", logging.Args(attrs...)...)
	return outcome
}

func (c *Converter) record(ctx context.Context, logger *slog.Logger, summary Summary, runErr error) {
	if c.recorder == nil {
		return
	}
	trigger := history.TriggerCLI
	label, ok := logging.JobFromContext(ctx)
	if ok {
		trigger = history.TriggerWatch
	}
	// The ledger outlives cancellation of the run itself.
	storeCtx := context.WithoutCancel(ctx)
	if err := c.recorder.RecordRun(storeCtx, summary.HistoryRun(trigger, label, runErr)); err != nil {
		logger.Warn("run history not recorded", logging.Error(err))
		return
	}
	if keep := c.cfg.History.KeepRuns; keep > 0 {
		if removed, err := c.recorder.Prune(storeCtx, keep); err != nil {
			logger.Warn("run history prune failed", logging.Error(err))
		} else if removed > 0 {
			logger.Debug("run history pruned", logging.Any("removed", removed))
		}
	}
}
