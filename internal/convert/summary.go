package convert

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"movconv/internal/history"
)

// Outcome is the terminal state of one candidate.
type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Label returns the outcome for display, e.g. "Converted".
func (o Outcome) Label() string {
	return cases.Title(language.English).String(string(o))
}

// FileOutcome records what happened to one candidate.
type FileOutcome struct {
	Source      string
	Destination string
	MIME        string
	Outcome     Outcome
	Reason      string
	Err         error
	Duration    time.Duration
	OutputBytes int64
}

// Summary aggregates a run.
type Summary struct {
	RunID     string
	Args      InvocationArgs
	Started   time.Time
	Finished  time.Time
	Processed int
	Converted int
	Skipped   int
	Failed    int
	Files     []FileOutcome
}

func (s *Summary) add(outcome FileOutcome) {
	s.Files = append(s.Files, outcome)
	s.Processed++
	switch outcome.Outcome {
	case OutcomeConverted:
		s.Converted++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// Line renders the final counts.
func (s Summary) Line() string {
	return fmt.Sprintf("processed %d, converted %d, skipped %d (non-media), failed %d (errors)",
		s.Processed, s.Converted, s.Skipped, s.Failed)
}

// Duration returns the wall time of the run.
func (s Summary) Duration() time.Duration {
	if s.Finished.Before(s.Started) {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// FailedFiles returns the outcomes that ended in failure.
func (s Summary) FailedFiles() []FileOutcome {
	var failed []FileOutcome
	for _, f := range s.Files {
		if f.Outcome == OutcomeFailed {
			failed = append(failed, f)
		}
	}
	return failed
}

// HistoryRun converts the summary into a ledger record.
func (s Summary) HistoryRun(trigger history.Trigger, jobLabel string, runErr error) history.Run {
	run := history.Run{
		ID:          s.RunID,
		Trigger:     trigger,
		JobLabel:    jobLabel,
		WatchedRoot: s.Args.WatchedRoot,
		ChangedPath: s.Args.ChangedPath,
		Event:       s.Args.Event,
		OutputRoot:  s.Args.OutputRoot,
		StartedAt:   s.Started,
		FinishedAt:  s.Finished,
		Processed:   s.Processed,
		Converted:   s.Converted,
		Skipped:     s.Skipped,
		Failed:      s.Failed,
		Files:       make([]history.File, 0, len(s.Files)),
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	for _, f := range s.Files {
		file := history.File{
			Source:      f.Source,
			Destination: f.Destination,
			MIME:        f.MIME,
			Outcome:     history.Outcome(f.Outcome),
			Reason:      f.Reason,
			Duration:    f.Duration,
			OutputBytes: f.OutputBytes,
		}
		if f.Err != nil {
			file.ErrorMessage = f.Err.Error()
		}
		run.Files = append(run.Files, file)
	}
	return run
}
