package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned when no run matches an id or id prefix.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRun is returned when an id prefix matches more than one run.
var ErrAmbiguousRun = errors.New("run id prefix is ambiguous")

// Trigger records what started a run.
type Trigger string

const (
	TriggerCLI   Trigger = "cli"
	TriggerWatch Trigger = "watch"
)

// Outcome is the per-file result stored in the ledger.
type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Run is one converter invocation.
type Run struct {
	ID          string
	Trigger     Trigger
	JobLabel    string
	WatchedRoot string
	ChangedPath string
	Event       string
	OutputRoot  string
	StartedAt   time.Time
	FinishedAt  time.Time
	Processed   int
	Converted   int
	Skipped     int
	Failed      int
	Files       []File

	// ErrorMessage is set when the run aborted before processing files.
	ErrorMessage string
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// File is the ledger row for one discovered file.
type File struct {
	Source       string
	Destination  string
	MIME         string
	Outcome      Outcome
	Reason       string
	ErrorMessage string
	Duration     time.Duration
	OutputBytes  int64
}

const runColumns = "id, trigger, job_label, watched_root, changed_path, event, output_root, started_at, finished_at, processed, converted, skipped, failed, error_message"

// RecordRun stores run and its files in a single transaction.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("record run: empty id")
	}
	if run.Trigger == "" {
		run.Trigger = TriggerCLI
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			string(run.Trigger),
			nullString(run.JobLabel),
			run.WatchedRoot,
			run.ChangedPath,
			nullString(run.Event),
			run.OutputRoot,
			formatTime(run.StartedAt),
			formatTime(run.FinishedAt),
			run.Processed,
			run.Converted,
			run.Skipped,
			run.Failed,
			nullString(run.ErrorMessage),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO files
			(run_id, source_path, destination, mime, outcome, reason, error_message, duration_ms, output_bytes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare file insert: %w", err)
		}
		defer stmt.Close()
		for _, f := range run.Files {
			if _, err := stmt.ExecContext(ctx,
				run.ID,
				f.Source,
				nullString(f.Destination),
				nullString(f.MIME),
				string(f.Outcome),
				nullString(f.Reason),
				nullString(f.ErrorMessage),
				f.Duration.Milliseconds(),
				f.OutputBytes,
			); err != nil {
				return fmt.Errorf("insert file %s: %w", f.Source, err)
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// returns every run. Files are not loaded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun loads a run and its files. id may be a unique prefix of the full id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		id, escapeLike(id)+"%")
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return Run{}, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Run{}, err
	}
	rows.Close()

	var run Run
	switch {
	case len(matches) == 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case len(matches) == 1:
		run = matches[0]
	case matches[0].ID == id:
		run = matches[0]
	case matches[1].ID == id:
		run = matches[1]
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousRun, id)
	}

	files, err := s.RunFiles(ctx, run.ID)
	if err != nil {
		return Run{}, err
	}
	run.Files = files
	return run, nil
}

// RunFiles returns the file rows for runID in the order they were recorded.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_path, destination, mime, outcome, reason, error_message, duration_ms, output_bytes
		FROM files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("run files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			f                          File
			dest, mime, reason, errMsg sql.NullString
			outcome                    string
			durationMS, outputBytes    int64
		)
		if err := rows.Scan(&f.Source, &dest, &mime, &outcome, &reason, &errMsg, &durationMS, &outputBytes); err != nil {
			return nil, err
		}
		f.Destination = dest.String
		f.MIME = mime.String
		f.Outcome = Outcome(outcome)
		f.Reason = reason.String
		f.ErrorMessage = errMsg.String
		f.Duration = time.Duration(durationMS) * time.Millisecond
		f.OutputBytes = outputBytes
		files = append(files, f)
	}
	return files, rows.Err()
}

// Prune keeps the newest keep runs and deletes the rest along with their
// files. It returns the number of runs removed. keep <= 0 disables pruning.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	const stale = `SELECT id FROM runs ORDER BY started_at DESC, id LIMIT -1 OFFSET ?`
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin prune tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE run_id IN (`+stale+`)`, keep); err != nil {
			return fmt.Errorf("prune files: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id IN (`+stale+`)`, keep)
		if err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}
		removed, _ = res.RowsAffected()
		return tx.Commit()
	})
	return removed, err
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run                     Run
		trigger                 string
		jobLabel, event, errMsg sql.NullString
		startedRaw, finishedRaw string
	)
	if err := scanner.Scan(
		&run.ID,
		&trigger,
		&jobLabel,
		&run.WatchedRoot,
		&run.ChangedPath,
		&event,
		&run.OutputRoot,
		&startedRaw,
		&finishedRaw,
		&run.Processed,
		&run.Converted,
		&run.Skipped,
		&run.Failed,
		&errMsg,
	); err != nil {
		return Run{}, err
	}
	run.Trigger = Trigger(trigger)
	run.JobLabel = jobLabel.String
	run.Event = event.String
	run.ErrorMessage = errMsg.String
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	return run, nil
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

// Timestamps are stored as fixed-width UTC strings so ORDER BY sorts them
// chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if t, err := time.Parse(timeLayout, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return time.Time{}
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
