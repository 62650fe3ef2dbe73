package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Result statuses stored in run_results.status.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned when no run matches an id or prefix.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRun is returned when an id prefix matches more than one run.
var ErrAmbiguousRun = errors.New("run id prefix is ambiguous")

// Run is one batch as recorded in the runs table.
type Run struct {
	ID             string
	Started        time.Time
	Finished       time.Time
	RequestedTrack int
	Total          int
	OK             int
	Failed         int
	Cancelled      bool
	SessionLog     string
}

// InProgress reports whether the run never recorded its completion.
func (r Run) InProgress() bool {
	return r.Finished.IsZero()
}

// FileResult is the outcome of one input within a run.
type FileResult struct {
	Index       int
	Input       string
	DisplayName string
	Track       int
	Codec       string
	OutputName  string
	Artifact    string
	Status      string
	ErrorKind   string
	Reason      string
	Elapsed     time.Duration
}

// BeginRun inserts the run row before any input is processed.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if run.Started.IsZero() {
		run.Started = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, started_at, requested_track, total) VALUES (?, ?, ?, ?)`,
		run.ID, formatTime(run.Started), run.RequestedTrack, run.Total,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// AddResult records the outcome of one input.
func (s *Store) AddResult(ctx context.Context, runID string, result FileResult) error {
	err := s.exec(ctx,
		`INSERT OR REPLACE INTO run_results
			(run_id, idx, input, display_name, track, codec, output_name, artifact, status, error_kind, reason, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.Index, result.Input, result.DisplayName, result.Track, result.Codec,
		result.OutputName, result.Artifact, result.Status, result.ErrorKind, result.Reason,
		result.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert result %d: %w", result.Index, err)
	}
	return nil
}

// FinishRun stores the final tallies of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if run.Finished.IsZero() {
		run.Finished = time.Now()
	}
	err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, ok = ?, failed = ?, cancelled = ?, session_log = ? WHERE id = ?`,
		formatTime(run.Finished), run.Total, run.OK, run.Failed, boolToInt(run.Cancelled), run.SessionLog, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, requested_track, total, ok, failed, cancelled, session_log`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var (
		run        Run
		started    sql.NullString
		finished   sql.NullString
		cancelled  int
		sessionLog sql.NullString
	)
	if err := row.Scan(&run.ID, &started, &finished, &run.RequestedTrack, &run.Total, &run.OK, &run.Failed, &cancelled, &sessionLog); err != nil {
		return Run{}, err
	}
	run.Started = parseTime(started)
	run.Finished = parseTime(finished)
	run.Cancelled = cancelled != 0
	run.SessionLog = sessionLog.String
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
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
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRun resolves a full run id or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return Run{}, ErrRunNotFound
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(idOrPrefix)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC LIMIT 2`,
		idOrPrefix, escaped+"%", idOrPrefix,
	)
	if err != nil {
		return Run{}, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch {
	case len(matches) == 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case matches[0].ID == idOrPrefix || len(matches) == 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousRun, idOrPrefix)
	}
}

// Results returns the recorded inputs of a run in submission order.
func (s *Store) Results(ctx context.Context, runID string) ([]FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, input, display_name, track, codec, output_name, artifact, status, error_kind, reason, elapsed_ms
		 FROM run_results WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []FileResult
	for rows.Next() {
		var r FileResult
		var display, codec, output, artifact, errorKind, reason sql.NullString
		var elapsedMS int64
		if err := rows.Scan(&r.Index, &r.Input, &display, &r.Track, &codec, &output, &artifact, &r.Status, &errorKind, &reason, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.DisplayName = display.String
		r.Codec = codec.String
		r.OutputName = output.String
		r.Artifact = artifact.String
		r.ErrorKind = errorKind.String
		r.Reason = reason.String
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// Prune deletes runs started before cutoff along with their results.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}
