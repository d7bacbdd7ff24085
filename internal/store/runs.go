package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a persisted run.
type RunStatus string

const (
	RunStatusRunning      RunStatus = "running"
	RunStatusComplete     RunStatus = "complete"
	RunStatusNoCandidates RunStatus = "no_candidates_found"
	RunStatusFailed       RunStatus = "failed"
)

// Run is one persisted extraction run.
type Run struct {
	ID             string          `json:"id"`
	Source         string          `json:"source"`
	Status         RunStatus       `json:"status"`
	PageCount      int             `json:"page_count"`
	WindowCount    int             `json:"window_count"`
	CandidateCount int             `json:"candidate_count"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

// CreateRun records a new run in the running state.
func (s *Store) CreateRun(ctx context.Context, id, source string, pageCount int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, page_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, source, RunStatusRunning, pageCount, now)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// CompleteRun marks a run as finished with its terminal status and result.
func (s *Store) CompleteRun(ctx context.Context, id string, status RunStatus, windowCount, candidateCount int, result json.RawMessage) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var resultStr sql.NullString
	if len(result) > 0 {
		resultStr = sql.NullString{String: string(result), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, window_count = ?, candidate_count = ?, result_json = ?, completed_at = ? WHERE id = ?`,
		status, windowCount, candidateCount, resultStr, now, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return checkRowAffected(res, id)
}

// FailRun marks a run as failed with the given error message.
func (s *Store) FailRun(ctx context.Context, id, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		RunStatusFailed, errMsg, now, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return checkRowAffected(res, id)
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, page_count, window_count, candidate_count, result_json, error, created_at, completed_at
         FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, status, page_count, window_count, candidate_count, result_json, error, created_at, completed_at
         FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		resultJSON  sql.NullString
		errMsg      sql.NullString
		createdAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Source, &run.Status, &run.PageCount,
		&run.WindowCount, &run.CandidateCount, &resultJSON, &errMsg,
		&createdAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if resultJSON.Valid {
		run.Result = json.RawMessage(resultJSON.String)
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
			run.CompletedAt = &t
		}
	}
	return &run, nil
}

func checkRowAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
