package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackzampolin/toccata/internal/extract"
)

// Call is one persisted LLM call record.
type Call struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	Fidelity         string    `json:"fidelity"`
	Window           int       `json:"window"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PageCount        int       `json:"page_count"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	LatencyMS        int64     `json:"latency_ms"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// ObserveCall records an extraction call. Recording is best-effort: insert
// failures are logged, never surfaced to the pipeline.
func (s *Store) ObserveCall(rec extract.CallRecord) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO llm_calls (run_id, fidelity, window, provider, model, page_count,
             prompt_tokens, completion_tokens, latency_ms, success, error, timestamp)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, string(rec.Fidelity), rec.Window, rec.Provider, rec.Model,
		rec.PageCount, rec.PromptTokens, rec.CompletionTokens, rec.LatencyMS,
		rec.Success, nullableString(rec.Error), ts.Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Warn("failed to record llm call", "run_id", rec.RunID, "error", err)
	}
}

// ListCalls returns every LLM call for a run in call order.
func (s *Store) ListCalls(ctx context.Context, runID string) ([]Call, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, fidelity, window, provider, model, page_count,
                prompt_tokens, completion_tokens, latency_ms, success, error, timestamp
         FROM llm_calls WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query llm calls: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var (
			call      Call
			errMsg    sql.NullString
			timestamp string
		)
		if err := rows.Scan(&call.ID, &call.RunID, &call.Fidelity, &call.Window,
			&call.Provider, &call.Model, &call.PageCount, &call.PromptTokens,
			&call.CompletionTokens, &call.LatencyMS, &call.Success, &errMsg,
			&timestamp); err != nil {
			return nil, fmt.Errorf("scan llm call: %w", err)
		}
		if errMsg.Valid {
			call.Error = errMsg.String
		}
		if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			call.Timestamp = t
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ extract.CallObserver = (*Store)(nil)
