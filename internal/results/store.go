// Package results delivers finished calls to the Call Results collaborators:
// a SQLite store, an HTTP webhook and spreadsheet export.
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"dispatch-voice-go/internal/types"
)

var ErrNotFound = errors.New("call result not found")

// Store persists call results in SQLite.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS call_results (
			call_id TEXT PRIMARY KEY,
			scenario_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			final_phase TEXT,
			emergency INTEGER NOT NULL DEFAULT 0,
			emergency_keyword TEXT,
			end_reason TEXT,
			driver_turns INTEGER,
			duration_ms INTEGER,
			started_at TEXT,
			ended_at TEXT,
			result_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_call_results_scenario ON call_results(scenario_id);`,
		`CREATE INDEX IF NOT EXISTS idx_call_results_started ON call_results(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts res keyed by call id.
func (s *Store) Save(ctx context.Context, res types.CallResult) error {
	blob, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO call_results(call_id, scenario_id, outcome, final_phase, emergency, emergency_keyword, end_reason, driver_turns, duration_ms, started_at, ended_at, result_json)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(call_id) DO UPDATE SET outcome=excluded.outcome, final_phase=excluded.final_phase, emergency=excluded.emergency, emergency_keyword=excluded.emergency_keyword, end_reason=excluded.end_reason, driver_turns=excluded.driver_turns, duration_ms=excluded.duration_ms, ended_at=excluded.ended_at, result_json=excluded.result_json`,
		res.CallID, res.ScenarioID, res.Summary.Outcome(), res.FinalPhase, boolInt(res.EmergencyTriggered), res.EmergencyKeyword,
		res.EndReason, res.DriverTurns, res.DurationMs, formatTime(res.StartedAt), formatTime(res.EndedAt), string(blob))
	return err
}

// Publish lets the store act as a call.Publisher.
func (s *Store) Publish(ctx context.Context, res types.CallResult) error { return s.Save(ctx, res) }

func (s *Store) Get(ctx context.Context, callID string) (types.CallResult, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM call_results WHERE call_id=?`, callID).Scan(&blob)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return types.CallResult{}, fmt.Errorf("%w: %s", ErrNotFound, callID)
	case err != nil:
		return types.CallResult{}, err
	}
	var res types.CallResult
	if err := json.Unmarshal([]byte(blob), &res); err != nil {
		return types.CallResult{}, fmt.Errorf("decode result %s: %w", callID, err)
	}
	return res, nil
}

type Filter struct {
	ScenarioID string
	Outcome    string
	Since      time.Time
	Limit      int
}

// List returns results oldest first.
func (s *Store) List(ctx context.Context, f Filter) ([]types.CallResult, error) {
	q := `SELECT result_json FROM call_results WHERE 1=1`
	var args []any
	if f.ScenarioID != "" {
		q += ` AND scenario_id=?`
		args = append(args, f.ScenarioID)
	}
	if f.Outcome != "" {
		q += ` AND outcome=?`
		args = append(args, f.Outcome)
	}
	if !f.Since.IsZero() {
		q += ` AND started_at>=?`
		args = append(args, formatTime(f.Since))
	}
	q += ` ORDER BY started_at, call_id`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.CallResult
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var res types.CallResult
		if err := json.Unmarshal([]byte(blob), &res); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatTime uses a fixed-width UTC layout so text ordering matches time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}
