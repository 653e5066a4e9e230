// Package store keeps a queryable history of presenter activity for the
// lifetime of the process. The database lives purely in memory: nothing
// survives a restart, which is the product's intent.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yalochat/speckit-presenter/internal/artifact"
	"github.com/yalochat/speckit-presenter/internal/scenario"
	"github.com/yalochat/speckit-presenter/internal/session"
)

// ActionRecord is one persisted action log row.
type ActionRecord struct {
	EntryID    string    `json:"entry_id"`
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`
	ActionType string    `json:"action_type"`
	Detail     string    `json:"action_detail"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// GenerationRecord is one persisted artifact generation row.
type GenerationRecord struct {
	SessionID    string    `json:"session_id"`
	ScenarioID   string    `json:"scenario_id"`
	Phase        string    `json:"phase"`
	ArtifactType string    `json:"artifact_type"`
	TokensUsed   int       `json:"tokens_used"`
	DurationMs   int64     `json:"duration_ms"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// TimingRecord is one persisted phase timing row.
type TimingRecord struct {
	SessionID  string    `json:"session_id"`
	Phase      string    `json:"phase"`
	DurationMs int64     `json:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ActivityStore records engine activity in an in-memory SQLite database.
type ActivityStore struct {
	db *sql.DB
}

// NewActivityStore opens the in-memory database and applies the schema. A
// single connection is enforced so every query sees the same in-memory
// database.
func NewActivityStore() (*ActivityStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &ActivityStore{db: db}, nil
}

func (s *ActivityStore) Close() error { return s.db.Close() }

// RecordAction persists one action log entry.
func (s *ActivityStore) RecordAction(sessionID string, entry session.ActionLogEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO actions (entry_id, session_id, timestamp, action_type, detail, duration_ms) VALUES (?,?,?,?,?,?)`,
		entry.EntryID, sessionID, entry.Timestamp, string(entry.ActionType), entry.Detail, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// RecordGeneration persists metadata about one artifact generation.
func (s *ActivityStore) RecordGeneration(sessionID, scenarioID string, a *artifact.Artifact) error {
	_, err := s.db.Exec(
		`INSERT INTO generations (session_id, scenario_id, phase, artifact_type, tokens_used, duration_ms, generated_at) VALUES (?,?,?,?,?,?,?)`,
		sessionID, scenarioID, string(a.PhaseName), a.ArtifactType, a.TokensUsed, a.DurationMs, a.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

// RecordPhaseTiming persists how long the session spent in a phase.
func (s *ActivityStore) RecordPhaseTiming(sessionID string, phase scenario.Phase, durationMs int64) error {
	_, err := s.db.Exec(
		`INSERT INTO phase_timings (session_id, phase, duration_ms, recorded_at) VALUES (?,?,?,?)`,
		sessionID, string(phase), durationMs, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert phase timing: %w", err)
	}
	return nil
}

// ListActions returns the recorded actions for a session, oldest first.
func (s *ActivityStore) ListActions(sessionID string) ([]ActionRecord, error) {
	rows, err := s.db.Query(
		`SELECT entry_id, session_id, timestamp, action_type, detail, duration_ms FROM actions WHERE session_id = ? ORDER BY timestamp`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var r ActionRecord
		if err := rows.Scan(&r.EntryID, &r.SessionID, &r.Timestamp, &r.ActionType, &r.Detail, &r.DurationMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListGenerations returns the artifact generation history for a session,
// oldest first.
func (s *ActivityStore) ListGenerations(sessionID string) ([]GenerationRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, scenario_id, phase, artifact_type, tokens_used, duration_ms, generated_at FROM generations WHERE session_id = ? ORDER BY generated_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		var r GenerationRecord
		if err := rows.Scan(&r.SessionID, &r.ScenarioID, &r.Phase, &r.ArtifactType, &r.TokensUsed, &r.DurationMs, &r.GeneratedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListPhaseTimings returns the phase timing rows for a session, oldest first.
func (s *ActivityStore) ListPhaseTimings(sessionID string) ([]TimingRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, phase, duration_ms, recorded_at FROM phase_timings WHERE session_id = ? ORDER BY recorded_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query phase timings: %w", err)
	}
	defer rows.Close()

	var out []TimingRecord
	for rows.Next() {
		var r TimingRecord
		if err := rows.Scan(&r.SessionID, &r.Phase, &r.DurationMs, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
