package store

const schema = `
CREATE TABLE IF NOT EXISTS actions (
    entry_id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    action_type TEXT NOT NULL,
    detail TEXT DEFAULT '',
    duration_ms INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_actions_session ON actions(session_id, timestamp);

CREATE TABLE IF NOT EXISTS generations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    scenario_id TEXT NOT NULL,
    phase TEXT NOT NULL,
    artifact_type TEXT NOT NULL,
    tokens_used INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    generated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_generations_session ON generations(session_id, generated_at);

CREATE TABLE IF NOT EXISTS phase_timings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    phase TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    recorded_at DATETIME NOT NULL
);
`
