// Package observability records learning activity into a local SQLite
// database: which patterns were saved, which workflows were induced,
// and how sessions ended. The event log answers "what has the agent
// learned lately" without parsing the patterns file history.
package observability

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the observability tables. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS learning_events (
	event_id   TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	domain     TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	success    INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_learning_events_type ON learning_events(event_type, created_at);
CREATE INDEX IF NOT EXISTS idx_learning_events_domain ON learning_events(domain, created_at);

CREATE TABLE IF NOT EXISTS session_runs (
	run_id      TEXT PRIMARY KEY,
	task        TEXT NOT NULL,
	steps       INTEGER NOT NULL DEFAULT 0,
	done        INTEGER NOT NULL DEFAULT 0,
	success     INTEGER NOT NULL DEFAULT 0,
	patterns    INTEGER NOT NULL DEFAULT 0,
	workflows   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_runs_created ON session_runs(created_at);
`

// Init applies the schema to the database.
func Init(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("observability: apply schema: %w", err)
	}
	return nil
}
