package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/webrote/idgen"
)

// Event types written by the learning pipeline.
const (
	EventPatternSaved    = "pattern_saved"
	EventWorkflowInduced = "workflow_induced"
	EventSessionEnd      = "session_end"
	EventInductionFailed = "induction_failed"
)

// LearningEvent is one record of learning activity.
type LearningEvent struct {
	EventType string
	Domain    string
	Detail    string // optional JSON
	Success   bool
}

// SessionRun summarizes one wrapped run for the stats surface.
type SessionRun struct {
	RunID     string
	Task      string
	Steps     int
	Done      bool
	Success   bool
	Patterns  int
	Workflows int
}

// EventLogger writes learning events and manages retention cleanup.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("lrn_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogEvent records a learning event. Non-blocking: errors are logged
// via slog but do not propagate, so a failing observability store never
// blocks learning itself.
func (l *EventLogger) LogEvent(ctx context.Context, event LearningEvent) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO learning_events (event_id, event_type, domain, detail, success, created_at)
		VALUES (?,?,?,?,?,?)`,
		l.newID(), event.EventType, event.Domain, event.Detail, event.Success, time.Now().Unix())
	if err != nil {
		slog.Error("observability event log failed", "error", err, "event_type", event.EventType)
	}
}

// LogSessionRun records a run summary. Non-blocking like LogEvent.
func (l *EventLogger) LogSessionRun(ctx context.Context, run SessionRun) {
	if run.RunID == "" {
		run.RunID = l.newID()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO session_runs (run_id, task, steps, done, success, patterns, workflows, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.RunID, run.Task, run.Steps, run.Done, run.Success, run.Patterns, run.Workflows, time.Now().Unix())
	if err != nil {
		slog.Error("observability session log failed", "error", err, "run_id", run.RunID)
	}
}

// RecentEvents returns the latest events, newest first.
func (l *EventLogger) RecentEvents(ctx context.Context, limit int) ([]LearningEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT event_type, domain, detail, success
		FROM learning_events ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("observability: query events: %w", err)
	}
	defer rows.Close()

	var events []LearningEvent
	for rows.Next() {
		var e LearningEvent
		if err := rows.Scan(&e.EventType, &e.Domain, &e.Detail, &e.Success); err != nil {
			return nil, fmt.Errorf("observability: scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// RetentionConfig specifies per-table retention in days. Zero means no
// cleanup for that table.
type RetentionConfig struct {
	EventsDays     int
	SessionsDays   int
	RunVacuumAfter bool
}

// Cleanup deletes records exceeding the retention thresholds.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) error {
	now := time.Now().Unix()

	// Whitelists guard the fmt.Sprintf below if this is ever refactored
	// to accept external input.
	allowedTables := map[string]bool{
		"learning_events": true,
		"session_runs":    true,
	}
	allowedColumns := map[string]bool{
		"created_at": true,
	}

	type cleanupTarget struct {
		table  string
		column string
		days   int
	}
	targets := []cleanupTarget{
		{"learning_events", "created_at", cfg.EventsDays},
		{"session_runs", "created_at", cfg.SessionsDays},
	}

	for _, t := range targets {
		if t.days <= 0 {
			continue
		}
		if !allowedTables[t.table] || !allowedColumns[t.column] {
			return fmt.Errorf("cleanup: invalid table/column %s/%s", t.table, t.column)
		}
		cutoff := now - int64(t.days*86400)
		q := fmt.Sprintf("DELETE FROM %s WHERE %s < ?", t.table, t.column)
		if _, err := db.ExecContext(ctx, q, cutoff); err != nil {
			return fmt.Errorf("cleanup %s: %w", t.table, err)
		}
	}

	if cfg.RunVacuumAfter {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
	}
	return nil
}
