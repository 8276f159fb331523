package observability

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/webrote/dbopen"
)

func TestLogAndQueryEvents(t *testing.T) {
	// WHAT: Events round-trip through the store, newest first.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	l := NewEventLogger(db)
	ctx := context.Background()

	l.LogEvent(ctx, LearningEvent{EventType: EventPatternSaved, Domain: "example.com", Success: true})
	l.LogEvent(ctx, LearningEvent{EventType: EventInductionFailed, Domain: "example.com", Detail: `{"error":"timeout"}`, Success: false})

	events, err := l.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	for _, e := range events {
		if e.Domain != "example.com" {
			t.Errorf("domain = %q", e.Domain)
		}
	}
}

func TestLogEventNeverPropagates(t *testing.T) {
	// WHAT: Logging against a database without the schema does not
	// panic or error out of the call.
	// WHY: A broken event store must never take down learning.
	db := dbopen.OpenMemory(t)
	l := NewEventLogger(db)
	l.LogEvent(context.Background(), LearningEvent{EventType: EventSessionEnd})
}

func TestLogSessionRun(t *testing.T) {
	// WHAT: Run summaries persist with a generated id when none is set.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	l := NewEventLogger(db)
	ctx := context.Background()

	l.LogSessionRun(ctx, SessionRun{Task: "book flight", Steps: 5, Done: true, Success: true, Patterns: 2, Workflows: 1})

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM session_runs WHERE run_id != ''`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("runs = %d, want 1", count)
	}
}

func TestCleanupRetention(t *testing.T) {
	// WHAT: Cleanup removes only rows past the retention window.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -30).Unix()
	recent := time.Now().Unix()
	for i, ts := range []int64{old, recent} {
		if _, err := db.Exec(`INSERT INTO learning_events (event_id, event_type, created_at) VALUES (?,?,?)`,
			string(rune('a'+i)), EventPatternSaved, ts); err != nil {
			t.Fatal(err)
		}
	}

	if err := Cleanup(ctx, db, RetentionConfig{EventsDays: 7}); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM learning_events`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("events after cleanup = %d, want 1", count)
	}
}
