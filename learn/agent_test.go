package learn

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/webrote/dbopen"
	"github.com/hazyhaar/webrote/induce"
	"github.com/hazyhaar/webrote/observability"
	"github.com/hazyhaar/webrote/patterns"
)

type fakeHistory struct {
	done    bool
	success *bool
}

func (h *fakeHistory) IsDone() bool        { return h.done }
func (h *fakeHistory) IsSuccessful() *bool { return h.success }

type fakeRuntime struct {
	runErr  error
	history *fakeHistory
	task    string
	steps   []induce.Step
	session []byte
}

func (r *fakeRuntime) Run(ctx context.Context) error { return r.runErr }
func (r *fakeRuntime) History() History              { return r.history }
func (r *fakeRuntime) Task() string                  { return r.task }
func (r *fakeRuntime) Steps() []induce.Step          { return r.steps }
func (r *fakeRuntime) SessionPatterns() []byte       { return r.session }

// countingClient counts completions so tests can assert the model was
// never called.
type countingClient struct {
	calls   int
	payload string
}

func (c *countingClient) CompleteStructured(ctx context.Context, msgs []induce.Message, schema map[string]any) (json.RawMessage, error) {
	c.calls++
	return json.RawMessage(c.payload), nil
}

func boolPtr(b bool) *bool { return &b }

func successfulRuntime() *fakeRuntime {
	return &fakeRuntime{
		history: &fakeHistory{done: true, success: boolPtr(true)},
		task:    "book a flight",
		steps: []induce.Step{
			{URL: "https://example.com", Action: "open search"},
			{URL: "https://example.com", Action: "type destination"},
			{URL: "https://example.com/r", Action: "pick result"},
		},
		session: []byte(`{"patterns": {"example.com": {"search": {"actions": ["type {{query}}"]}}}}`),
	}
}

func newTestStore(t *testing.T) *patterns.Store {
	t.Helper()
	return patterns.NewStore(filepath.Join(t.TempDir(), "patterns.json"))
}

func TestSavePatternsGate(t *testing.T) {
	// WHAT: The success gate blocks saving for unfinished, failed, and
	// unjudged runs; force bypasses it.
	// WHY: Learning from failed sessions would poison the store.
	cases := []struct {
		name    string
		history *fakeHistory
	}{
		{"not done", &fakeHistory{done: false, success: boolPtr(true)}},
		{"failed", &fakeHistory{done: true, success: boolPtr(false)}},
		{"unjudged", &fakeHistory{done: true, success: nil}},
	}
	for _, tc := range cases {
		rt := successfulRuntime()
		rt.history = tc.history
		store := newTestStore(t)
		a := New(rt, store, Config{})

		if got := a.SavePatterns(false); got != 0 {
			t.Errorf("%s: merged = %d, want 0", tc.name, got)
		}
		if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: gated save must not touch disk", tc.name)
		}

		if got := a.SavePatterns(true); got != 1 {
			t.Errorf("%s: forced merge = %d, want 1", tc.name, got)
		}
	}
}

func TestSavePatternsSuccess(t *testing.T) {
	// WHAT: A successful session's patterns land in the store stamped
	// with today's date.
	rt := successfulRuntime()
	store := newTestStore(t)
	a := New(rt, store, Config{})

	if got := a.SavePatterns(false); got != 1 {
		t.Fatalf("merged = %d, want 1", got)
	}
	pf, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	entry := pf.Patterns["example.com"]["search"]
	if entry.LastSuccess != time.Now().Format("2006-01-02") {
		t.Errorf("last_success = %q", entry.LastSuccess)
	}
}

func TestInduceWorkflowsMinSteps(t *testing.T) {
	// WHAT: Sessions below the minimum step count never reach the model.
	// WHY: A two-step run has no multi-step procedure to extract; the
	// LLM call is pure cost.
	rt := successfulRuntime()
	rt.steps = rt.steps[:2]
	client := &countingClient{payload: `{"workflows": []}`}
	a := New(rt, newTestStore(t), Config{
		Inducer: induce.New(induce.Config{Client: client}),
	})

	if got := a.InduceWorkflows(context.Background(), false); got != 0 {
		t.Errorf("merged = %d, want 0", got)
	}
	if client.calls != 0 {
		t.Errorf("model called %d times for a short session", client.calls)
	}
}

func TestInduceWorkflowsForcedShortSession(t *testing.T) {
	// WHAT: Force bypasses the minimum step count as well as the success
	// gate, so even a short session reaches the model.
	rt := successfulRuntime()
	rt.steps = rt.steps[:2]
	client := &countingClient{payload: `{"workflows": []}`}
	a := New(rt, newTestStore(t), Config{
		Inducer: induce.New(induce.Config{Client: client}),
	})

	if got := a.InduceWorkflows(context.Background(), true); got != 0 {
		t.Errorf("merged = %d, want 0 for an empty induction result", got)
	}
	if client.calls != 1 {
		t.Errorf("model calls = %d, want 1 when forced", client.calls)
	}
}

func TestInduceWorkflowsStoresResults(t *testing.T) {
	// WHAT: Induced workflows are merged under their normalized domain.
	rt := successfulRuntime()
	client := &countingClient{payload: `{"workflows": [
		{"id": "flight-search", "description": "search flights",
		 "steps": [{"environment_state": "home", "reasoning": "r", "action": "type {{query}}"}],
		 "domain": "https://www.example.com"}
	]}`}
	store := newTestStore(t)
	a := New(rt, store, Config{
		Inducer: induce.New(induce.Config{Client: client}),
	})

	if got := a.InduceWorkflows(context.Background(), false); got != 1 {
		t.Fatalf("merged = %d, want 1", got)
	}
	pf, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := pf.Workflows["example.com"]["flight-search"]; !ok {
		t.Error("workflow not stored under normalized domain")
	}
}

func TestInduceWorkflowsNoInducer(t *testing.T) {
	// WHAT: Without an inducer the hook is a silent no-op, forced or not.
	rt := successfulRuntime()
	a := New(rt, newTestStore(t), Config{})
	if got := a.InduceWorkflows(context.Background(), true); got != 0 {
		t.Errorf("merged = %d, want 0", got)
	}
}

func TestRunAutoLearn(t *testing.T) {
	// WHAT: AutoLearn fires both hooks after Run; the runtime's own
	// error still propagates.
	rt := successfulRuntime()
	rt.runErr = errors.New("navigation flaked at the end")
	client := &countingClient{payload: `{"workflows": []}`}
	store := newTestStore(t)
	a := New(rt, store, Config{
		AutoLearn: true,
		Inducer:   induce.New(induce.Config{Client: client}),
	})

	err := a.Run(context.Background())
	if err == nil || err.Error() != "navigation flaked at the end" {
		t.Errorf("runtime error not propagated: %v", err)
	}
	pf, loadErr := store.Load()
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	if _, ok := pf.Patterns["example.com"]["search"]; !ok {
		t.Error("auto-learn did not save session patterns")
	}
	if client.calls != 1 {
		t.Errorf("induction calls = %d, want 1", client.calls)
	}
}

func TestRunAutoLearnOff(t *testing.T) {
	// WHAT: Without AutoLearn, Run touches nothing.
	rt := successfulRuntime()
	store := newTestStore(t)
	a := New(rt, store, Config{})
	if err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Error("store file created despite AutoLearn off")
	}
}

func TestSystemMessage(t *testing.T) {
	// WHAT: The instruction block always leads; the user extension is
	// appended after a blank line.
	rt := successfulRuntime()
	a := New(rt, newTestStore(t), Config{ExtendSystemMessage: "Prefer French locale."})
	msg := a.SystemMessage()
	if msg[:len("<pattern_learning>")] != "<pattern_learning>" {
		t.Error("instructions should lead the system message")
	}
	if msg[len(msg)-len("Prefer French locale."):] != "Prefer French locale." {
		t.Error("extension should end the system message")
	}

	plain := New(rt, newTestStore(t), Config{})
	if plain.SystemMessage() != Instructions {
		t.Error("no extension should mean instructions only")
	}
}

func TestRunRecordsSession(t *testing.T) {
	// WHAT: With an event logger configured, Run records a session
	// summary and the learning events behind it.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(observability.Schema))
	events := observability.NewEventLogger(db)

	rt := successfulRuntime()
	client := &countingClient{payload: `{"workflows": [
		{"id": "wf", "description": "d",
		 "steps": [{"environment_state": "s", "reasoning": "r", "action": "a"}],
		 "domain": "example.com"}
	]}`}
	a := New(rt, newTestStore(t), Config{
		AutoLearn: true,
		Inducer:   induce.New(induce.Config{Client: client}),
		Events:    events,
	})

	if err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	var runs int
	if err := db.QueryRow(`SELECT COUNT(*) FROM session_runs WHERE done = 1 AND success = 1 AND patterns = 1 AND workflows = 1`).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if runs != 1 {
		t.Fatalf("session runs = %d, want 1", runs)
	}

	recorded, err := events.RecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	types := map[string]bool{}
	for _, e := range recorded {
		types[e.EventType] = true
	}
	if !types[observability.EventPatternSaved] || !types[observability.EventWorkflowInduced] {
		t.Errorf("events = %v", types)
	}
}
