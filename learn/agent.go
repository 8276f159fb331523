// Package learn wraps an automation runtime with cross-session
// learning: interaction patterns discovered during a session are merged
// into the pattern store, and successful sessions are distilled into
// reusable workflows.
//
// Learning is strictly best-effort. No failure in this package may take
// down the run it is observing; every hook degrades to a warning log.
package learn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/webrote/induce"
	"github.com/hazyhaar/webrote/observability"
	"github.com/hazyhaar/webrote/patterns"
)

// History is the completed-run view the success gate reads.
type History interface {
	// IsDone reports whether the run reached a terminal state.
	IsDone() bool

	// IsSuccessful reports the run outcome. Nil means the runtime could
	// not judge success; the gate treats that as failure.
	IsSuccessful() *bool
}

// Runtime is the automation engine being wrapped.
type Runtime interface {
	Run(ctx context.Context) error
	History() History
	Task() string
	Steps() []induce.Step

	// SessionPatterns returns the raw session patterns payload written
	// by the agent during the run, or nil if none.
	SessionPatterns() []byte
}

// Config configures the learning wrapper.
type Config struct {
	// Inducer extracts workflows after successful runs. Nil disables
	// workflow induction; pattern merging still works.
	Inducer *induce.Inducer

	// AutoLearn runs both learning hooks automatically after Run.
	AutoLearn bool

	// ExtendSystemMessage is appended to the learning instructions in
	// SystemMessage.
	ExtendSystemMessage string

	// Events records learning activity when set.
	Events *observability.EventLogger

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Agent wraps a Runtime with pattern learning.
type Agent struct {
	rt     Runtime
	store  *patterns.Store
	cfg    Config
	logger *slog.Logger
}

// New creates a learning agent over the runtime and store.
func New(rt Runtime, store *patterns.Store, cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{rt: rt, store: store, cfg: cfg, logger: logger}
}

// SystemMessage returns the learning instruction block, with any
// configured extension appended after it.
func (a *Agent) SystemMessage() string {
	if a.cfg.ExtendSystemMessage == "" {
		return Instructions
	}
	return Instructions + "\n\n" + a.cfg.ExtendSystemMessage
}

// Run executes the wrapped runtime, then fires the learning hooks when
// AutoLearn is on. The runtime's error passes through untouched; hook
// failures never mask it.
func (a *Agent) Run(ctx context.Context) error {
	err := a.rt.Run(ctx)
	var saved, induced int
	if a.cfg.AutoLearn {
		saved = a.SavePatterns(false)
		induced = a.InduceWorkflows(ctx, false)
	}
	if a.cfg.Events != nil {
		h := a.rt.History()
		a.cfg.Events.LogSessionRun(ctx, observability.SessionRun{
			Task:      a.rt.Task(),
			Steps:     len(a.rt.Steps()),
			Done:      h != nil && h.IsDone(),
			Success:   a.sessionSuccessful(),
			Patterns:  saved,
			Workflows: induced,
		})
	}
	return err
}

// sessionSuccessful applies the learning gate: the run must be done and
// judged successful. An unjudged run does not pass.
func (a *Agent) sessionSuccessful() bool {
	h := a.rt.History()
	if h == nil || !h.IsDone() {
		return false
	}
	ok := h.IsSuccessful()
	return ok != nil && *ok
}

// SavePatterns merges the session's discovered patterns into the store
// and returns how many were merged. The success gate applies unless
// force is set; a gated call performs no I/O at all.
func (a *Agent) SavePatterns(force bool) int {
	if !force && !a.sessionSuccessful() {
		a.logger.Debug("skipping pattern save, session not successful")
		return 0
	}
	merged := a.store.MergeFromSession(a.rt.SessionPatterns())
	if merged > 0 {
		a.logger.Info("session patterns saved", "merged", merged)
		a.logEvent(observability.LearningEvent{
			EventType: observability.EventPatternSaved,
			Detail:    fmt.Sprintf(`{"merged":%d}`, merged),
			Success:   true,
		})
	}
	return merged
}

// InduceWorkflows distills the session into workflows and merges them,
// returning how many were stored. Gated like SavePatterns, plus a
// minimum session length: short runs are never sent to the model.
// Force bypasses both the success gate and the length check. All
// failures are soft.
func (a *Agent) InduceWorkflows(ctx context.Context, force bool) int {
	if a.cfg.Inducer == nil {
		return 0
	}
	if !force && !a.sessionSuccessful() {
		a.logger.Debug("skipping workflow induction, session not successful")
		return 0
	}
	steps := a.rt.Steps()
	if !force && len(steps) < induce.MinSteps {
		a.logger.Debug("skipping workflow induction, session too short", "steps", len(steps))
		return 0
	}

	ws, err := a.cfg.Inducer.Induce(ctx, a.rt.Task(), steps)
	if err != nil {
		a.logger.Warn("workflow induction failed", "error", err)
		a.logEvent(observability.LearningEvent{
			EventType: observability.EventInductionFailed,
			Detail:    fmt.Sprintf(`{"error":%q}`, err.Error()),
		})
		return 0
	}
	if len(ws) == 0 {
		return 0
	}

	merged, err := a.store.MergeWorkflows(ws)
	if err != nil {
		a.logger.Warn("cannot store induced workflows", "error", err)
		return 0
	}
	if merged > 0 {
		a.logger.Info("workflows induced", "merged", merged)
		a.logEvent(observability.LearningEvent{
			EventType: observability.EventWorkflowInduced,
			Detail:    fmt.Sprintf(`{"merged":%d}`, merged),
			Success:   true,
		})
	}
	return merged
}

func (a *Agent) logEvent(e observability.LearningEvent) {
	if a.cfg.Events != nil {
		a.cfg.Events.LogEvent(context.Background(), e)
	}
}
