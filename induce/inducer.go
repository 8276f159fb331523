// Package induce turns a completed automation session into reusable
// workflow patterns by asking an LLM to generalize the step log.
package induce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/webrote/patterns"
)

// MinSteps is the minimum session length worth inducing from. Shorter
// sessions carry no multi-step procedure to extract.
const MinSteps = 3

// DefaultTimeout bounds one induction call end to end.
const DefaultTimeout = 120 * time.Second

var ErrNoClient = errors.New("induce: no LLM client configured")

// Step is one recorded action from a session, as fed to the model.
type Step struct {
	URL     string `json:"url"`
	Action  string `json:"action"`
	Outcome string `json:"outcome,omitempty"`
}

// Config configures an Inducer.
type Config struct {
	// Client performs the structured completion. Required.
	Client Client

	// Prompt overrides DefaultPrompt. Must contain {{task}} and
	// {{steps}} placeholders.
	Prompt string

	// Timeout bounds one induction. Default DefaultTimeout.
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Inducer extracts workflow patterns from session step logs.
type Inducer struct {
	cfg Config
}

// New creates an Inducer.
func New(cfg Config) *Inducer {
	cfg.applyDefaults()
	return &Inducer{cfg: cfg}
}

// inducedWorkflows is the model's structured output envelope.
type inducedWorkflows struct {
	Workflows []patterns.WorkflowPattern `json:"workflows"`
}

// Induce asks the model to generalize the session into workflows. The
// call is bounded by the configured timeout. An empty result is valid:
// not every session contains a transferable procedure.
func (i *Inducer) Induce(ctx context.Context, task string, steps []Step) ([]patterns.WorkflowPattern, error) {
	if i.cfg.Client == nil {
		return nil, ErrNoClient
	}

	ctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	prompt := strings.NewReplacer(
		"{{task}}", task,
		"{{steps}}", renderSteps(steps),
	).Replace(i.cfg.Prompt)

	raw, err := i.cfg.Client.CompleteStructured(ctx, []Message{
		{Role: "user", Content: prompt},
	}, workflowSchema())
	if err != nil {
		return nil, fmt.Errorf("induce: completion: %w", err)
	}

	var out inducedWorkflows
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("induce: parse model output: %w", err)
	}

	i.cfg.Logger.Debug("workflow induction complete",
		"task", task, "steps", len(steps), "workflows", len(out.Workflows))
	return out.Workflows, nil
}

// renderSteps formats the step log as numbered lines for the prompt.
func renderSteps(steps []Step) string {
	var b strings.Builder
	for n, s := range steps {
		fmt.Fprintf(&b, "%d. [%s] %s", n+1, s.URL, s.Action)
		if s.Outcome != "" {
			fmt.Fprintf(&b, " -> %s", s.Outcome)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// workflowSchema is the JSON schema constraining the model's output to
// the workflow envelope.
func workflowSchema() map[string]any {
	step := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"environment_state": map[string]any{"type": "string"},
			"reasoning":         map[string]any{"type": "string"},
			"action":            map[string]any{"type": "string"},
		},
		"required":             []string{"environment_state", "reasoning", "action"},
		"additionalProperties": false,
	}
	workflow := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":          map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"steps":       map[string]any{"type": "array", "items": step},
			"domain":      map[string]any{"type": "string"},
		},
		"required":             []string{"id", "description", "steps", "domain"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"workflows": map[string]any{"type": "array", "items": workflow},
		},
		"required":             []string{"workflows"},
		"additionalProperties": false,
	}
}
