// Package patterns persists learned web-automation knowledge across
// sessions: per-domain interaction patterns and reusable multi-step
// workflows, stored in a single versioned JSON file.
//
// The file is the source of truth and may be edited by hand; loading is
// strict (malformed files are reported, never silently replaced) while
// session merges are lenient (a bad session payload is logged and
// dropped, the file is untouched).
package patterns

import "encoding/json"

// SchemaVersion is the current patterns file schema version. Files
// written by older releases carry lower versions and are upgraded in
// memory on load; Save always writes the current version.
const SchemaVersion = 2

// GlobalDomain keys workflows not tied to any particular site.
const GlobalDomain = "_global"

// PatternEntry is one learned interaction pattern for a domain: an
// ordered action recipe keyed by pattern type (e.g. "login",
// "cookie_banner") in PatternFile.Patterns.
type PatternEntry struct {
	Actions     []string `json:"actions"`
	LastSuccess string   `json:"last_success,omitempty"`
	Success     bool     `json:"success"`
}

// UnmarshalJSON defaults Success to true when the field is absent.
// Hand-edited and v1 files routinely omit it.
func (p *PatternEntry) UnmarshalJSON(data []byte) error {
	type alias PatternEntry
	a := alias{Success: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PatternEntry(a)
	return nil
}

// WorkflowStep is one step of a recorded workflow.
type WorkflowStep struct {
	EnvironmentState string `json:"environment_state"`
	Reasoning        string `json:"reasoning"`
	Action           string `json:"action"`
}

// WorkflowPattern is a reusable multi-step procedure induced from a
// successful session. Steps may carry {{placeholder}} slots for values
// that vary between runs.
type WorkflowPattern struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Steps       []WorkflowStep `json:"steps"`
	Domain      string         `json:"domain"`
	LastSuccess string         `json:"last_success,omitempty"`
	Success     bool           `json:"success"`
}

// UnmarshalJSON defaults Success to true and Domain to GlobalDomain
// when absent.
func (w *WorkflowPattern) UnmarshalJSON(data []byte) error {
	type alias WorkflowPattern
	a := alias{Success: true, Domain: GlobalDomain}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*w = WorkflowPattern(a)
	return nil
}

// PatternFile is the on-disk document. Patterns maps domain → pattern
// type → entry; Workflows maps domain → workflow id → workflow.
type PatternFile struct {
	Version   int                                   `json:"version"`
	Patterns  map[string]map[string]PatternEntry    `json:"patterns"`
	Workflows map[string]map[string]WorkflowPattern `json:"workflows"`
}

// NewPatternFile returns an empty file at the current schema version.
func NewPatternFile() *PatternFile {
	return &PatternFile{
		Version:   SchemaVersion,
		Patterns:  map[string]map[string]PatternEntry{},
		Workflows: map[string]map[string]WorkflowPattern{},
	}
}

// validate checks structural requirements beyond what JSON decoding
// enforces: every pattern entry needs an actions list, every workflow
// needs an id and at least one step.
func (f *PatternFile) validate() bool {
	for _, byType := range f.Patterns {
		for _, entry := range byType {
			if entry.Actions == nil {
				return false
			}
		}
	}
	for _, byID := range f.Workflows {
		for _, wf := range byID {
			if wf.ID == "" || len(wf.Steps) == 0 {
				return false
			}
		}
	}
	return true
}

// normalize fills in nil maps and upgrades the version marker so
// callers always see a fully-populated current-version document.
func (f *PatternFile) normalize() {
	if f.Patterns == nil {
		f.Patterns = map[string]map[string]PatternEntry{}
	}
	if f.Workflows == nil {
		f.Workflows = map[string]map[string]WorkflowPattern{}
	}
	if f.Version < SchemaVersion {
		f.Version = SchemaVersion
	}
}
