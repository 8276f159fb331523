package patterns

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultPath is the patterns file location when neither an explicit
// path nor the environment variable is set.
const DefaultPath = "patterns/patterns.json"

// EnvPatternsPath overrides the default patterns file location.
const EnvPatternsPath = "WEBROTE_PATTERNS_PATH"

// Store owns the patterns file: load, atomic save with backup, and the
// merge operations that fold session results into it. All methods are
// safe for concurrent use.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	cache *PatternFile
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store over the patterns file at path. An empty
// path falls back to the WEBROTE_PATTERNS_PATH environment variable,
// then to DefaultPath. The path is resolved once, at construction.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   resolvePath(path),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the resolved absolute path of the patterns file.
func (s *Store) Path() string { return s.path }

func resolvePath(explicit string) string {
	p := explicit
	if p == "" {
		p = os.Getenv(EnvPatternsPath)
	}
	if p == "" {
		p = DefaultPath
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p
}

// Load reads and validates the patterns file. A missing file yields an
// empty PatternFile, not an error. Malformed JSON and schema violations
// are reported as ErrMalformed / ErrSchema so callers can surface them
// instead of silently discarding a hand-edited file.
func (s *Store) Load() (*PatternFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*PatternFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			pf := NewPatternFile()
			s.cache = pf
			return pf, nil
		}
		return nil, fmt.Errorf("patterns: read %s: %w", s.path, err)
	}

	var pf PatternFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, s.path, err)
	}
	if !pf.validate() {
		return nil, fmt.Errorf("%w: %s", ErrSchema, s.path)
	}
	pf.normalize()
	s.cache = &pf
	return &pf, nil
}

// Save writes the file atomically: marshal to a temp file in the target
// directory, back up any existing file to path+".bak", then rename the
// temp file into place. A failed write never clobbers the previous
// file.
func (s *Store) Save(pf *PatternFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(pf)
}

func (s *Store) saveLocked(pf *PatternFile) error {
	pf.normalize()
	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("patterns: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("patterns: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".patterns-*.json")
	if err != nil {
		return fmt.Errorf("patterns: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("patterns: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("patterns: close %s: %w", tmpName, err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.path+".bak"); err != nil {
			s.logger.Warn("patterns backup failed", "path", s.path, "error", err)
		}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("patterns: rename into place: %w", err)
	}
	s.cache = pf
	return nil
}

// MergeFromSession folds a session patterns document into the file and
// returns how many entries were merged. The document is shaped like the
// patterns file itself, {"patterns": {domain: {type: entry}}}; a
// version field is accepted and ignored. Every failure mode is soft: a
// bad payload or an unreadable file logs a warning and returns 0,
// leaving the file untouched. Merged entries overwrite existing ones
// under the same (domain, type) key and are stamped with today's date.
func (s *Store) MergeFromSession(session []byte) int {
	if len(strings.TrimSpace(string(session))) == 0 {
		return 0
	}

	var incoming PatternFile
	if err := json.Unmarshal(session, &incoming); err != nil {
		s.logger.Warn("session patterns payload is not valid JSON", "error", err)
		return 0
	}
	if len(incoming.Patterns) == 0 {
		s.logger.Debug("session patterns document carries no patterns")
		return 0
	}
	for domain, byType := range incoming.Patterns {
		for typ, entry := range byType {
			if entry.Actions == nil {
				s.logger.Warn("session pattern missing actions", "domain", domain, "type", typ)
				return 0
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pf, err := s.loadLocked()
	if err != nil {
		s.logger.Warn("cannot load patterns file for merge", "error", err)
		return 0
	}

	today := time.Now().Format("2006-01-02")
	merged := 0
	for domain, byType := range incoming.Patterns {
		key := NormalizeDomain(domain)
		if pf.Patterns[key] == nil {
			pf.Patterns[key] = map[string]PatternEntry{}
		}
		for typ, entry := range byType {
			entry.LastSuccess = today
			pf.Patterns[key][typ] = entry
			merged++
		}
	}
	if merged == 0 {
		return 0
	}

	if err := s.saveLocked(pf); err != nil {
		s.logger.Warn("cannot save merged patterns", "error", err)
		return 0
	}
	return merged
}

// MergeWorkflows folds induced workflows into the file, keyed by
// (domain, id), and returns how many were merged. An empty input is a
// no-op with no disk access. Invalid workflows (missing id or steps)
// are skipped with a warning rather than failing the batch.
func (s *Store) MergeWorkflows(ws []WorkflowPattern) (int, error) {
	if len(ws) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pf, err := s.loadLocked()
	if err != nil {
		return 0, err
	}

	today := time.Now().Format("2006-01-02")
	merged := 0
	for _, wf := range ws {
		if wf.ID == "" || len(wf.Steps) == 0 {
			s.logger.Warn("skipping invalid workflow", "id", wf.ID, "steps", len(wf.Steps))
			continue
		}
		if wf.Domain == "" {
			wf.Domain = GlobalDomain
		} else {
			wf.Domain = NormalizeDomain(wf.Domain)
		}
		wf.LastSuccess = today
		if pf.Workflows[wf.Domain] == nil {
			pf.Workflows[wf.Domain] = map[string]WorkflowPattern{}
		}
		pf.Workflows[wf.Domain][wf.ID] = wf
		merged++
	}
	if merged == 0 {
		return 0, nil
	}

	if err := s.saveLocked(pf); err != nil {
		return 0, err
	}
	return merged, nil
}

// PatternsFor returns the pattern entries recorded for a URL or domain,
// looked up under its normalized key. A missing file or unknown domain
// yields an empty map.
func (s *Store) PatternsFor(rawDomain string) (map[string]PatternEntry, error) {
	pf, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := map[string]PatternEntry{}
	for typ, entry := range pf.Patterns[NormalizeDomain(rawDomain)] {
		out[typ] = entry
	}
	return out, nil
}

// WorkflowsFor returns the workflows for a domain plus the global ones.
// An empty domain returns only global workflows.
func (s *Store) WorkflowsFor(rawDomain string) ([]WorkflowPattern, error) {
	pf, err := s.Load()
	if err != nil {
		return nil, err
	}
	var out []WorkflowPattern
	for _, wf := range pf.Workflows[GlobalDomain] {
		out = append(out, wf)
	}
	if rawDomain != "" {
		if key := NormalizeDomain(rawDomain); key != GlobalDomain {
			for _, wf := range pf.Workflows[key] {
				out = append(out, wf)
			}
		}
	}
	return out, nil
}
