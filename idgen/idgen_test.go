package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7Unique(t *testing.T) {
	// WHAT: Consecutive IDs are distinct and parse as UUIDs.
	// WHY: Workflow and event IDs must never collide within a run.
	gen := UUIDv7()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
		if _, err := Parse(id); err != nil {
			t.Fatalf("parse %s: %v", id, err)
		}
	}
}

func TestPrefixed(t *testing.T) {
	// WHAT: Prefixed composes a fixed prefix onto the inner generator.
	// WHY: Type-scoped IDs (wf_, lrn_) rely on this composition.
	gen := Prefixed("wf_", Default)
	id := gen()
	if !strings.HasPrefix(id, "wf_") {
		t.Errorf("prefix: got %q", id)
	}
	if _, err := Parse(strings.TrimPrefix(id, "wf_")); err != nil {
		t.Errorf("suffix should be a UUID: %v", err)
	}
}
