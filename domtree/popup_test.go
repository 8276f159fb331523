package domtree

import "testing"

func TestIsPopup(t *testing.T) {
	// WHAT: Popup classification from semantic HTML: <dialog open>,
	// dialog/alertdialog roles, aria-modal="true". Role and aria-modal
	// values compare case-insensitively; the open attribute is presence-only.
	cases := []struct {
		name string
		node *Node
		want bool
	}{
		{"dialog open", NewElement("dialog", Attr{Key: "open", Val: ""}), true},
		{"dialog open with value", NewElement("dialog", Attr{Key: "open", Val: "false"}), true},
		{"dialog closed", NewElement("dialog"), false},
		{"role dialog", NewElement("div", Attr{Key: "role", Val: "dialog"}), true},
		{"role alertdialog upper", NewElement("div", Attr{Key: "role", Val: "ALERTDIALOG"}), true},
		{"role button", NewElement("div", Attr{Key: "role", Val: "button"}), false},
		{"aria-modal true", NewElement("section", Attr{Key: "aria-modal", Val: "True"}), true},
		{"aria-modal false", NewElement("section", Attr{Key: "aria-modal", Val: "false"}), false},
		{"text node", NewText("dialog"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := IsPopup(tc.node); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDetectPopupsDocumentOrder(t *testing.T) {
	// WHAT: Popups are reported in document traversal order.
	s := &Serializer{}
	first := NewElement("div", Attr{Key: "role", Val: "dialog"})
	second := NewElement("dialog", Attr{Key: "open", Val: ""})
	doc := NewDocument(
		NewElement("main").Append(first),
		second,
	)
	got := s.DetectPopups(doc)
	if len(got) != 2 || got[0] != first || got[1] != second {
		t.Fatalf("got %d popups in wrong order", len(got))
	}
}

func TestDetectPopupsNoNestedReporting(t *testing.T) {
	// WHAT: A popup inside another popup's subtree is not separately
	// reported.
	// WHY: The outer popup is rendered as one unit; reporting the inner
	// one too would duplicate its content.
	s := &Serializer{}
	inner := NewElement("div", Attr{Key: "aria-modal", Val: "true"})
	outer := NewElement("div", Attr{Key: "role", Val: "dialog"}).Append(inner)
	got := s.DetectPopups(NewDocument(outer))
	if len(got) != 1 || got[0] != outer {
		t.Fatalf("got %d popups, want just the outer one", len(got))
	}
}

func TestDetectPopupsInShadowAndFrames(t *testing.T) {
	// WHAT: Detection descends into shadow roots and frame content
	// documents.
	// WHY: SPAs routinely render modals inside shadow DOM.
	s := &Serializer{}
	shadowed := NewElement("dialog", Attr{Key: "open", Val: ""})
	host := NewElement("div")
	host.ShadowRoots = []*Node{NewShadowRoot("open", shadowed)}

	framed := NewElement("div", Attr{Key: "role", Val: "alertdialog"})
	frame := NewElement("iframe")
	frame.ContentDocument = NewDocument(framed)

	got := s.DetectPopups(NewDocument(host, frame))
	if len(got) != 2 || got[0] != shadowed || got[1] != framed {
		t.Fatalf("got %d popups, want shadowed then framed", len(got))
	}
}

func TestDetectPopupsNone(t *testing.T) {
	// WHAT: A popup-free tree yields an empty result.
	s := &Serializer{}
	doc := NewDocument(NewElement("main").Append(NewText("hello")))
	if got := s.DetectPopups(doc); len(got) != 0 {
		t.Fatalf("got %d popups, want none", len(got))
	}
}
