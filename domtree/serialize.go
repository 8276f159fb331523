package domtree

import "strings"

// Serializer reconstructs HTML from an enhanced DOM tree, including
// shadow DOM content (emitted as <template shadowroot=...>), iframe
// content documents, and all attributes and text nodes.
//
// Serialization is best-effort by contract: malformed or partial nodes
// degrade to omitting the affected subtree or attribute, never to an
// error. A single broken node must not abort extraction of the rest of
// the page. The walk is pure synchronous recursion over read-only input,
// safe from any goroutine without synchronization.
type Serializer struct {
	// ExtractLinks preserves href attributes. When false (the default),
	// href is omitted from output.
	ExtractLinks bool
}

// nonContentTags serialize to nothing: the whole subtree is dropped,
// visible text children included.
var nonContentTags = map[string]bool{
	"style":  true,
	"script": true,
	"head":   true,
	"meta":   true,
	"link":   true,
	"title":  true,
}

// voidTags self-close with no children and no closing tag.
var voidTags = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// codeIDMarkers suppress <code> elements whose id contains any of these
// substrings. Tuned against real sites that inline JSON state into code
// blocks (bpr-guid is LinkedIn's pattern); kept as literal constants.
var codeIDMarkers = []string{"bpr-guid", "data", "state"}

// Serialize reconstructs HTML for the node and its descendants.
func (s *Serializer) Serialize(root *Node) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	s.walk(&b, root, nil)
	return b.String()
}

// SerializeExcluding is Serialize with a set of nodes to omit, compared
// by identity: two structurally identical nodes are distinguished by
// pointer. An excluded node contributes nothing and its subtree is never
// visited. Used to render main content minus popups rendered separately.
func (s *Serializer) SerializeExcluding(root *Node, exclude map[*Node]struct{}) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	s.walk(&b, root, exclude)
	return b.String()
}

func (s *Serializer) walk(b *strings.Builder, n *Node, exclude map[*Node]struct{}) {
	if n == nil {
		return
	}
	if exclude != nil {
		if _, skip := exclude[n]; skip {
			return
		}
	}

	switch n.Type {
	case Document:
		// The document itself has no tag: concatenate children, then any
		// shadow roots reachable directly from the document.
		for _, c := range n.Children {
			s.walk(b, c, exclude)
		}
		for _, c := range n.ShadowRoots {
			s.walk(b, c, exclude)
		}

	case DocumentFragment:
		// Shadow roots become <template shadowroot=...> so the downstream
		// markdown pass can see across shadow boundaries.
		mode := strings.ToLower(n.ShadowRootType)
		if mode == "" {
			mode = "open"
		}
		b.WriteString(`<template shadowroot="`)
		b.WriteString(mode)
		b.WriteString(`">`)
		for _, c := range n.Children {
			s.walk(b, c, exclude)
		}
		b.WriteString("</template>")

	case Element:
		s.walkElement(b, n, exclude)

	case Text:
		if n.Value != "" {
			b.WriteString(escapeText(n.Value))
		}

	default:
		// Comments and unknown kinds are pure noise.
	}
}

func (s *Serializer) walkElement(b *strings.Builder, n *Node, exclude map[*Node]struct{}) {
	tag := strings.ToLower(n.Tag)

	if nonContentTags[tag] {
		return
	}
	if tag == "code" && suppressedCode(n) {
		return
	}
	if tag == "img" {
		// Inline base64 images are placeholders or tracking pixels.
		if src, _ := n.Attr("src"); strings.HasPrefix(src, "data:image/") {
			return
		}
	}

	b.WriteByte('<')
	b.WriteString(tag)
	if attrs := s.serializeAttributes(n.Attrs); attrs != "" {
		b.WriteByte(' ')
		b.WriteString(attrs)
	}

	if voidTags[tag] {
		b.WriteString(" />")
		return
	}
	b.WriteByte('>')

	switch {
	case tag == "table":
		// Shadow roots first, same as the general path.
		for _, sr := range n.ShadowRoots {
			s.walk(b, sr, exclude)
		}
		s.walkTableChildren(b, n, exclude)

	case (tag == "iframe" || tag == "frame") && n.ContentDocument != nil:
		// Same-origin frame inlining: the frame's document children take
		// the place of any light-DOM children.
		for _, c := range n.ContentDocument.Children {
			s.walk(b, c, exclude)
		}

	default:
		// Shadow roots before light children, matching the order a
		// renderer resolves slot assignment. No real slot projection here.
		for _, sr := range n.ShadowRoots {
			s.walk(b, sr, exclude)
		}
		for _, c := range n.Children {
			s.walk(b, c, exclude)
		}
	}

	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

// suppressedCode reports whether a <code> element looks like an inlined
// JSON state blob rather than content: hidden via display:none, or
// carrying one of the known state-container id markers.
func suppressedCode(n *Node) bool {
	if style, ok := n.Attr("style"); ok {
		if strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
			return true
		}
	}
	if id, ok := n.Attr("id"); ok {
		for _, marker := range codeIDMarkers {
			if strings.Contains(id, marker) {
				return true
			}
		}
	}
	return false
}

// serializeAttributes renders attributes in stored order, joined by
// single spaces. href is omitted unless ExtractLinks; data-* attributes
// are always omitted (SPA state payloads, not semantic markup). An empty
// value renders as a bare boolean attribute.
func (s *Serializer) serializeAttributes(attrs []Attr) string {
	var parts []string
	for _, a := range attrs {
		if a.Key == "href" && !s.ExtractLinks {
			continue
		}
		if strings.HasPrefix(a.Key, "data-") {
			continue
		}
		if a.Val == "" {
			parts = append(parts, a.Key)
			continue
		}
		parts = append(parts, a.Key+`="`+escapeAttr(a.Val)+`"`)
	}
	return strings.Join(parts, " ")
}

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
	)
)

// escapeText escapes &, < and > only; quotes stay literal in text content.
func escapeText(s string) string { return textEscaper.Replace(s) }

// escapeAttr additionally escapes double and single quotes.
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
