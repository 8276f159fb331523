// Package domtree models the enhanced DOM snapshot captured from a live
// page (light DOM, shadow roots, and same-origin frame content
// documents) and reconstructs HTML from it.
//
// Unlike outerHTML, which only captures light DOM, the enhanced tree
// carries the shadow roots that modern SPAs render into. The tree is an
// immutable snapshot owned by the caller for the duration of one
// serialization call; nothing in this package mutates it.
package domtree

// NodeType discriminates the node kinds the serializer understands.
type NodeType int

const (
	Document NodeType = iota
	DocumentFragment          // shadow root
	Element
	Text
	Comment
	Other // doctype, CDATA, processing instructions
)

// Attr is a single element attribute. Attributes are kept as an ordered
// slice: insertion order is preserved end to end and only affects output
// attribute order, never semantics.
type Attr struct {
	Key string
	Val string
}

// Rect is a layout box in page coordinates. Optional; filled by the
// browser capture layer when bounds collection is enabled.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Node is one node of the enhanced DOM tree.
type Node struct {
	Type NodeType

	// Tag is the lowercase tag name for Element nodes.
	Tag string

	// Value is the payload of Text and Comment nodes.
	Value string

	// Attrs are the element attributes in insertion order.
	Attrs []Attr

	// Children are the light-DOM children.
	Children []*Node

	// ShadowRoots are DocumentFragment nodes attached to this element.
	ShadowRoots []*Node

	// ShadowRootType is "open" or "closed" on DocumentFragment nodes.
	// Empty defaults to open.
	ShadowRootType string

	// ContentDocument is the inlined document for iframe/frame hosts.
	ContentDocument *Node

	// Bounds is the optional layout box.
	Bounds *Rect
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present, regardless of value.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// NewDocument creates a Document node with the given children.
func NewDocument(children ...*Node) *Node {
	return &Node{Type: Document, Children: children}
}

// NewElement creates an Element node. The tag is stored as given; the
// serializer lowercases on output.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Type: Element, Tag: tag, Attrs: attrs}
}

// NewText creates a Text node.
func NewText(value string) *Node {
	return &Node{Type: Text, Value: value}
}

// NewShadowRoot creates a DocumentFragment node with the given mode
// ("open" or "closed") and children.
func NewShadowRoot(mode string, children ...*Node) *Node {
	return &Node{Type: DocumentFragment, ShadowRootType: mode, Children: children}
}

// Append adds light-DOM children and returns the node for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}
