package browser

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/webrote/domtree"
)

// CDP node type codes.
const (
	cdpElement          = 1
	cdpText             = 3
	cdpComment          = 8
	cdpDocument         = 9
	cdpDocumentFragment = 11
)

// CaptureTree snapshots the page's full DOM in one CDP call: depth -1
// walks everything, pierce includes shadow roots and same-origin frame
// documents. Without pierce the capture would stop at every shadow
// boundary, which is exactly the content modern SPAs render into.
func (m *Manager) CaptureTree(page *rod.Page) (*domtree.Node, error) {
	depth := -1
	doc, err := proto.DOMGetDocument{Depth: &depth, Pierce: true}.Call(page)
	if err != nil {
		return nil, fmt.Errorf("browser: DOM.getDocument: %w", err)
	}
	root := convertNode(doc.Root)
	if m.cfg.CollectBounds {
		m.collectBounds(page, doc.Root, root)
	}
	return root, nil
}

// convertNode maps a CDP DOM node to the snapshot model. Unknown node
// types map to Other and are dropped later by the serializer.
func convertNode(n *proto.DOMNode) *domtree.Node {
	if n == nil {
		return nil
	}

	out := &domtree.Node{}
	switch n.NodeType {
	case cdpDocument:
		out.Type = domtree.Document
	case cdpDocumentFragment:
		out.Type = domtree.DocumentFragment
		out.ShadowRootType = string(n.ShadowRootType)
	case cdpElement:
		out.Type = domtree.Element
		out.Tag = n.NodeName
		out.Attrs = convertAttributes(n.Attributes)
	case cdpText:
		out.Type = domtree.Text
		out.Value = n.NodeValue
	case cdpComment:
		out.Type = domtree.Comment
		out.Value = n.NodeValue
	default:
		out.Type = domtree.Other
		out.Value = n.NodeValue
	}

	for _, c := range n.Children {
		if child := convertNode(c); child != nil {
			out.Children = append(out.Children, child)
		}
	}
	for _, sr := range n.ShadowRoots {
		// User-agent shadow roots (input internals etc.) carry no page
		// content.
		if sr.ShadowRootType == proto.DOMShadowRootTypeUserAgent {
			continue
		}
		if root := convertNode(sr); root != nil {
			out.ShadowRoots = append(out.ShadowRoots, root)
		}
	}
	if n.ContentDocument != nil {
		out.ContentDocument = convertNode(n.ContentDocument)
	}
	return out
}

// convertAttributes unpacks CDP's flat [name, value, ...] pairs,
// preserving order. A trailing unpaired name is dropped.
func convertAttributes(flat []string) []domtree.Attr {
	if len(flat) < 2 {
		return nil
	}
	attrs := make([]domtree.Attr, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		attrs = append(attrs, domtree.Attr{Key: flat[i], Val: flat[i+1]})
	}
	return attrs
}

// collectBounds fetches layout boxes for element nodes, walking the CDP
// and snapshot trees in lockstep. Box lookups fail routinely (unstyled
// or detached nodes); failures just leave Bounds nil.
func (m *Manager) collectBounds(page *rod.Page, src *proto.DOMNode, dst *domtree.Node) {
	if src == nil || dst == nil {
		return
	}
	if dst.Type == domtree.Element && src.NodeID != 0 {
		if box, err := (proto.DOMGetBoxModel{NodeID: src.NodeID}.Call(page)); err == nil && box.Model != nil {
			quad := box.Model.Border
			if len(quad) >= 8 {
				dst.Bounds = &domtree.Rect{
					X:      quad[0],
					Y:      quad[1],
					Width:  float64(box.Model.Width),
					Height: float64(box.Model.Height),
				}
			}
		}
	}

	di := 0
	for _, c := range src.Children {
		if di >= len(dst.Children) {
			break
		}
		m.collectBounds(page, c, dst.Children[di])
		di++
	}
	si := 0
	for _, sr := range src.ShadowRoots {
		if sr.ShadowRootType == proto.DOMShadowRootTypeUserAgent {
			continue
		}
		if si >= len(dst.ShadowRoots) {
			break
		}
		m.collectBounds(page, sr, dst.ShadowRoots[si])
		si++
	}
	if src.ContentDocument != nil {
		m.collectBounds(page, src.ContentDocument, dst.ContentDocument)
	}
}
