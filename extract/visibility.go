package extract

import "github.com/hazyhaar/webrote/domtree"

// viewportSlack is how far below the viewport an element may sit and
// still count as visible. Lazy-loaded content just below the fold is
// usually rendered and relevant.
const viewportSlack = 1000.0

// VisibleNodes returns the elements considered visible for a viewport
// of the given height: everything above viewport bottom plus slack.
// Popup subtrees bypass the filter entirely, whatever their position:
// a modal centered off-screen by a CSS transform is still what the
// user sees. Nodes without layout bounds are kept.
func VisibleNodes(root *domtree.Node, viewportHeight float64) []*domtree.Node {
	var out []*domtree.Node
	collectVisible(root, viewportHeight, false, &out)
	return out
}

// BelowFold returns the topmost elements sitting past the visibility
// cutoff, as an exclusion set for Serializer.SerializeExcluding.
// Excluding the subtree root is enough; the serializer never descends
// into an excluded node.
func BelowFold(root *domtree.Node, viewportHeight float64) map[*domtree.Node]struct{} {
	out := make(map[*domtree.Node]struct{})
	markBelowFold(root, viewportHeight, false, out)
	return out
}

func markBelowFold(n *domtree.Node, viewportHeight float64, inPopup bool, out map[*domtree.Node]struct{}) {
	if n == nil {
		return
	}
	if domtree.IsPopup(n) {
		inPopup = true
	}
	if n.Type == domtree.Element && !inPopup && n.Bounds != nil && n.Bounds.Y > viewportHeight+viewportSlack {
		out[n] = struct{}{}
		return
	}
	for _, c := range n.Children {
		markBelowFold(c, viewportHeight, inPopup, out)
	}
	for _, sr := range n.ShadowRoots {
		markBelowFold(sr, viewportHeight, inPopup, out)
	}
	if n.ContentDocument != nil {
		markBelowFold(n.ContentDocument, viewportHeight, inPopup, out)
	}
}

func collectVisible(n *domtree.Node, viewportHeight float64, inPopup bool, out *[]*domtree.Node) {
	if n == nil {
		return
	}
	if domtree.IsPopup(n) {
		inPopup = true
	}
	if n.Type == domtree.Element {
		if !inPopup && n.Bounds != nil && n.Bounds.Y > viewportHeight+viewportSlack {
			return
		}
		*out = append(*out, n)
	}
	for _, c := range n.Children {
		collectVisible(c, viewportHeight, inPopup, out)
	}
	for _, sr := range n.ShadowRoots {
		collectVisible(sr, viewportHeight, inPopup, out)
	}
	if n.ContentDocument != nil {
		collectVisible(n.ContentDocument, viewportHeight, inPopup, out)
	}
}
