package domtree

import "strings"

// popupRoles are the ARIA roles that mark a modal surface.
var popupRoles = map[string]bool{
	"dialog":      true,
	"alertdialog": true,
}

// IsPopup reports whether the node is a popup/modal element, based on
// semantic HTML only: <dialog open>, role="dialog"/"alertdialog", or
// aria-modal="true". Role and aria-modal comparisons are
// case-insensitive; the open attribute's value is ignored.
func IsPopup(n *Node) bool {
	if n == nil || n.Type != Element {
		return false
	}
	if strings.ToLower(n.Tag) == "dialog" && n.HasAttr("open") {
		return true
	}
	if role, ok := n.Attr("role"); ok && popupRoles[strings.ToLower(role)] {
		return true
	}
	if modal, ok := n.Attr("aria-modal"); ok && strings.ToLower(modal) == "true" {
		return true
	}
	return false
}

// DetectPopups finds all popup/modal elements in the tree, in document
// traversal order. This is a pre-pass independent of serialization, used
// to surface modal content separately from main content.
//
// Detection does not recurse into a node already classified as a popup:
// the popup subtree is one unit, and nested popups inside it are not
// separately reported.
func (s *Serializer) DetectPopups(root *Node) []*Node {
	var popups []*Node
	detectPopups(root, &popups)
	return popups
}

func detectPopups(n *Node, popups *[]*Node) {
	if n == nil {
		return
	}
	if IsPopup(n) {
		*popups = append(*popups, n)
		return
	}
	for _, c := range n.Children {
		detectPopups(c, popups)
	}
	for _, sr := range n.ShadowRoots {
		detectPopups(sr, popups)
	}
	if n.ContentDocument != nil {
		for _, c := range n.ContentDocument.Children {
			detectPopups(c, popups)
		}
	}
}
