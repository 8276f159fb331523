package extract

import (
	"fmt"

	"github.com/hazyhaar/webrote/domtree"
)

// PageContent is the extraction result for one page: the main content
// and any popups found, each rendered as markdown. Popups are excluded
// from Main so modal text is not duplicated.
type PageContent struct {
	Main   string   `json:"main"`
	Popups []string `json:"popups,omitempty"`
}

// Page serializes the tree and converts it to markdown, separating
// popups from the main content.
func (c *Converter) Page(root *domtree.Node, extractLinks bool) (*PageContent, error) {
	return c.page(root, extractLinks, nil)
}

// PageAboveFold is Page with below-fold content dropped from the main
// body. Popups survive the cutoff wherever they sit.
func (c *Converter) PageAboveFold(root *domtree.Node, extractLinks bool, viewportHeight float64) (*PageContent, error) {
	return c.page(root, extractLinks, BelowFold(root, viewportHeight))
}

func (c *Converter) page(root *domtree.Node, extractLinks bool, exclude map[*domtree.Node]struct{}) (*PageContent, error) {
	s := &domtree.Serializer{ExtractLinks: extractLinks}

	popups := s.DetectPopups(root)
	if exclude == nil {
		exclude = make(map[*domtree.Node]struct{}, len(popups))
	}
	for _, p := range popups {
		exclude[p] = struct{}{}
	}

	main, err := c.Markdown(s.SerializeExcluding(root, exclude))
	if err != nil {
		return nil, fmt.Errorf("extract: main content: %w", err)
	}

	out := &PageContent{Main: main}
	for _, p := range popups {
		md, err := c.Markdown(s.Serialize(p))
		if err != nil {
			return nil, fmt.Errorf("extract: popup content: %w", err)
		}
		if md != "" {
			out.Popups = append(out.Popups, md)
		}
	}
	return out, nil
}
