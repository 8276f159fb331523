package domtree

import "strings"

// walkTableChildren serializes a table's children, normalizing structure
// so the downstream markdown pass can identify a header row: when the
// table has no <thead> but its first <tr> contains <th> cells, that row
// is wrapped in a synthesized <thead> and the rows after it in a
// synthesized <tbody> (unless an explicit <tbody> already exists among
// the children). Children before the header row (colgroup, caption) pass
// through unchanged. If no header row is detected, children serialize in
// original order with no normalization.
func (s *Serializer) walkTableChildren(b *strings.Builder, table *Node, exclude map[*Node]struct{}) {
	children := table.Children
	if exclude != nil {
		kept := make([]*Node, 0, len(children))
		for _, c := range children {
			if _, skip := exclude[c]; !skip {
				kept = append(kept, c)
			}
		}
		children = kept
	}
	if len(children) == 0 {
		return
	}

	hasThead := false
	hasTbody := false
	hasElements := false
	for _, c := range children {
		if c == nil || c.Type != Element {
			continue
		}
		hasElements = true
		switch strings.ToLower(c.Tag) {
		case "thead":
			hasThead = true
		case "tbody":
			hasTbody = true
		}
	}

	if hasThead || !hasElements {
		// Already normalized, or nothing to normalize.
		for _, c := range children {
			s.walk(b, c, exclude)
		}
		return
	}

	// Inspect only the first <tr>: a header row must lead the table.
	headerIdx := -1
	for i, c := range children {
		if c == nil || c.Type != Element || strings.ToLower(c.Tag) != "tr" {
			continue
		}
		for _, cell := range c.Children {
			if cell != nil && cell.Type == Element && strings.ToLower(cell.Tag) == "th" {
				headerIdx = i
				break
			}
		}
		break
	}

	if headerIdx < 0 {
		for _, c := range children {
			s.walk(b, c, exclude)
		}
		return
	}

	for _, c := range children[:headerIdx] {
		s.walk(b, c, exclude)
	}

	b.WriteString("<thead>")
	s.walk(b, children[headerIdx], exclude)
	b.WriteString("</thead>")

	remaining := children[headerIdx+1:]
	if len(remaining) > 0 && !hasTbody {
		b.WriteString("<tbody>")
		for _, c := range remaining {
			s.walk(b, c, exclude)
		}
		b.WriteString("</tbody>")
	} else {
		for _, c := range remaining {
			s.walk(b, c, exclude)
		}
	}
}
