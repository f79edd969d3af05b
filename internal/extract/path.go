package extract

import "github.com/starford/ansuz/internal/org"

// OutlinePath returns the titles of the heading's ancestors, outermost
// first and the immediate parent last. The heading's own title is
// excluded. An absent heading or a top-level heading yields an empty
// sequence.
func OutlinePath(t *org.Tree, heading org.NodeID) []string {
	out := []string{}
	h := t.Node(heading)
	if h == nil || h.Kind != org.KindHeading {
		return out
	}
	for n := t.ParentOf(heading); n != nil; n = t.Node(n.Parent) {
		if n.Kind != org.KindHeading {
			continue
		}
		out = append(out, n.Title)
	}
	// Walked innermost-out; flip to breadcrumb order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
