package extract

import "github.com/starford/ansuz/internal/org"

// FlattenProperties returns the heading's property-drawer entries in
// drawer order. Duplicate keys are kept, never merged. A heading without
// a drawer yields an empty sequence.
func FlattenProperties(t *org.Tree, heading org.NodeID) []Property {
	out := []Property{}
	h := t.Node(heading)
	if h == nil || h.Kind != org.KindHeading {
		return out
	}
	for _, c := range h.Children {
		if t.Node(c).Kind != org.KindDrawer {
			continue
		}
		for _, e := range t.Node(c).Children {
			entry := t.Node(e)
			if entry.Kind != org.KindPropertyEntry {
				continue
			}
			out = append(out, Property{Key: entry.Key, Value: entry.Value})
		}
		break // at most one direct drawer participates
	}
	return out
}
