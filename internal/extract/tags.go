package extract

import "github.com/starford/ansuz/internal/org"

// ResolveTags returns the heading's effective tag set. With inherited set,
// ancestor tags join the heading's own tags under the tree's inheritance
// rules (the tree decides which tags do not inherit); otherwise only the
// heading's own tags are returned. An absent heading yields an empty set.
func ResolveTags(t *org.Tree, heading org.NodeID, inherited bool) []string {
	h := t.Node(heading)
	if h == nil || h.Kind != org.KindHeading {
		return []string{}
	}
	var tags []string
	if inherited {
		tags = t.EffectiveTags(heading)
	} else {
		tags = h.OwnTags
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
