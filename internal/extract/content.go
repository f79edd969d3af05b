package extract

import "github.com/starford/ansuz/internal/org"

// SelectContent returns the text span for a record's content field.
//
// With wholeSubtree false it slices the target element's own contents
// span, which captures only the element actually referenced. With
// wholeSubtree true it slices from the start of the heading line to the
// end of the heading's entire subtree. Returns nil when the relevant span
// is absent.
func SelectContent(t *org.Tree, target, heading org.NodeID, wholeSubtree bool) *string {
	if wholeSubtree {
		h := t.Node(heading)
		if h == nil || h.Kind != org.KindHeading {
			return nil
		}
		s := t.Slice(h.Span)
		return &s
	}
	n := t.Node(target)
	if n == nil || !n.HasContents {
		return nil
	}
	s := t.Slice(n.ContentsSpan)
	return &s
}
