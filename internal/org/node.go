// Package org parses org-style outline documents into a navigable node tree.
//
// The tree is arena-backed: nodes live in a flat slice indexed by NodeID,
// and parent/child relations are stored as indices. Ancestor walks follow
// indices, never pointers, so the tree stays strictly owned top-down.
package org

// NodeID is a stable index into a Tree's node arena.
type NodeID int

// InvalidID marks an absent node reference.
const InvalidID NodeID = -1

// Kind identifies the structural role of a node.
type Kind int

const (
	KindDocument Kind = iota
	KindHeading
	KindDrawer
	KindPropertyEntry
	KindTimestamp
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindHeading:
		return "heading"
	case KindDrawer:
		return "drawer"
	case KindPropertyEntry:
		return "property-entry"
	case KindTimestamp:
		return "timestamp"
	case KindContent:
		return "content"
	default:
		return "unknown"
	}
}

// Span is a half-open [Begin, End) byte range into the document source.
type Span struct {
	Begin int
	End   int
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.End <= s.Begin }

// Contains reports whether the byte offset pos falls inside the span.
func (s Span) Contains(pos int) bool { return pos >= s.Begin && pos < s.End }

// Node is one element of the parsed document.
//
// Kind-specific attributes are flattened into the struct; fields that do
// not apply to a node's kind are left at their zero value.
type Node struct {
	ID       NodeID
	Kind     Kind
	Parent   NodeID
	Children []NodeID

	// Span covers the whole node including its heading line or drawer
	// markers. ContentsSpan covers only the node's direct textual
	// contents and is valid when HasContents is true.
	Span         Span
	ContentsSpan Span
	HasContents  bool

	// Heading attributes.
	Title     string
	Todo      string
	Priority  byte // 0 when absent
	OwnTags   []string
	Level     int
	Scheduled NodeID // timestamp node, InvalidID when absent
	Deadline  NodeID
	Archived  bool
	Commented bool

	// Property-entry attributes.
	Key   string
	Value string
}

// Tree holds a parsed document. The arena at Nodes[0] is always the
// document root.
type Tree struct {
	Source   string
	Nodes    []Node
	FileTags []string

	// noInherit holds tags excluded from inheritance, declared with
	// the #+EXCLUDE_TAGS: keyword.
	noInherit map[string]struct{}
}

// Root returns the document node.
func (t *Tree) Root() *Node { return &t.Nodes[0] }

// Node returns the node for id, or nil when id is out of range.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// ParentOf returns the parent of id, or nil for the root and invalid ids.
func (t *Tree) ParentOf(id NodeID) *Node {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	return t.Node(n.Parent)
}

// HeadingAncestor returns the nearest heading at or above id, or InvalidID
// when no heading encloses it.
func (t *Tree) HeadingAncestor(id NodeID) NodeID {
	for n := t.Node(id); n != nil; n = t.Node(n.Parent) {
		if n.Kind == KindHeading {
			return n.ID
		}
	}
	return InvalidID
}

// Headings returns every heading id in document order.
func (t *Tree) Headings() []NodeID {
	var out []NodeID
	for i := range t.Nodes {
		if t.Nodes[i].Kind == KindHeading {
			out = append(out, t.Nodes[i].ID)
		}
	}
	return out
}

// EffectiveTags returns the tags in force at the heading id: the heading's
// own tags followed by inherited ancestor tags, nearest ancestor first.
// Ancestor tags named in the document's exclusion list do not inherit;
// duplicates keep their first occurrence. Returns nil for non-headings.
func (t *Tree) EffectiveTags(id NodeID) []string {
	h := t.Node(id)
	if h == nil || h.Kind != KindHeading {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, len(h.OwnTags))
	add := func(tag string) {
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range h.OwnTags {
		add(tag)
	}
	for n := t.ParentOf(id); n != nil; n = t.Node(n.Parent) {
		if n.Kind != KindHeading {
			continue
		}
		for _, tag := range n.OwnTags {
			if _, excluded := t.noInherit[tag]; excluded {
				continue
			}
			add(tag)
		}
	}
	return out
}

// NodeAt returns the deepest node whose span contains the byte offset pos.
// Falls back to the document root when no child claims the position.
func (t *Tree) NodeAt(pos int) NodeID {
	id := t.Root().ID
	for {
		n := t.Node(id)
		next := InvalidID
		for _, c := range n.Children {
			if t.Nodes[c].Span.Contains(pos) {
				next = c
				break
			}
		}
		if next == InvalidID {
			return id
		}
		id = next
	}
}

// Slice returns the source text covered by s. Inconsistent spans panic,
// matching the usual out-of-range slicing behavior.
func (t *Tree) Slice(s Span) string {
	return t.Source[s.Begin:s.End]
}
