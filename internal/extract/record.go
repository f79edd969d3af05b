// Package extract computes per-heading metadata records from a parsed
// outline tree. All operations are pure reads over the tree: they copy
// every string they return and never mutate or retain the tree.
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/starford/ansuz/internal/org"
)

// Property is one key/value entry from a property drawer. It serializes
// as a two-element [key, value] array so that duplicate keys survive.
type Property struct {
	Key   string
	Value string
}

// MarshalJSON renders the property as ["key", "value"].
func (p Property) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Key, p.Value})
}

// UnmarshalJSON accepts the ["key", "value"] form.
func (p *Property) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("extract: property pair: %w", err)
	}
	p.Key, p.Value = pair[0], pair[1]
	return nil
}

// Record is the normalized metadata envelope for one extraction. Fields
// that cannot be derived are explicitly null (pointers) or empty (slices),
// never omitted.
type Record struct {
	Title       *string    `json:"title"`
	Level       *int       `json:"level"`
	Todo        *string    `json:"todo"`
	Priority    *string    `json:"priority"`
	Tags        []string   `json:"tags"`
	FileTags    []string   `json:"filetags"`
	Scheduled   *string    `json:"scheduled"`
	Deadline    *string    `json:"deadline"`
	Archived    *bool      `json:"archived"`
	Commented   *bool      `json:"commented"`
	OutlinePath []string   `json:"outline_path"`
	Properties  []Property `json:"properties"`
	Content     *string    `json:"content"`
}

// Options controls how a record is assembled. A zero value means own tags
// only and element-only content.
type Options struct {
	// InheritTags unions ancestor tags into the record's tag set,
	// honoring the document's inheritance exclusions.
	InheritTags bool
	// WholeSubtree selects the heading line plus its entire subtree as
	// content instead of the target element's own contents.
	WholeSubtree bool
}

// Assemble builds the Record for target. The heading in scope is the
// nearest heading ancestor of target, including target itself. Without an
// enclosing heading every heading-scoped field is null/empty and content
// falls back to the target's own contents.
func Assemble(t *org.Tree, target org.NodeID, opts Options) *Record {
	rec := &Record{
		Tags:        []string{},
		FileTags:    []string{},
		OutlinePath: []string{},
		Properties:  []Property{},
	}
	rec.FileTags = append(rec.FileTags, t.FileTags...)

	heading := t.HeadingAncestor(target)
	if heading == org.InvalidID {
		rec.Content = SelectContent(t, target, org.InvalidID, false)
		return rec
	}

	h := t.Node(heading)
	rec.Title = strptr(h.Title)
	rec.Level = intptr(h.Level)
	if h.Todo != "" {
		rec.Todo = strptr(h.Todo)
	}
	if h.Priority != 0 {
		rec.Priority = strptr(string(h.Priority))
	}
	rec.Tags = ResolveTags(t, heading, opts.InheritTags)
	rec.Scheduled = renderTimestamp(t, h.Scheduled)
	rec.Deadline = renderTimestamp(t, h.Deadline)
	rec.Archived = boolptr(h.Archived)
	rec.Commented = boolptr(h.Commented)
	rec.OutlinePath = OutlinePath(t, heading)
	rec.Properties = FlattenProperties(t, heading)
	rec.Content = SelectContent(t, target, heading, opts.WholeSubtree)
	return rec
}

// renderTimestamp returns the raw text of a timestamp node, or nil when
// the reference is absent or not a timestamp.
func renderTimestamp(t *org.Tree, id org.NodeID) *string {
	n := t.Node(id)
	if n == nil || n.Kind != org.KindTimestamp {
		return nil
	}
	return strptr(t.Slice(n.Span))
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }
func boolptr(b bool) *bool    { return &b }
