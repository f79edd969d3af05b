package extract

import (
	"iter"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/org"
)

// Matcher selects which headings participate in a batch export. A nil
// Matcher selects every heading.
type Matcher interface {
	Matches(t *org.Tree, heading org.NodeID) bool
}

// Identifier names one exported record within a batch run. Seq is unique
// per run; the slug is derived from the outline path and may collide.
type Identifier struct {
	Seq  int    `json:"seq"`
	Slug string `json:"slug"`
}

// Batch yields one (Identifier, Record) pair per matched heading in
// document order. Sequence numbers start at 0 and increment by exactly 1
// per produced record, so identifiers stay unique even when slugs
// collide. The sequence is one-shot; stopping early has no side effects.
func Batch(t *org.Tree, m Matcher, opts Options) iter.Seq2[Identifier, *Record] {
	return func(yield func(Identifier, *Record) bool) {
		seq := 0
		for _, id := range t.Headings() {
			if m != nil && !m.Matches(t, id) {
				continue
			}
			rec := Assemble(t, id, opts)
			ident := Identifier{Seq: seq, Slug: slugFor(t, id)}
			if !yield(ident, rec) {
				return
			}
			seq++
		}
	}
}

// Collect realizes a batch into a slice.
func Collect(seq iter.Seq2[Identifier, *Record]) []Entry {
	var out []Entry
	for id, rec := range seq {
		out = append(out, Entry{ID: id, Record: rec})
	}
	return out
}

// Entry is one realized element of a batch.
type Entry struct {
	ID     Identifier `json:"id"`
	Record *Record    `json:"record"`
}

var (
	nonWordRe    = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	underscoreRe = regexp.MustCompile(`_{2,}`)
)

// Slugify joins parts with an underscore and sanitizes the result:
// every maximal run of characters outside [A-Za-z0-9_] becomes a single
// underscore and consecutive underscores collapse to one. An empty result
// falls back to "entry".
func Slugify(parts ...string) string {
	s := Sanitize(strings.Join(parts, "_"))
	if s == "" || s == "_" {
		return "entry"
	}
	return s
}

// Sanitize applies the slug character rules without the fallback.
// It is idempotent.
func Sanitize(s string) string {
	s = nonWordRe.ReplaceAllString(s, "_")
	return underscoreRe.ReplaceAllString(s, "_")
}

func slugFor(t *org.Tree, heading org.NodeID) string {
	parts := OutlinePath(t, heading)
	if title := t.Node(heading).Title; title != "" {
		parts = append(parts, title)
	}
	return Slugify(parts...)
}
