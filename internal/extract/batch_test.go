package extract

import (
	"reflect"
	"testing"

	"github.com/starford/ansuz/internal/org"
)

func TestSanitize_CollapsesRuns(t *testing.T) {
	if got := Sanitize("A  B---C"); got != "A_B_C" {
		t.Errorf("Sanitize = %q, want A_B_C", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"A  B---C", "hello world", "--x--", "", "già però",
		"a/b\\c", "under_score", "___", "Tabs\tand\nnewlines",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize(%q): %q != %q", in, once, twice)
		}
	}
}

func TestSlugify_EmptyFallsBackToEntry(t *testing.T) {
	if got := Slugify(); got != "entry" {
		t.Errorf("Slugify() = %q", got)
	}
	if got := Slugify("---"); got != "entry" {
		t.Errorf("Slugify(---) = %q", got)
	}
}

func TestBatch_CountersStrictlyIncrease(t *testing.T) {
	// Identical titles produce colliding slugs; counters stay unique.
	tree := org.Parse("* Same\n* Same\n* Same\n")
	entries := Collect(Batch(tree, nil, Options{}))

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if e.ID.Seq != i {
			t.Errorf("seq[%d] = %d", i, e.ID.Seq)
		}
		if e.ID.Slug != "Same" {
			t.Errorf("slug[%d] = %q", i, e.ID.Slug)
		}
	}
}

func TestBatch_SlugIncludesOutlinePath(t *testing.T) {
	tree := testTree()
	entries := Collect(Batch(tree, nil, Options{}))

	var slugs []string
	for _, e := range entries {
		slugs = append(slugs, e.ID.Slug)
	}
	want := []string{"Root", "Root_Child", "Root_Child_First_sub", "Root_Child_Second_sub", "Plain"}
	if !reflect.DeepEqual(slugs, want) {
		t.Errorf("slugs = %v, want %v", slugs, want)
	}
}

type tagMatcher struct{ tag string }

func (m tagMatcher) Matches(t *org.Tree, heading org.NodeID) bool {
	for _, tag := range t.EffectiveTags(heading) {
		if tag == m.tag {
			return true
		}
	}
	return false
}

func TestBatch_MatcherFiltersHeadings(t *testing.T) {
	tree := testTree()
	entries := Collect(Batch(tree, tagMatcher{tag: "work"}, Options{}))

	// work is set on Child and inherited by its two subs.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Counters restart at 0 for the filtered sequence, no gaps.
	for i, e := range entries {
		if e.ID.Seq != i {
			t.Errorf("seq[%d] = %d", i, e.ID.Seq)
		}
	}
	if *entries[0].Record.Title != "Child" {
		t.Errorf("first matched = %q", *entries[0].Record.Title)
	}
}

func TestBatch_StoppingEarlyIsSafe(t *testing.T) {
	tree := testTree()
	var got int
	for range Batch(tree, nil, Options{}) {
		got++
		if got == 2 {
			break
		}
	}
	if got != 2 {
		t.Fatalf("consumed %d", got)
	}
}
