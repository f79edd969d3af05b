package extract

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/org"
)

func TestSelectContent_WholeSubtreeIncludesNestedHeadings(t *testing.T) {
	tree := testTree()
	child := headingID(t, tree, "Child")

	got := SelectContent(tree, child, child, true)
	if got == nil {
		t.Fatal("expected content")
	}
	for _, want := range []string{"** TODO [#B] Child", "Sub one text.", "Sub two text."} {
		if !strings.Contains(*got, want) {
			t.Errorf("subtree content missing %q", want)
		}
	}
	if strings.Contains(*got, "Plain") {
		t.Error("subtree content leaked past the next top-level heading")
	}
}

func TestSelectContent_ElementOnly(t *testing.T) {
	tree := testTree()
	child := headingID(t, tree, "Child")

	got := SelectContent(tree, child, child, false)
	if got == nil || *got != "Child paragraph." {
		t.Errorf("content = %v", got)
	}
}

func TestSelectContent_AbsentSpanIsNil(t *testing.T) {
	tree := org.Parse("* Empty heading\n")
	h := tree.Headings()[0]
	if got := SelectContent(tree, h, h, false); got != nil {
		t.Errorf("content = %q, want nil", *got)
	}
	if got := SelectContent(tree, h, org.InvalidID, true); got != nil {
		t.Errorf("subtree content without heading = %q, want nil", *got)
	}
}
