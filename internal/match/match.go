// Package match compiles tag and TODO-keyword predicates used to select
// headings for batch export. The grammar is deliberately small:
//
//	work            heading carries tag "work"
//	+work-home      carries work and not home
//	work|urgent     either alternative matches
//	TODO=DONE       heading's TODO keyword is DONE
//
// Tags are matched against the heading's effective (inherited) tag set.
package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/org"
)

var termRe = regexp.MustCompile(`^([+-]?)([A-Za-z0-9_@#%=]+)`)

type term struct {
	negate bool
	todo   bool
	value  string
}

// Matcher is a compiled predicate over headings. It satisfies
// extract.Matcher.
type Matcher struct {
	expr string
	alts [][]term
}

// Compile parses expr into a Matcher. Malformed expressions return an
// error; callers propagate it unmodified.
func Compile(expr string) (*Matcher, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, fmt.Errorf("match: empty expression")
	}
	m := &Matcher{expr: expr}
	for _, alt := range strings.Split(trimmed, "|") {
		terms, err := compileAlternative(alt)
		if err != nil {
			return nil, err
		}
		m.alts = append(m.alts, terms)
	}
	return m, nil
}

func compileAlternative(alt string) ([]term, error) {
	rest := strings.TrimSpace(alt)
	if rest == "" {
		return nil, fmt.Errorf("match: empty alternative")
	}
	var terms []term
	for rest != "" {
		loc := termRe.FindStringSubmatch(rest)
		if loc == nil {
			return nil, fmt.Errorf("match: unexpected input at %q", rest)
		}
		tm := term{negate: loc[1] == "-"}
		v := loc[2]
		if kw, ok := strings.CutPrefix(v, "TODO="); ok {
			if kw == "" {
				return nil, fmt.Errorf("match: TODO= requires a keyword")
			}
			tm.todo = true
			tm.value = kw
		} else if strings.Contains(v, "=") {
			return nil, fmt.Errorf("match: unknown selector %q", v)
		} else {
			tm.value = v
		}
		terms = append(terms, tm)
		rest = strings.TrimSpace(rest[len(loc[0]):])
	}
	return terms, nil
}

// String returns the source expression.
func (m *Matcher) String() string { return m.expr }

// Matches reports whether the heading satisfies any alternative.
func (m *Matcher) Matches(t *org.Tree, heading org.NodeID) bool {
	h := t.Node(heading)
	if h == nil || h.Kind != org.KindHeading {
		return false
	}
	tags := make(map[string]struct{})
	for _, tag := range t.EffectiveTags(heading) {
		tags[tag] = struct{}{}
	}
	for _, alt := range m.alts {
		if matchAll(alt, tags, h.Todo) {
			return true
		}
	}
	return false
}

func matchAll(terms []term, tags map[string]struct{}, todo string) bool {
	for _, tm := range terms {
		var hit bool
		if tm.todo {
			hit = todo == tm.value
		} else {
			_, hit = tags[tm.value]
		}
		if hit == tm.negate {
			return false
		}
	}
	return true
}
