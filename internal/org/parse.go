package org

import (
	"regexp"
	"strings"
)

// DefaultTodoKeywords are the workflow keywords recognized on headline
// lines. The first matching token after the stars becomes the node's Todo.
var DefaultTodoKeywords = []string{"TODO", "NEXT", "WAITING", "DONE", "CANCELLED"}

var (
	headingRe  = regexp.MustCompile(`^(\*+)[ \t]+(.*)$`)
	tagsRe     = regexp.MustCompile(`[ \t]((?::[A-Za-z0-9_@#%]+)+:)[ \t]*$`)
	priorityRe = regexp.MustCompile(`^\[#([A-Za-z])\][ \t]*`)
	keywordRe  = regexp.MustCompile(`^#\+([A-Za-z_]+):[ \t]*(.*)$`)
	planningRe = regexp.MustCompile(`^[ \t]*(SCHEDULED|DEADLINE|CLOSED):`)
	drawerRe   = regexp.MustCompile(`^[ \t]*:PROPERTIES:[ \t]*$`)
	drawerEnd  = regexp.MustCompile(`^[ \t]*:END:[ \t]*$`)
	propertyRe = regexp.MustCompile(`^[ \t]*:([^:\s]+):[ \t]*(.*?)[ \t]*$`)
)

// Parse builds a node tree from org-style outline text. Parsing is
// tolerant: malformed constructs degrade to plain content and never fail.
func Parse(src string) *Tree {
	p := &parser{tree: &Tree{
		Source:    src,
		noInherit: make(map[string]struct{}),
	}}

	root := p.newNode(KindDocument, InvalidID)
	p.tree.Nodes[root].Span = Span{0, len(src)}
	p.stack = []NodeID{root}
	p.blockBegin = -1
	p.drawer = InvalidID

	offset := 0
	for offset < len(src) {
		end := strings.IndexByte(src[offset:], '\n')
		var next int
		if end < 0 {
			end = len(src)
			next = end
		} else {
			end += offset
			next = end + 1
		}
		p.line(src[offset:end], offset, end)
		offset = next
	}
	p.flushContent()
	p.closeHeadings()
	p.fillContentsSpans()
	return p.tree
}

type parser struct {
	tree  *Tree
	stack []NodeID // document root plus open headings

	// Content block accumulation under the current stack top.
	blockBegin int // -1 when no open block
	blockEnd   int

	afterHeadline bool   // planning line / drawer may still follow
	drawer        NodeID // open property drawer, InvalidID when none
}

func (p *parser) newNode(kind Kind, parent NodeID) NodeID {
	id := NodeID(len(p.tree.Nodes))
	p.tree.Nodes = append(p.tree.Nodes, Node{
		ID:        id,
		Kind:      kind,
		Parent:    parent,
		Scheduled: InvalidID,
		Deadline:  InvalidID,
	})
	if parent != InvalidID {
		p.tree.Nodes[parent].Children = append(p.tree.Nodes[parent].Children, id)
	}
	return id
}

func (p *parser) top() NodeID { return p.stack[len(p.stack)-1] }

func (p *parser) line(line string, begin, end int) {
	if p.drawer != InvalidID {
		if drawerEnd.MatchString(line) {
			p.tree.Nodes[p.drawer].Span.End = end
			p.drawer = InvalidID
			return
		}
		if m := propertyRe.FindStringSubmatch(line); m != nil {
			entry := p.newNode(KindPropertyEntry, p.drawer)
			n := &p.tree.Nodes[entry]
			n.Span = Span{begin, end}
			n.Key = m[1]
			n.Value = m[2]
			return
		}
		// Malformed drawer line: close the drawer and fall through.
		p.tree.Nodes[p.drawer].Span.End = begin
		p.drawer = InvalidID
	}

	if m := headingRe.FindStringSubmatch(line); m != nil {
		p.flushContent()
		p.openHeading(len(m[1]), m[2], begin, end)
		return
	}

	if p.afterHeadline {
		if planningRe.MatchString(line) {
			p.planning(line, begin)
			return
		}
		if drawerRe.MatchString(line) {
			p.drawer = p.newNode(KindDrawer, p.top())
			p.tree.Nodes[p.drawer].Span = Span{begin, end}
			p.afterHeadline = false
			return
		}
		p.afterHeadline = false
	}

	if m := keywordRe.FindStringSubmatch(line); m != nil {
		p.keyword(m[1], m[2])
		return
	}

	if strings.TrimSpace(line) == "" {
		return
	}
	if p.blockBegin < 0 {
		p.blockBegin = begin
	}
	p.blockEnd = end
}

// openHeading creates a heading node nested under the innermost open
// heading of a strictly lower level.
func (p *parser) openHeading(level int, rest string, begin, end int) {
	for len(p.stack) > 1 {
		top := p.tree.Node(p.top())
		if top.Kind == KindHeading && top.Level >= level {
			p.stack = p.stack[:len(p.stack)-1]
			continue
		}
		break
	}

	id := p.newNode(KindHeading, p.top())
	n := &p.tree.Nodes[id]
	n.Span = Span{Begin: begin, End: end} // End widened in closeHeadings
	n.Level = level

	// Trailing :tag: list.
	if m := tagsRe.FindStringSubmatchIndex(rest); m != nil {
		raw := rest[m[2]:m[3]]
		rest = rest[:m[0]]
		for _, tag := range strings.Split(strings.Trim(raw, ":"), ":") {
			if tag == "" {
				continue
			}
			n.OwnTags = append(n.OwnTags, tag)
			if tag == "ARCHIVE" {
				n.Archived = true
			}
		}
	}

	// TODO keyword, priority cookie, COMMENT marker, then the title.
	rest = strings.TrimSpace(rest)
	for _, kw := range DefaultTodoKeywords {
		if rest == kw || strings.HasPrefix(rest, kw+" ") {
			n.Todo = kw
			rest = strings.TrimSpace(rest[len(kw):])
			break
		}
	}
	if m := priorityRe.FindStringSubmatch(rest); m != nil {
		n.Priority = m[1][0]
		rest = rest[len(m[0]):]
	}
	if rest == "COMMENT" || strings.HasPrefix(rest, "COMMENT ") {
		n.Commented = true
		rest = strings.TrimSpace(rest[len("COMMENT"):])
	}
	n.Title = strings.TrimSpace(rest)

	p.stack = append(p.stack, id)
	p.afterHeadline = true
	p.blockBegin = -1
}

// planning handles the SCHEDULED:/DEADLINE: line directly below a headline.
func (p *parser) planning(line string, begin int) {
	heading := p.top()
	for _, kw := range []string{"SCHEDULED:", "DEADLINE:"} {
		idx := strings.Index(line, kw)
		if idx < 0 {
			continue
		}
		span, ok := timestampSpan(line, idx+len(kw))
		if !ok {
			continue
		}
		ts := p.newNode(KindTimestamp, heading)
		n := &p.tree.Nodes[ts]
		n.Span = Span{begin + span.Begin, begin + span.End}
		n.ContentsSpan = n.Span
		n.HasContents = true
		switch kw {
		case "SCHEDULED:":
			p.tree.Nodes[heading].Scheduled = ts
		case "DEADLINE:":
			p.tree.Nodes[heading].Deadline = ts
		}
	}
}

// timestampSpan locates the <...> or [...] bracket following from, as
// offsets within line.
func timestampSpan(line string, from int) (Span, bool) {
	rest := line[from:]
	open := strings.IndexAny(rest, "<[")
	if open < 0 {
		return Span{}, false
	}
	closer := byte('>')
	if rest[open] == '[' {
		closer = ']'
	}
	end := strings.IndexByte(rest[open:], closer)
	if end < 0 {
		return Span{}, false
	}
	return Span{from + open, from + open + end + 1}, true
}

func (p *parser) keyword(name, value string) {
	switch strings.ToUpper(name) {
	case "FILETAGS":
		p.tree.FileTags = append(p.tree.FileTags, splitTags(value)...)
	case "EXCLUDE_TAGS":
		for _, tag := range splitTags(value) {
			p.tree.noInherit[tag] = struct{}{}
		}
	}
}

// splitTags accepts both the :a:b: colon form and whitespace separation.
func splitTags(value string) []string {
	value = strings.TrimSpace(value)
	var parts []string
	if strings.HasPrefix(value, ":") {
		parts = strings.Split(strings.Trim(value, ":"), ":")
	} else {
		parts = strings.Fields(value)
	}
	var out []string
	for _, t := range parts {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (p *parser) flushContent() {
	if p.blockBegin < 0 {
		return
	}
	id := p.newNode(KindContent, p.top())
	n := &p.tree.Nodes[id]
	n.Span = Span{p.blockBegin, p.blockEnd}
	n.ContentsSpan = n.Span
	n.HasContents = true
	p.blockBegin = -1
	p.afterHeadline = false
}

// closeHeadings widens every heading span to cover its entire subtree:
// from the headline start to the next heading of the same or lower level,
// or end of document.
func (p *parser) closeHeadings() {
	if p.drawer != InvalidID {
		p.tree.Nodes[p.drawer].Span.End = len(p.tree.Source)
		p.drawer = InvalidID
	}
	nodes := p.tree.Nodes
	for i := range nodes {
		if nodes[i].Kind != KindHeading {
			continue
		}
		end := len(p.tree.Source)
		for j := i + 1; j < len(nodes); j++ {
			if nodes[j].Kind == KindHeading && nodes[j].Level <= nodes[i].Level {
				end = nodes[j].Span.Begin
				break
			}
		}
		nodes[i].Span.End = end
	}
}

// fillContentsSpans derives each heading's (and the document's) direct
// contents span from its content children, which always precede any child
// heading.
func (p *parser) fillContentsSpans() {
	nodes := p.tree.Nodes
	for i := range nodes {
		if nodes[i].Kind != KindHeading && nodes[i].Kind != KindDocument {
			continue
		}
		begin, end := -1, -1
		for _, c := range nodes[i].Children {
			if nodes[c].Kind != KindContent {
				continue
			}
			if begin < 0 {
				begin = nodes[c].Span.Begin
			}
			end = nodes[c].Span.End
		}
		if begin >= 0 {
			nodes[i].ContentsSpan = Span{begin, end}
			nodes[i].HasContents = true
		}
	}
}
