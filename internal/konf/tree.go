// Package konf implements the in-memory configuration tree:
// an ordered tree of configuration lines mutated by set/unset and
// streamed by dump.
package konf

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Node is one configuration record: a line of text at a given priority,
// with a sequence number (declaration order within its priority bucket,
// renumbered densely on mutation) and children nested one pwd level
// deeper.
type Node struct {
	Line        string
	Priority    uint16
	Sequence    int
	SubSequence int
	Splitter    bool
	Sequenced   bool

	Children []*Node
	parent   *Node
}

// Tree is the root of the configuration namespace; the root node itself
// carries no line text.
type Tree struct {
	root *Node
}

func New() *Tree {
	return &Tree{root: &Node{}}
}

// less implements the (priority, sequence, sub-sequence, line) ordering
// invariant.
func less(a, b *Node) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	if a.SubSequence != b.SubSequence {
		return a.SubSequence < b.SubSequence
	}
	return a.Line < b.Line
}

// Navigate walks pwd (one literal token per level, from the root) and
// returns the node at that path, creating intermediate nodes if needed
// when create is true.
func (t *Tree) Navigate(pwd []string, create bool) *Node {
	cur := t.root
	for _, tok := range pwd {
		var next *Node
		for _, c := range cur.Children {
			if c.Line == tok {
				next = c
				break
			}
		}
		if next == nil {
			if !create {
				return nil
			}
			next = &Node{Line: tok, parent: cur}
			cur.Children = append(cur.Children, next)
			renumber(cur)
		}
		cur = next
	}
	return cur
}

// Set optionally deletes any sibling of parent matching pattern at the
// same priority (when unique), inserts a new child, and renumbers the
// priority bucket it lands in.
func (t *Tree) Set(pwd []string, priority uint16, pattern, line string, seq int, unique bool) error {
	parent := t.Navigate(pwd, true)
	if unique && pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return err
		}
		kept := parent.Children[:0]
		for _, c := range parent.Children {
			if c.Priority == priority && re.MatchString(c.Line) {
				continue
			}
			kept = append(kept, c)
		}
		parent.Children = kept
	}

	child := &Node{Line: line, Priority: priority, Sequence: seq, parent: parent, Sequenced: seq != 0}
	parent.Children = append(parent.Children, child)
	renumber(parent)
	return nil
}

// Unset deletes all children of pwd matching pattern, then renumbers.
func (t *Tree) Unset(pwd []string, pattern string, priority uint16) error {
	parent := t.Navigate(pwd, false)
	if parent == nil {
		return nil
	}
	var re *regexp.Regexp
	var err error
	if pattern != "" {
		re, err = regexp.Compile(pattern)
		if err != nil {
			return err
		}
	}

	kept := parent.Children[:0]
	for _, c := range parent.Children {
		match := (pattern == "" || re.MatchString(c.Line)) && (priority == 0 || c.Priority == priority)
		if match {
			continue
		}
		kept = append(kept, c)
	}
	parent.Children = kept
	renumber(parent)
	return nil
}

// renumber enforces ordering and assigns a dense 1..N sequence within
// each priority bucket of parent's children; it runs after every
// mutation so sequences never have gaps.
func renumber(parent *Node) {
	sort.SliceStable(parent.Children, func(i, j int) bool { return less(parent.Children[i], parent.Children[j]) })

	n := 0
	var curPriority uint16
	first := true
	for _, c := range parent.Children {
		if first || c.Priority != curPriority {
			n = 0
			curPriority = c.Priority
			first = false
		}
		n++
		if c.Sequenced {
			c.Sequence = n
		}
	}
}

// Dump renders the subtree rooted at pwd, restricted to nodes whose line
// matches pattern, down to maxDepth (0 = unlimited), in the persisted
// configuration form: depth-indented lines, sequence numbers when
// sequencing is active, and a lone "!" between priority groups.
func (t *Tree) Dump(pwd []string, pattern string, maxDepth int) (string, error) {
	node := t.Navigate(pwd, false)
	if node == nil {
		return "", nil
	}
	var re *regexp.Regexp
	var err error
	if pattern != "" {
		re, err = regexp.Compile(pattern)
		if err != nil {
			return "", err
		}
	}

	var b strings.Builder
	dumpChildren(&b, node, re, 0, maxDepth)
	return b.String(), nil
}

func dumpChildren(b *strings.Builder, node *Node, re *regexp.Regexp, depth, maxDepth int) {
	if maxDepth > 0 && depth >= maxDepth {
		return
	}
	var lastPriorityHi byte
	first := true
	for _, c := range node.Children {
		if re != nil && !re.MatchString(c.Line) {
			continue
		}
		hi := byte(c.Priority >> 8)
		if !first && (hi != lastPriorityHi || c.Splitter) {
			b.WriteString("!\n")
		}
		first = false
		lastPriorityHi = hi

		b.WriteString(strings.Repeat(" ", depth))
		if c.Sequenced {
			b.WriteString(strconv.Itoa(c.Sequence))
			b.WriteByte(' ')
		}
		b.WriteString(c.Line)
		b.WriteByte('\n')

		dumpChildren(b, c, re, depth+1, maxDepth)
	}
}
