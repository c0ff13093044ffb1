// Package proctree builds a process hierarchy from parent pointers and rolls
// memory up through it.
package proctree

import (
	"errors"
	"fmt"
)

// Pid identifies a process within one snapshot.
type Pid = uint32

const (
	// RootID is the synthetic virtual root. Real pids are assumed never to be 0.
	RootID Pid = 0

	// InitPID is the init-equivalent process.
	InitPID Pid = 1
)

// ErrReservedID is returned when a real pid collides with RootID.
var ErrReservedID = errors.New("pid collides with the virtual root id")

// Edge is one input record: an optional parent and a display label.
type Edge struct {
	Parent *Pid
	Label  string
}

// ParentOf is a convenience for building an Edge parent pointer.
func ParentOf(pid Pid) *Pid {
	return &pid
}

type node struct {
	label    string
	parent   Pid
	children []Pid
}

// Tree is an arena of nodes keyed by pid, rooted at RootID.
// It is read-only once Build returns.
type Tree struct {
	nodes map[Pid]*node
}

// Build attaches every edge whose ancestry reaches a parentless record.
// Records whose declared parent never appears are left out, together with
// everything below them.
func Build(edges map[Pid]Edge) (*Tree, error) {
	if _, ok := edges[RootID]; ok {
		return nil, fmt.Errorf("build tree: %w", ErrReservedID)
	}

	t := &Tree{nodes: make(map[Pid]*node, len(edges)+1)}
	t.nodes[RootID] = &node{}

	pending := make(map[Pid][]Pid)
	for pid, e := range edges {
		parent := RootID
		if e.Parent != nil {
			parent = *e.Parent
		}
		if _, ok := t.nodes[parent]; !ok {
			pending[parent] = append(pending[parent], pid)
			continue
		}
		t.attach(pid, parent, e.Label)
		t.flush(pid, edges, pending)
	}

	return t, nil
}

func (t *Tree) attach(pid, parent Pid, label string) {
	t.nodes[pid] = &node{label: label, parent: parent}
	p := t.nodes[parent]
	p.children = append(p.children, pid)
}

// flush attaches the buffered descendants of a freshly attached pid,
// depth first, using an explicit stack.
func (t *Tree) flush(pid Pid, edges map[Pid]Edge, pending map[Pid][]Pid) {
	stack := []Pid{pid}
	for len(stack) > 0 {
		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		waiting, ok := pending[parent]
		if !ok {
			continue
		}
		delete(pending, parent)
		for _, child := range waiting {
			t.attach(child, parent, edges[child].Label)
			stack = append(stack, child)
		}
	}
}

// Root returns the virtual root id.
func (t *Tree) Root() Pid { return RootID }

// Len returns the number of attached real pids.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Contains reports whether pid is attached. The virtual root is not a real pid.
func (t *Tree) Contains(pid Pid) bool {
	if pid == RootID {
		return false
	}
	_, ok := t.nodes[pid]
	return ok
}

// Label returns the display label of pid.
func (t *Tree) Label(pid Pid) string {
	if n, ok := t.nodes[pid]; ok {
		return n.label
	}
	return ""
}

// Children returns a copy of the child ids of pid. Order is unspecified.
func (t *Tree) Children(pid Pid) []Pid {
	n, ok := t.nodes[pid]
	if !ok || len(n.children) == 0 {
		return nil
	}
	out := make([]Pid, len(n.children))
	copy(out, n.children)
	return out
}

// Walk visits every attached pid in pre-order. Depth is 1 for children of
// the virtual root. Returning false from fn skips the visited node's subtree.
func (t *Tree) Walk(fn func(pid Pid, depth int) bool) {
	type frame struct {
		pid   Pid
		depth int
	}

	root := t.nodes[RootID]
	stack := make([]frame, 0, len(root.children))
	for i := len(root.children) - 1; i >= 0; i-- {
		stack = append(stack, frame{root.children[i], 1})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(f.pid, f.depth) {
			continue
		}
		children := t.nodes[f.pid].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}
}

// Parent returns the parent of an attached pid, RootID for top-level pids.
func (t *Tree) Parent(pid Pid) (Pid, bool) {
	if !t.Contains(pid) {
		return 0, false
	}
	return t.nodes[pid].parent, true
}
