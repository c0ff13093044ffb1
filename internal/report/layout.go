// Package report renders snapshots as text, tables, HTML charts and JSON.
package report

import (
	"sort"

	"github.com/murata-lab/memtree/internal/memory"
	"github.com/murata-lab/memtree/internal/proctree"
)

// TreeOptions limits how much of the process tree is shown.
type TreeOptions struct {
	// MaxDepth stops expansion below this depth. Top-level processes are
	// depth 1. Zero means unlimited.
	MaxDepth int
	// MinBytes hides processes whose subtree total is smaller.
	MinBytes uint64
	// MaxChildren caps the children listed per process. Zero means unlimited.
	MaxChildren int
}

// visit is one line of the laid-out tree. A visit with more > 0 stands for
// hidden siblings and has no pid.
type visit struct {
	pid    uint32
	parent uint32
	depth  int
	last   bool
	more   int
}

// layout walks the snapshot tree in display order: siblings sorted by
// subtree total, largest first.
func layout(s *memory.Snapshot, o TreeOptions) []visit {
	t := s.ProcessTree()

	var out []visit
	stack := pushChildren(nil, s, t.Root(), 1, o)
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, v)

		if v.more > 0 {
			continue
		}
		if o.MaxDepth > 0 && v.depth >= o.MaxDepth {
			continue
		}
		stack = pushChildren(stack, s, v.pid, v.depth+1, o)
	}
	return out
}

// pushChildren pushes the visible children of pid in reverse so they pop in
// display order, with a trailing "more" entry for anything hidden.
func pushChildren(stack []visit, s *memory.Snapshot, pid uint32, depth int, o TreeOptions) []visit {
	shown, hidden := visibleChildren(s, pid, o)
	if hidden > 0 {
		stack = append(stack, visit{parent: pid, depth: depth, last: true, more: hidden})
	}
	for i := len(shown) - 1; i >= 0; i-- {
		stack = append(stack, visit{
			pid:    shown[i],
			parent: pid,
			depth:  depth,
			last:   i == len(shown)-1 && hidden == 0,
		})
	}
	return stack
}

func visibleChildren(s *memory.Snapshot, pid uint32, o TreeOptions) ([]uint32, int) {
	children := s.ProcessTree().Children(pid)
	totals := make(map[uint32]uint64, len(children))
	shown := children[:0]
	for _, c := range children {
		info, _ := s.Process(c)
		total := info.TotalMemory.Bytes()
		if total < o.MinBytes {
			continue
		}
		totals[c] = total
		shown = append(shown, c)
	}

	sort.Slice(shown, func(i, j int) bool {
		if totals[shown[i]] != totals[shown[j]] {
			return totals[shown[i]] > totals[shown[j]]
		}
		return shown[i] < shown[j]
	})

	if o.MaxChildren > 0 && len(shown) > o.MaxChildren {
		shown = shown[:o.MaxChildren]
	}
	return shown, len(children) - len(shown)
}

// nest builds a nested value per visible process, bottom-up, without
// recursion. Hidden-sibling entries are dropped.
func nest[T any](s *memory.Snapshot, o TreeOptions, node func(pid uint32, info memory.ProcessMemoryInfo) T, setChildren func(*T, []T)) []T {
	order := layout(s, o)

	kids := make(map[uint32][]uint32)
	for _, v := range order {
		if v.more == 0 {
			kids[v.parent] = append(kids[v.parent], v.pid)
		}
	}

	built := make(map[uint32]T, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		if v.more > 0 {
			continue
		}
		info, _ := s.Process(v.pid)
		n := node(v.pid, info)
		if cs := kids[v.pid]; len(cs) > 0 {
			setChildren(&n, collect(built, cs))
		}
		built[v.pid] = n
	}
	return collect(built, kids[proctree.RootID])
}

func collect[T any](built map[uint32]T, pids []uint32) []T {
	out := make([]T, 0, len(pids))
	for _, pid := range pids {
		out = append(out, built[pid])
		delete(built, pid)
	}
	return out
}
