package proctree

import "github.com/murata-lab/memtree/internal/storage"

// Ledger supplies own memory per pid and receives subtree totals.
type Ledger interface {
	// Own returns the own memory of pid; ok is false when pid has no record.
	Own(pid Pid) (own storage.Storage, ok bool)
	SetTotal(pid Pid, total storage.Storage)
}

// Aggregate computes total(n) = own(n) + sum of total(child) for every
// attached pid, post-order, and writes each result to the ledger.
//
// InitPID keeps its own memory as its total; its children are still rolled
// up normally. Pids without a ledger record count as zero bytes and receive
// no SetTotal call.
func Aggregate(t *Tree, l Ledger) {
	var order []Pid
	t.Walk(func(pid Pid, _ int) bool {
		order = append(order, pid)
		return true
	})

	totals := make(map[Pid]storage.Storage, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		pid := order[i]
		own, ok := l.Own(pid)

		total := own
		if pid != InitPID {
			for _, child := range t.nodes[pid].children {
				total = storage.Add(total, totals[child])
			}
		}
		totals[pid] = total

		if ok {
			l.SetTotal(pid, total)
		}
	}
}

// SubtreeTotal sums own memory over pid and all its descendants without the
// InitPID exception. Pids that are not attached yield zero.
func SubtreeTotal(t *Tree, l Ledger, pid Pid) storage.Storage {
	if _, ok := t.nodes[pid]; !ok {
		return storage.Storage{}
	}
	var total storage.Storage
	stack := []Pid{pid}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if own, ok := l.Own(id); ok {
			total = storage.Add(total, own)
		}
		stack = append(stack, t.nodes[id].children...)
	}
	return total
}
