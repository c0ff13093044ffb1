// Package memory turns a provider sample into an aggregated, queryable snapshot.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/murata-lab/memtree/internal/proctree"
	"github.com/murata-lab/memtree/internal/storage"
)

var (
	// ErrCollection wraps any failure of the provider.
	ErrCollection = errors.New("memory collection failed")

	// ErrDuplicatePID is returned when a sample lists the same pid twice.
	ErrDuplicatePID = errors.New("duplicate pid in sample")
)

// ProcessMemoryInfo is the per-process record of a snapshot.
type ProcessMemoryInfo struct {
	Memory      storage.Storage // own resident memory
	RawMemory   uint64
	Name        string
	Exe         string  // empty when unknown
	Parent      *uint32 // nil when unknown
	Root        string  // empty when unknown
	TotalMemory storage.Storage
}

func (p ProcessMemoryInfo) clone() ProcessMemoryInfo {
	if p.Parent != nil {
		parent := *p.Parent
		p.Parent = &parent
	}
	return p
}

// HasParent reports whether the record declares a parent pid.
func (p ProcessMemoryInfo) HasParent() bool {
	return p.Parent != nil
}

// Snapshot is one point-in-time capture. It is read-only once returned by
// Build or Collect and may be shared between readers.
type Snapshot struct {
	ID          uuid.UUID
	CollectedAt time.Time

	TotalMemory storage.Storage
	UsedMemory  storage.Storage
	TotalSwap   storage.Storage
	UsedSwap    storage.Storage

	processes map[uint32]ProcessMemoryInfo
	tree      *proctree.Tree
}

// Collect runs one full collect, build and aggregate cycle.
func Collect(ctx context.Context, p Provider) (*Snapshot, error) {
	sample, err := p.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollection, err)
	}
	if sample == nil {
		return nil, fmt.Errorf("%w: provider returned no sample", ErrCollection)
	}
	return Build(sample)
}

// Build converts a sample into a snapshot, building the process tree and
// filling in subtree totals.
func Build(sample *Sample) (*Snapshot, error) {
	processes := make(map[uint32]ProcessMemoryInfo, len(sample.Processes))
	edges := make(map[proctree.Pid]proctree.Edge, len(sample.Processes))

	for _, ps := range sample.Processes {
		if _, dup := processes[ps.Pid]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePID, ps.Pid)
		}
		own := storage.FromBytes(ps.Memory)
		info := ProcessMemoryInfo{
			Memory:      own,
			RawMemory:   ps.Memory,
			Name:        ps.Name,
			Exe:         ps.Exe,
			Root:        ps.Root,
			TotalMemory: own,
		}
		if ps.Parent != nil {
			parent := *ps.Parent
			info.Parent = &parent
		}
		processes[ps.Pid] = info
		edges[ps.Pid] = proctree.Edge{Parent: info.Parent, Label: ps.Name}
	}

	tree, err := proctree.Build(edges)
	if err != nil {
		return nil, err
	}
	proctree.Aggregate(tree, ledger(processes))

	return &Snapshot{
		ID:          uuid.New(),
		CollectedAt: time.Now(),
		TotalMemory: storage.FromBytes(sample.System.TotalMemory),
		UsedMemory:  storage.FromBytes(sample.System.UsedMemory),
		TotalSwap:   storage.FromBytes(sample.System.TotalSwap),
		UsedSwap:    storage.FromBytes(sample.System.UsedSwap),
		processes:   processes,
		tree:        tree,
	}, nil
}

// ledger exposes the process map to the aggregator.
type ledger map[uint32]ProcessMemoryInfo

func (l ledger) Own(pid proctree.Pid) (storage.Storage, bool) {
	info, ok := l[pid]
	return info.Memory, ok
}

func (l ledger) SetTotal(pid proctree.Pid, total storage.Storage) {
	info := l[pid]
	info.TotalMemory = total
	l[pid] = info
}

// Len returns the number of process records, attached or not.
func (s *Snapshot) Len() int { return len(s.processes) }

// Process returns a copy of the record for pid.
func (s *Snapshot) Process(pid uint32) (ProcessMemoryInfo, bool) {
	info, ok := s.processes[pid]
	return info.clone(), ok
}

// Pids returns all recorded pids in ascending order.
func (s *Snapshot) Pids() []uint32 {
	pids := make([]uint32, 0, len(s.processes))
	for pid := range s.processes {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids
}

// ProcessTree returns the read-only hierarchy built for this snapshot.
func (s *Snapshot) ProcessTree() *proctree.Tree {
	return s.tree
}

// AttachedMemory sums own memory over every process reachable in the tree.
func (s *Snapshot) AttachedMemory() storage.Storage {
	return proctree.SubtreeTotal(s.tree, ledger(s.processes), proctree.RootID)
}

// UsagePercent returns used memory as a percentage of total memory.
func (s *Snapshot) UsagePercent() float64 {
	return percent(s.UsedMemory, s.TotalMemory)
}

// SwapPercent returns used swap as a percentage of total swap.
func (s *Snapshot) SwapPercent() float64 {
	return percent(s.UsedSwap, s.TotalSwap)
}

func percent(used, total storage.Storage) float64 {
	if total.Bytes() == 0 {
		return 0
	}
	return 100 * float64(used.Bytes()) / float64(total.Bytes())
}
