package memory

import (
	"sort"

	"github.com/murata-lab/memtree/internal/proctree"
)

// Ranked is one entry of a ranking.
type Ranked struct {
	Pid  uint32
	Info ProcessMemoryInfo
}

// TopN returns up to n top-level processes ordered by total memory, largest
// first. Top-level means attached directly under the virtual root, which
// covers an absent parent and an explicit parent 0, or under
// proctree.InitPID. Equal totals are ordered by pid.
func (s *Snapshot) TopN(n int) []Ranked {
	if n <= 0 {
		return nil
	}

	var candidates []Ranked
	for pid, info := range s.processes {
		parent, attached := s.tree.Parent(pid)
		if !attached || (parent != proctree.RootID && parent != proctree.InitPID) {
			continue
		}
		candidates = append(candidates, Ranked{Pid: pid, Info: info.clone()})
	}

	sortRanked(candidates, func(r Ranked) uint64 { return r.Info.TotalMemory.Bytes() })
	return truncate(candidates, n)
}

// TopByOwn returns up to n processes of any depth ordered by own memory,
// largest first, including processes left out of the tree.
func (s *Snapshot) TopByOwn(n int) []Ranked {
	if n <= 0 {
		return nil
	}

	all := make([]Ranked, 0, len(s.processes))
	for pid, info := range s.processes {
		all = append(all, Ranked{Pid: pid, Info: info.clone()})
	}

	sortRanked(all, func(r Ranked) uint64 { return r.Info.RawMemory })
	return truncate(all, n)
}

func sortRanked(rs []Ranked, key func(Ranked) uint64) {
	sort.Slice(rs, func(i, j int) bool {
		ki, kj := key(rs[i]), key(rs[j])
		if ki != kj {
			return ki > kj
		}
		return rs[i].Pid < rs[j].Pid
	})
}

func truncate(rs []Ranked, n int) []Ranked {
	if n < len(rs) {
		return rs[:n]
	}
	return rs
}
