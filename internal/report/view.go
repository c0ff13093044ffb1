package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/murata-lab/memtree/internal/memory"
)

// ProcessView is the JSON form of one process record.
type ProcessView struct {
	Pid         uint32  `json:"pid"`
	Parent      *uint32 `json:"parent,omitempty"`
	Name        string  `json:"name"`
	Exe         string  `json:"exe,omitempty"`
	Root        string  `json:"root,omitempty"`
	Memory      uint64  `json:"memory"`
	TotalMemory uint64  `json:"total_memory"`
	Display     string  `json:"display"`
}

// TreeNode is a ProcessView with its visible children.
type TreeNode struct {
	ProcessView
	Children []TreeNode `json:"children,omitempty"`
}

// View is the JSON document produced by the CLI's --json flag.
type View struct {
	SnapshotID  string        `json:"snapshot_id"`
	CollectedAt time.Time     `json:"collected_at"`
	TotalMemory uint64        `json:"total_memory"`
	UsedMemory  uint64        `json:"used_memory"`
	TotalSwap   uint64        `json:"total_swap"`
	UsedSwap    uint64        `json:"used_swap"`
	Processes   int           `json:"processes"`
	Top         []ProcessView `json:"top,omitempty"`
	Tree        []TreeNode    `json:"tree,omitempty"`
}

// NewView creates a View with the snapshot totals only.
func NewView(s *memory.Snapshot) *View {
	return &View{
		SnapshotID:  s.ID.String(),
		CollectedAt: s.CollectedAt,
		TotalMemory: s.TotalMemory.Bytes(),
		UsedMemory:  s.UsedMemory.Bytes(),
		TotalSwap:   s.TotalSwap.Bytes(),
		UsedSwap:    s.UsedSwap.Bytes(),
		Processes:   s.Len(),
	}
}

// WithTop adds a ranking to the view.
func (v *View) WithTop(ranked []memory.Ranked) *View {
	v.Top = make([]ProcessView, len(ranked))
	for i, r := range ranked {
		v.Top[i] = newProcessView(r.Pid, r.Info)
	}
	return v
}

// WithTree adds the visible process tree to the view.
func (v *View) WithTree(s *memory.Snapshot, o TreeOptions) *View {
	v.Tree = nest(s, o,
		func(pid uint32, info memory.ProcessMemoryInfo) TreeNode {
			return TreeNode{ProcessView: newProcessView(pid, info)}
		},
		func(n *TreeNode, children []TreeNode) {
			n.Children = children
		},
	)
	return v
}

// Write encodes the view as indented JSON.
func (v *View) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newProcessView(pid uint32, info memory.ProcessMemoryInfo) ProcessView {
	return ProcessView{
		Pid:         pid,
		Parent:      info.Parent,
		Name:        info.Name,
		Exe:         info.Exe,
		Root:        info.Root,
		Memory:      info.RawMemory,
		TotalMemory: info.TotalMemory.Bytes(),
		Display:     info.TotalMemory.String(),
	}
}
