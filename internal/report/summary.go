package report

import (
	"fmt"
	"io"

	"github.com/murata-lab/memtree/internal/memory"
)

// WriteSummary prints the system totals of a snapshot.
func WriteSummary(w io.Writer, s *memory.Snapshot) error {
	tree := s.ProcessTree()
	_, err := fmt.Fprintf(w,
		"Snapshot:  %s\n"+
			"Memory:    %s / %s (%.1f%%)\n"+
			"Swap:      %s / %s (%.1f%%)\n"+
			"Processes: %d (%d in tree, %s attached)\n",
		s.ID,
		s.UsedMemory, s.TotalMemory, s.UsagePercent(),
		s.UsedSwap, s.TotalSwap, s.SwapPercent(),
		s.Len(), tree.Len(), s.AttachedMemory(),
	)
	return err
}
