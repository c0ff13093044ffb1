package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/murata-lab/memtree/internal/memory"
)

// WriteTree prints the process hierarchy with subtree totals:
//
//	systemd (pid 1) 1.20 GB
//	├─ sshd (pid 812) 14.50 MB
//	│  └─ bash (pid 990) 4.00 MB
//	└─ ... and 3 more
func WriteTree(w io.Writer, s *memory.Snapshot, o TreeOptions) error {
	order := layout(s, o)
	if len(order) == 0 {
		_, err := fmt.Fprintln(w, "No processes found.")
		return err
	}

	// lasts[d] records whether the current ancestor at depth d was the last
	// of its siblings.
	lasts := []bool{false}
	var b strings.Builder
	for _, v := range order {
		for len(lasts) <= v.depth {
			lasts = append(lasts, false)
		}
		lasts[v.depth] = v.last

		if v.depth > 1 {
			for d := 2; d < v.depth; d++ {
				if lasts[d] {
					b.WriteString("   ")
				} else {
					b.WriteString("│  ")
				}
			}
			if v.last {
				b.WriteString("└─ ")
			} else {
				b.WriteString("├─ ")
			}
		}

		if v.more > 0 {
			fmt.Fprintf(&b, "... and %d more\n", v.more)
			continue
		}
		info, _ := s.Process(v.pid)
		fmt.Fprintf(&b, "%s (pid %d) %s\n", displayName(info), v.pid, info.TotalMemory)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func displayName(info memory.ProcessMemoryInfo) string {
	if info.Name != "" {
		return info.Name
	}
	if info.Exe != "" {
		return info.Exe
	}
	return "unknown"
}
