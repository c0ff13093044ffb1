package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/murata-lab/memtree/internal/memory"
)

// WriteTopTable prints a ranking as an aligned table.
func WriteTopTable(w io.Writer, ranked []memory.Ranked) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "PID", "NAME", "TOTAL", "OWN"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for i, r := range ranked {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", r.Pid),
			displayName(r.Info),
			r.Info.TotalMemory.String(),
			r.Info.Memory.String(),
		})
	}
	table.Render()
}
