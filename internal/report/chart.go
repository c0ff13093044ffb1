package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/murata-lab/memtree/internal/memory"
)

// WriteTreeMap renders the process tree as an interactive HTML treemap sized
// by subtree totals.
func WriteTreeMap(w io.Writer, s *memory.Snapshot, o TreeOptions) error {
	nodes := TreeMapNodes(s, o)

	tm := charts.NewTreeMap()
	tm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "memtree",
			Width:     "1400px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Process memory",
			Subtitle: fmt.Sprintf("%s used of %s, snapshot %s", s.UsedMemory, s.TotalMemory, s.ID),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	tm.AddSeries("processes", nodes)

	if err := tm.Render(w); err != nil {
		return fmt.Errorf("render treemap: %w", err)
	}
	return nil
}

// TreeMapNodes converts the visible process tree into treemap nodes.
func TreeMapNodes(s *memory.Snapshot, o TreeOptions) []opts.TreeMapNode {
	return nest(s, o,
		func(pid uint32, info memory.ProcessMemoryInfo) opts.TreeMapNode {
			return opts.TreeMapNode{
				Name:  fmt.Sprintf("%s (%d)", displayName(info), pid),
				Value: clampInt(info.TotalMemory.Bytes()),
			}
		},
		func(n *opts.TreeMapNode, children []opts.TreeMapNode) {
			n.Children = children
		},
	)
}

func clampInt(v uint64) int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}
