package notifier

import (
	"context"
	"fmt"

	"github.com/murata-lab/memtree/internal/memory"
)

// Usage thresholds in percent for the embed color.
const (
	warnUsage = 70.0
	critUsage = 90.0
)

// MaxReportEntries is the longest ranking a report carries; one embed field
// is kept for the snapshot ID.
const MaxReportEntries = MaxFields - 1

// Report is a webhook message built from a snapshot.
type Report struct {
	Title   string
	Message string
	Color   Color
	Fields  []Field
}

// NewMemoryReport summarizes a snapshot and its top-level ranking. Rankings
// longer than MaxReportEntries are cut and the message says so.
func NewMemoryReport(s *memory.Snapshot, top []memory.Ranked) Report {
	omitted := 0
	if len(top) > MaxReportEntries {
		omitted = len(top) - MaxReportEntries
		top = top[:MaxReportEntries]
	}

	msg := fmt.Sprintf("メモリ: %s / %s (%.1f%%)\nスワップ: %s / %s (%.1f%%)\nプロセス数: %d",
		s.UsedMemory, s.TotalMemory, s.UsagePercent(),
		s.UsedSwap, s.TotalSwap, s.SwapPercent(),
		s.Len(),
	)
	if omitted > 0 {
		msg += fmt.Sprintf("\n(上位 %d 件を表示、%d 件省略)", len(top), omitted)
	}

	fields := make([]Field, 0, len(top)+1)
	for i, r := range top {
		fields = append(fields, Field{
			Name:   fmt.Sprintf("%d. %s (pid %d)", i+1, r.Info.Name, r.Pid),
			Value:  fmt.Sprintf("合計 %s / 自身 %s", r.Info.TotalMemory, r.Info.Memory),
			Inline: false,
		})
	}
	fields = append(fields, Field{Name: "Snapshot", Value: s.ID.String()})

	return Report{
		Title:   "メモリレポート",
		Message: msg,
		Color:   UsageColor(s.UsagePercent()),
		Fields:  fields,
	}
}

// UsageColor picks the embed color for a memory usage percentage.
func UsageColor(pct float64) Color {
	switch {
	case pct >= critUsage:
		return ColorRed
	case pct >= warnUsage:
		return ColorYellow
	default:
		return ColorGreen
	}
}

// SendReport delivers r through n.
func SendReport(ctx context.Context, n Notifier, r Report) error {
	return n.Send(ctx, r.Title, r.Message, r.Color, r.Fields)
}
