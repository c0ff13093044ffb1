package handler

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/murata-lab/memtree/internal/memory"
	"github.com/murata-lab/memtree/internal/report"
)

const (
	maxTopCount  = 25
	maxTreeDepth = 10

	// defaultTreeDepth applies when neither the command nor the config sets
	// a depth; a full tree never fits in one message.
	defaultTreeDepth = 3
	treeMaxChildren  = 10
)

func (h *Handler) cmdMemory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.deferredRespond(s, i); err != nil {
		return
	}

	snap, err := h.snapshot("memory")
	if err != nil {
		h.followup(s, i, errorContent(err))
		return
	}
	h.followup(s, i, memoryContent(snap))
}

func (h *Handler) cmdTop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	n := intOption(i.ApplicationCommandData().Options, "n", h.defaultTopCount())
	if n < 1 || n > maxTopCount {
		h.respond(s, i, fmt.Sprintf("件数は 1〜%d で指定してください", maxTopCount))
		return
	}

	if err := h.deferredRespond(s, i); err != nil {
		return
	}

	snap, err := h.snapshot("top")
	if err != nil {
		h.followup(s, i, errorContent(err))
		return
	}
	h.followup(s, i, topContent(snap, int(n)))
}

func (h *Handler) cmdTree(s *discordgo.Session, i *discordgo.InteractionCreate) {
	depth := intOption(i.ApplicationCommandData().Options, "depth", h.defaultTreeDepth())
	if depth < 1 || depth > maxTreeDepth {
		h.respond(s, i, fmt.Sprintf("深さは 1〜%d で指定してください", maxTreeDepth))
		return
	}

	if err := h.deferredRespond(s, i); err != nil {
		return
	}

	snap, err := h.snapshot("ptree")
	if err != nil {
		h.followup(s, i, errorContent(err))
		return
	}
	h.followup(s, i, treeContent(snap, report.TreeOptions{
		MaxDepth:    int(depth),
		MinBytes:    h.cfg.MinTreeBytes,
		MaxChildren: treeMaxChildren,
	}))
}

// defaultTopCount is the configured ranking size clamped to what /top accepts.
func (h *Handler) defaultTopCount() int64 {
	n := int64(h.cfg.TopCount)
	switch {
	case n < 1:
		return 1
	case n > maxTopCount:
		return maxTopCount
	}
	return n
}

// defaultTreeDepth is the configured depth, or defaultTreeDepth when the
// config leaves it unlimited or beyond what /ptree accepts.
func (h *Handler) defaultTreeDepth() int64 {
	d := int64(h.cfg.TreeDepth)
	if d <= 0 || d > maxTreeDepth {
		return defaultTreeDepth
	}
	return d
}

func memoryContent(snap *memory.Snapshot) string {
	usage := snap.UsagePercent()

	var sb strings.Builder
	sb.WriteString("**メモリ情報**\n```\n")
	fmt.Fprintf(&sb, "合計:     %s\n", snap.TotalMemory)
	fmt.Fprintf(&sb, "使用:     %s\n", snap.UsedMemory)
	fmt.Fprintf(&sb, "使用率:   %.1f%% %s\n", usage, statusIndicator(usage, 70, 90))
	fmt.Fprintf(&sb, "スワップ: %s / %s (%.1f%%)\n", snap.UsedSwap, snap.TotalSwap, snap.SwapPercent())
	fmt.Fprintf(&sb, "プロセス: %d (ツリー内 %d)\n", snap.Len(), snap.ProcessTree().Len())
	sb.WriteString("```")
	return sb.String()
}

func topContent(snap *memory.Snapshot, n int) string {
	ranked := snap.TopN(n)
	if len(ranked) == 0 {
		return "プロセスが見つかりません"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**メモリ使用量 上位 %d**\n```\n", len(ranked))
	report.WriteTopTable(&sb, ranked)
	sb.WriteString("```")
	return sb.String()
}

func treeContent(snap *memory.Snapshot, o report.TreeOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**プロセスツリー** (深さ %d)\n```\n", o.MaxDepth)
	// strings.Builder never fails
	_ = report.WriteTree(&sb, snap, o)
	sb.WriteString("```")
	return sb.String()
}

func errorContent(err error) string {
	return fmt.Sprintf("メモリ情報取得エラー: %v", err)
}

func intOptionDef(name, description string, lo, hi float64) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		Required:    false,
		MinValue:    &lo,
		MaxValue:    hi,
	}
}

// intOption returns the integer option called name, or def when absent.
func intOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string, def int64) int64 {
	for _, opt := range options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return opt.IntValue()
		}
	}
	return def
}
