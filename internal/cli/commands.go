package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/murata-lab/memtree/internal/logging"
	"github.com/murata-lab/memtree/internal/notifier"
	"github.com/murata-lab/memtree/internal/report"
)

func newSummaryCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show system memory and swap totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot(cmd)
			if err != nil {
				return err
			}
			return report.WriteSummary(cmd.OutOrStdout(), snap)
		},
	}
}

func newTopCmd(a *App) *cobra.Command {
	var (
		n      int
		own    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank top-level processes by subtree total",
		Long: `Rank processes by memory.

By default only top-level processes (no parent, or a child of init) are
ranked, by the total of their whole subtree. With --own every process is
ranked by its own memory.

Example:
  memtree top -n 5
  memtree top --own --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("-n must be positive, got %d", n)
			}
			snap, err := a.snapshot(cmd)
			if err != nil {
				return err
			}

			ranked := snap.TopN(n)
			if own {
				ranked = snap.TopByOwn(n)
			}

			if asJSON {
				return report.NewView(snap).WithTop(ranked).Write(cmd.OutOrStdout())
			}
			report.WriteTopTable(cmd.OutOrStdout(), ranked)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", a.cfg.TopCount, "Number of processes to show")
	cmd.Flags().BoolVar(&own, "own", false, "Rank every process by its own memory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of a table")

	return cmd
}

func addTreeFlags(cmd *cobra.Command, a *App, o *report.TreeOptions) {
	cmd.Flags().IntVar(&o.MaxDepth, "depth", a.cfg.TreeDepth, "Maximum depth to show (0 = unlimited)")
	cmd.Flags().Uint64Var(&o.MinBytes, "min", a.cfg.MinTreeBytes, "Hide subtrees smaller than this many bytes")
	cmd.Flags().IntVar(&o.MaxChildren, "max-children", 0, "Children listed per process (0 = unlimited)")
}

func validateTree(o report.TreeOptions) error {
	if o.MaxDepth < 0 {
		return fmt.Errorf("--depth must not be negative, got %d", o.MaxDepth)
	}
	if o.MaxChildren < 0 {
		return fmt.Errorf("--max-children must not be negative, got %d", o.MaxChildren)
	}
	return nil
}

func newTreeCmd(a *App) *cobra.Command {
	var (
		o      report.TreeOptions
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the process tree with subtree totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTree(o); err != nil {
				return err
			}
			snap, err := a.snapshot(cmd)
			if err != nil {
				return err
			}
			if asJSON {
				return report.NewView(snap).WithTree(snap, o).Write(cmd.OutOrStdout())
			}
			return report.WriteTree(cmd.OutOrStdout(), snap, o)
		},
	}

	addTreeFlags(cmd, a, &o)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of text")

	return cmd
}

func newChartCmd(a *App) *cobra.Command {
	var (
		o      report.TreeOptions
		output string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Write an HTML treemap of subtree totals",
		Long: `Write an interactive treemap where each rectangle is a process sized by
the total memory of its subtree.

Example:
  memtree chart -o memtree.html --min 1048576`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTree(o); err != nil {
				return err
			}
			snap, err := a.snapshot(cmd)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := report.WriteTreeMap(f, snap, o); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (snapshot %s)\n", output, snap.ID)
			return nil
		},
	}

	addTreeFlags(cmd, a, &o)
	cmd.Flags().StringVarP(&output, "output", "o", "memtree.html", "Output file")

	return cmd
}

func newReportCmd(a *App) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Post a memory report to the Discord webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sink := a.notifier
			if sink == nil {
				if err := a.cfg.ValidateWebhook(); err != nil {
					return err
				}
				sink = notifier.NewDiscordNotifier(a.cfg.WebhookURL)
			}

			snap, err := a.snapshot(cmd)
			if err != nil {
				return err
			}
			if err := notifier.SendReport(cmd.Context(), sink, notifier.NewMemoryReport(snap, snap.TopN(n))); err != nil {
				return fmt.Errorf("send report: %w", err)
			}

			logging.New("report").Infoln("sent report for snapshot", snap.ID)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", a.cfg.TopCount, "Number of processes in the report")

	return cmd
}
