// Package cli implements the memtree command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/murata-lab/memtree/internal/config"
	"github.com/murata-lab/memtree/internal/logging"
	"github.com/murata-lab/memtree/internal/memory"
	"github.com/murata-lab/memtree/internal/notifier"
	"github.com/murata-lab/memtree/internal/sysinfo"
)

// App holds what the commands share.
type App struct {
	provider memory.Provider
	cfg      *config.Config
	notifier notifier.Notifier
}

// AppOption configures App
type AppOption func(*App)

// WithNotifier sets the notifier used by the report command instead of the
// configured webhook.
func WithNotifier(n notifier.Notifier) AppOption {
	return func(a *App) {
		a.notifier = n
	}
}

// NewApp creates an App that takes snapshots from p.
func NewApp(p memory.Provider, cfg *config.Config, opts ...AppOption) *App {
	a := &App{provider: p, cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// snapshot runs one collect, build and aggregate cycle.
func (a *App) snapshot(cmd *cobra.Command) (*memory.Snapshot, error) {
	return memory.Collect(cmd.Context(), a.provider)
}

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "memtree",
		Short: "Per-process memory usage aggregated over the process tree",
		Long: `memtree takes a snapshot of every process, builds the process tree and
reports each process's memory together with the total of its descendants.

Commands:
  summary  System memory and swap totals
  top      Largest top-level process trees
  tree     Process tree with subtree totals
  chart    Interactive HTML treemap
  report   Post a summary to the Discord webhook`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSummaryCmd(a),
		newTopCmd(a),
		newTreeCmd(a),
		newChartCmd(a),
		newReportCmd(a),
	)

	return root
}

// Execute runs the root command against the host.
func Execute() {
	log := logging.NewError("memtree")

	cfg, err := config.Load()
	if err != nil {
		log.Warn("config error: ", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := NewApp(sysinfo.NewProvider(), cfg)
	err = NewRootCmd(app).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Warn(err)
		os.Exit(1)
	}
}
