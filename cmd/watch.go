package cmd

import (
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"

	"hostwatch/internal/console"
	"hostwatch/internal/models"

	"github.com/spf13/cobra"
)

func watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print live snapshots in the terminal",
		Long: `Sample this machine every update interval and print each snapshot,
coloured against the alert thresholds, followed by any new alerts.

Examples:
  # Run until interrupted
  hostwatch watch

  # Print three snapshots and exit
  hostwatch watch --cycles 3`,
		RunE: runWatch,
	}

	cmd.Flags().Int("cycles", 0, "Stop after this many snapshots (0 runs until interrupted)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cycles, _ := cmd.Flags().GetInt("cycles")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := newRuntime(ctx, cfg)
	renderer := console.NewRenderer(thresholds(cfg.Thresholds), rt.history)
	out := cmd.OutOrStdout()

	var seen atomic.Int64
	rt.onSnapshot(func(snap models.Snapshot, alerts []models.Alert) {
		fmt.Fprintln(out, renderer.Render(snap, alerts))
		fmt.Fprintln(out)
		if cycles > 0 && seen.Add(1) >= int64(cycles) {
			rt.collector.Stop()
		}
	})

	if err := rt.collector.Start(ctx); err != nil {
		return err
	}
	<-rt.collector.Done()
	rt.shutdown(shutdownTimeout)
	return nil
}
