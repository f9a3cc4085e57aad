package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"

	"hostwatch/internal/models"
	"hostwatch/internal/services"

	"github.com/spf13/cobra"
)

func reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Collect for a few cycles and print a system report",
		Long: `Sample this machine for the given number of cycles, then print a
report with current values, averages over the window, the top processes,
network-using processes, reboot history and alerts.

Rates need at least two cycles; the first observation of a counter
reports zero.

Examples:
  hostwatch report --window 5 --cycles 3
  hostwatch report --export        # Write system_report_<time>.txt`,
		RunE: runReport,
	}

	cmd.Flags().Int("window", 5, "Averaging window in minutes (0 for current values only)")
	cmd.Flags().Int("cycles", 2, "Collection cycles to run before reporting")
	cmd.Flags().Bool("export", false, "Write the report to the export directory instead of stdout")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	window, _ := cmd.Flags().GetInt("window")
	cycles, _ := cmd.Flags().GetInt("cycles")
	export, _ := cmd.Flags().GetBool("export")
	if window < 0 {
		return fmt.Errorf("--window must not be negative")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := newRuntime(ctx, cfg)
	if err := rt.processes.Refresh(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: process table unavailable: %v\n", err)
	}
	if err := collectCycles(ctx, rt, cycles); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if export {
		path, err := rt.exporter.Export(ctx, window)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	}

	report, err := rt.reports.BuildReport(ctx, window)
	if err != nil {
		return err
	}
	return services.RenderText(cmd.OutOrStdout(), report)
}

// collectCycles runs the collector until it has produced n snapshots or ctx
// ends, so history and rates are populated before a one-off report.
func collectCycles(ctx context.Context, rt *runtime, n int) error {
	if n < 1 {
		n = 1
	}
	var seen atomic.Int64
	rt.onSnapshot(func(models.Snapshot, []models.Alert) {
		if seen.Add(1) >= int64(n) {
			rt.collector.Stop()
		}
	})
	if err := rt.collector.Start(ctx); err != nil && !errors.Is(err, services.ErrAlreadyStarted) {
		return err
	}
	<-rt.collector.Done()
	rt.shutdown(shutdownTimeout)
	return nil
}
