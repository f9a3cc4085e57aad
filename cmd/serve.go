package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hostwatch/internal/controllers"
	"hostwatch/internal/models"
	"hostwatch/internal/routes"
	"hostwatch/internal/services"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Collect metrics and serve the local dashboard API",
		Long: `Run the collector in the background and expose snapshots, history,
processes, reports and alerts over HTTP and a WebSocket stream.

Only clients on this machine are served.

Examples:
  hostwatch serve
  hostwatch serve --addr localhost:9090`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := newRuntime(ctx, cfg)
	hub := services.NewWebSocketHub()
	defer hub.Stop()

	rt.onSnapshot(func(snap models.Snapshot, alerts []models.Alert) {
		hub.BroadcastSnapshot(snap)
		for _, a := range alerts {
			hub.BroadcastAlert(a)
		}
	})

	api := controllers.NewAPI(&controllers.API{
		Snapshots: rt.publisher,
		History:   rt.history,
		Interval:  cfg.Collector.UpdateInterval.Duration,
		Reports:   rt.reports,
		Exporter:  rt.exporter,
		Alerts:    rt.alerts,
		Processes: rt.processes,
		Hub:       hub,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           routes.NewRouter(api, cfg.Server),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := rt.collector.Start(ctx); err != nil {
		return err
	}
	defer rt.shutdown(shutdownTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.processes.Run(gctx, cfg.Collector.UpdateInterval.Duration)
		return nil
	})
	g.Go(func() error {
		rt.exporter.Run(gctx, cfg.Export.AutoInterval.Duration, cfg.Export.WindowMinutes)
		return nil
	})
	g.Go(func() error {
		log.Printf("Dashboard API listening on http://%s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
