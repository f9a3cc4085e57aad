package cmd

import (
	"context"
	"log"
	"time"

	"hostwatch/internal/config"
	"hostwatch/internal/models"
	"hostwatch/internal/services"
)

// runtime is the set of long-lived components shared by every command.
type runtime struct {
	cfg       *config.Config
	sensors   services.SensorSet
	history   *services.HistoryStore
	publisher *services.SnapshotPublisher
	collector *services.Collector
	evaluator *services.ThresholdEvaluator
	alerts    *services.AlertLog
	processes *services.ProcessCollector
	sysinfo   *services.SystemInfoCache
	reports   *services.ReportBuilder
	exporter  *services.Exporter
}

func thresholds(t config.ThresholdsConfig) services.Thresholds {
	return services.Thresholds{
		CPUPercent:      t.CPUPercent,
		RAMPercent:      t.RAMPercent,
		GPUTempC:        t.GPUTempC,
		DiskFreePercent: t.DiskFreePercent,
		NetworkMbps:     t.NetworkMbps,
		Uptime:          t.Uptime.Duration,
	}
}

// resolveSensors probes the optional tools once. A missing executable is
// left out entirely so the capability reports "disabled".
func resolveSensors(ctx context.Context, cfg *config.Config) services.SensorSet {
	opts := services.ResolveOptions{
		Host:       services.NewPsutilHost(),
		DiskDevice: cfg.Collector.DiskDevice,
		Timeout:    cfg.Sensors.Timeout.Duration,
	}
	if cfg.Sensors.GPU {
		if gpu := services.NewNvidiaSMISensor(cfg.Sensors.NvidiaSMI, cfg.Sensors.Timeout.Duration); gpu != nil {
			opts.GPU = gpu
		} else {
			log.Printf("[SENSOR] %s not found, GPU metrics disabled", cfg.Sensors.NvidiaSMI)
		}
	}
	if cfg.Sensors.DiskHealth {
		if smart := services.NewSmartctlSensor(cfg.Sensors.Smartctl); smart != nil {
			opts.DiskHealth = smart
		} else {
			log.Printf("[SENSOR] %s not found, disk health disabled", cfg.Sensors.Smartctl)
		}
	}
	return services.ResolveSensors(ctx, opts)
}

func newRuntime(ctx context.Context, cfg *config.Config) *runtime {
	rt := &runtime{
		cfg:       cfg,
		sensors:   resolveSensors(ctx, cfg),
		history:   services.NewHistoryStore(cfg.Collector.MaxHistory),
		publisher: services.NewSnapshotPublisher(cfg.Collector.QueueSize),
		evaluator: services.NewThresholdEvaluator(thresholds(cfg.Thresholds)),
		alerts:    services.NewAlertLog(),
		processes: services.NewProcessCollector(nil, nil),
	}

	rt.collector = services.NewCollector(services.CollectorOptions{
		Sensors:    rt.sensors,
		History:    rt.history,
		Publisher:  rt.publisher,
		Interval:   cfg.Collector.UpdateInterval.Duration,
		DiskPath:   cfg.Collector.DiskPath,
		DiskDevice: cfg.Collector.DiskDevice,
	})
	rt.sysinfo = services.NewSystemInfoCache(services.PsutilSystemInfo{GPU: rt.sensors.GPU}, services.DefaultSystemInfoTTL)
	rt.reports = services.NewReportBuilder(services.ReportOptions{
		History:    rt.history,
		Interval:   cfg.Collector.UpdateInterval.Duration,
		Snapshots:  rt.publisher,
		SystemInfo: rt.sysinfo,
		Processes:  rt.processes,
		Alerts:     rt.alerts,
	})
	rt.exporter = services.NewExporter(rt.reports, cfg.Export.Dir)
	return rt
}

// onSnapshot evaluates thresholds for every snapshot, records new alerts and
// hands both to next.
func (rt *runtime) onSnapshot(next func(models.Snapshot, []models.Alert)) {
	rt.publisher.OnSnapshot(func(snap models.Snapshot) {
		alerts := rt.evaluator.Evaluate(snap)
		if len(alerts) > 0 {
			rt.alerts.Append(alerts...)
		}
		if next != nil {
			next(snap, alerts)
		}
	})
}

// shutdown stops the collector and drains the publisher.
func (rt *runtime) shutdown(timeout time.Duration) {
	rt.collector.Stop()
	select {
	case <-rt.collector.Done():
	case <-time.After(timeout):
		log.Printf("[COLLECTOR] Cycle still running after %v, not waiting", timeout)
	}
	rt.publisher.Close()
	if n := rt.publisher.Dropped(); n > 0 {
		log.Printf("[PUBLISHER] %d snapshots dropped during this run", n)
	}
}
