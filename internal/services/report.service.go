package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"hostwatch/internal/models"

	"golang.org/x/sync/errgroup"
)

// ReportTableLimit caps the process tables and the alert log in a report.
const ReportTableLimit = 10

// SnapshotSource provides the most recent snapshot.
type SnapshotSource interface {
	Latest() (models.Snapshot, bool)
}

// SystemInfoProvider provides static host information.
type SystemInfoProvider interface {
	Get(ctx context.Context) (models.SystemInfo, error)
	RebootHistory() []time.Time
}

// ProcessTable provides the process rows shown in a report.
type ProcessTable interface {
	Top(limit int) []models.ProcessStatus
	NetworkProcesses(ctx context.Context, limit int) ([]models.NetworkProcess, error)
}

// ReportOptions wires a ReportBuilder.
type ReportOptions struct {
	History    *HistoryStore
	Interval   time.Duration
	Snapshots  SnapshotSource
	SystemInfo SystemInfoProvider
	Processes  ProcessTable
	Alerts     *AlertLog
	Now        func() time.Time
}

// ReportBuilder assembles reports from history and the latest snapshot.
type ReportBuilder struct {
	opts ReportOptions
}

// NewReportBuilder creates a builder. Nil collaborators produce empty sections.
func NewReportBuilder(opts ReportOptions) *ReportBuilder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	return &ReportBuilder{opts: opts}
}

// BuildReport gathers a report. windowMinutes <= 0 reports only current
// values; otherwise averages over the last windowMinutes are included.
// Failing side tables degrade to empty tables.
func (b *ReportBuilder) BuildReport(ctx context.Context, windowMinutes int) (*models.Report, error) {
	if windowMinutes < 0 {
		windowMinutes = 0
	}
	report := &models.Report{
		GeneratedAt:      b.opts.Now(),
		WindowMinutes:    windowMinutes,
		TopProcesses:     []models.ProcessStatus{},
		NetworkProcesses: []models.NetworkProcess{},
		RebootHistory:    []time.Time{},
		Alerts:           []models.Alert{},
	}

	g, gctx := errgroup.WithContext(ctx)
	if b.opts.SystemInfo != nil {
		g.Go(func() error {
			info, err := b.opts.SystemInfo.Get(gctx)
			if err != nil {
				log.Printf("[REPORT] System info incomplete: %v", err)
			}
			report.System = info
			if reboots := b.opts.SystemInfo.RebootHistory(); reboots != nil {
				report.RebootHistory = reboots
			}
			return nil
		})
	}
	if b.opts.Processes != nil {
		g.Go(func() error {
			report.TopProcesses = b.opts.Processes.Top(ReportTableLimit)
			return nil
		})
		g.Go(func() error {
			rows, err := b.opts.Processes.NetworkProcesses(gctx, ReportTableLimit)
			if err != nil {
				log.Printf("[REPORT] Network processes unavailable: %v", err)
				return nil
			}
			report.NetworkProcesses = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if b.opts.Snapshots != nil {
		if snap, ok := b.opts.Snapshots.Latest(); ok {
			report.Current = &snap
		}
	}
	if b.opts.Alerts != nil {
		report.Alerts = b.opts.Alerts.Recent(ReportTableLimit)
	}
	if windowMinutes > 0 && b.opts.History != nil {
		avg := b.Averages(time.Duration(windowMinutes) * time.Minute)
		report.Averages = &avg
	}

	return report, nil
}

// Averages computes the mean of every tracked series over window. Empty
// series yield an invalid Average.
func (b *ReportBuilder) Averages(window time.Duration) models.ReportAverages {
	h := b.opts.History
	points := WindowPoints(window, b.opts.Interval)
	read := func(id models.SeriesID) models.Average {
		return mean(h.ReadWindow(id, points))
	}

	return models.ReportAverages{
		CPU:          cpuWindowAverage(h, points),
		RAM:          read(models.SeriesRAM),
		GPUUsage:     read(models.SeriesGPUUsage),
		GPUMemory:    read(models.SeriesGPUMemory),
		GPUTemp:      read(models.SeriesGPUTemp),
		DiskRead:     read(models.SeriesDiskRead),
		DiskWrite:    read(models.SeriesDiskWrite),
		NetDownload:  read(models.SeriesNetDown),
		NetUpload:    read(models.SeriesNetUp),
		WindowPoints: points,
	}
}

func mean(values []float64) models.Average {
	if len(values) == 0 {
		return models.Average{}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return models.Average{Value: sum / float64(len(values)), Valid: true}
}

// cpuWindowAverage averages across cores at each step, then over the steps.
// Core series are aligned on their newest point.
func cpuWindowAverage(h *HistoryStore, points int) models.Average {
	cores := h.CoreCount()
	if cores == 0 || points <= 0 {
		return models.Average{}
	}

	windows := make([][]float64, cores)
	steps := points
	for i := range windows {
		windows[i] = h.ReadWindow(models.CPUCoreSeries(i), points)
		if len(windows[i]) < steps {
			steps = len(windows[i])
		}
	}
	if steps == 0 {
		return models.Average{}
	}

	perStep := make([]float64, steps)
	for s := 0; s < steps; s++ {
		var sum float64
		for _, w := range windows {
			sum += w[len(w)-steps+s]
		}
		perStep[s] = sum / float64(cores)
	}
	return mean(perStep)
}

const reportRule = "----------------------------------------------------------------------"

// RenderText writes report as the plain-text export layout.
func RenderText(w io.Writer, report *models.Report) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p("System Monitoring Report\n")
	p("Date: %s\n", report.GeneratedAt.Format(ExportTimeLayout))
	if report.Windowed() {
		p("Time Range: Last %d minutes\n", report.WindowMinutes)
	}
	p("\n")

	sys := report.System
	p("CPU: %s\n", orNA(sys.CPUModel))
	p("CPU Frequency: %s\n", orNA(sys.CPUFrequency))
	p("RAM: %.2f GB\n", sys.RAMTotalGB)
	p("GPU: %s\n", orNA(sys.GPU))
	p("OS: %s\n", orNA(sys.OS))
	cur := report.Current
	if cur != nil && cur.Uptime != nil {
		p("Uptime: %dd %dh %dm\n", cur.Uptime.Days, cur.Uptime.Hours, cur.Uptime.Minutes)
	} else {
		p("Uptime: %s\n", models.NotAvailable)
	}
	p("Last Boot: %s\n", formatBoot(sys.LastBoot))

	if cur == nil {
		cur = &models.Snapshot{DiskHealth: models.UnknownDiskHealth}
	}
	var avg models.ReportAverages
	windowed := report.Averages != nil
	if windowed {
		avg = *report.Averages
	}
	window := report.WindowMinutes
	average := func(label string, a models.Average, format string) {
		if windowed {
			p("Average %s (last %d min): %s\n", label, window, a.Format(format))
		}
	}

	p("\n")
	if cur.CPU != nil {
		p("CPU Usage: %.1f%%\n", cur.CPU.UsagePercent)
	} else {
		p("CPU Usage: %s\n", models.NotAvailable)
	}
	average("CPU Usage", avg.CPU, "%.1f%%")

	if m := cur.Memory; m != nil {
		p("RAM Usage: %.1f%% (%.2f/%.2f GB, Free: %.2f GB)\n", m.UsagePercent, m.UsedGB(), m.TotalGB(), m.FreeGB())
	} else {
		p("RAM Usage: %s\n", models.NotAvailable)
	}
	average("RAM Usage", avg.RAM, "%.1f%%")

	if d := cur.Disk; d != nil {
		p("Disk Usage: %.1f%% (%.2f/%.2f GB, Free: %.2f GB)\n", d.UsagePercent, d.UsedGB(), d.TotalGB(), d.FreeGB())
	} else {
		p("Disk Usage: %s\n", models.NotAvailable)
	}
	p("Disk Health: Temperature: %s | Health: %s\n", cur.DiskHealth.Temperature, cur.DiskHealth.Health)
	if dio := cur.DiskIO; dio != nil {
		p("Disk I/O: Read %.2f MB/s | Write %.2f MB/s\n", dio.ReadMBps, dio.WriteMBps)
	}
	average("Disk Read", avg.DiskRead, "%.2f MB/s")
	average("Disk Write", avg.DiskWrite, "%.2f MB/s")

	if g := cur.GPU; g != nil {
		p("GPU Usage: %.1f%%\n", g.UsagePercent)
		p("GPU Memory: Used: %.1f MB | Total: %.1f MB | Percent: %.1f%%\n", g.MemoryUsedMB, g.MemoryTotalMB, g.MemoryPercent)
		p("GPU Temp: Current: %.1f | Min: %.1f | Max: %.1f\n", g.TemperatureC, g.TempMinC, g.TempMaxC)
	}
	if cur.GPU != nil || avg.GPUUsage.Valid {
		average("GPU Usage", avg.GPUUsage, "%.1f%%")
		average("GPU Memory", avg.GPUMemory, "%.1f%%")
		average("GPU Temperature", avg.GPUTemp, "%.1f°C")
	}

	if n := cur.Network; n != nil {
		p("Network: Download %.1f Mbps | Upload %.1f Mbps\n", n.DownloadMbps, n.UploadMbps)
	} else {
		p("Network: %s\n", models.NotAvailable)
	}
	average("Download", avg.NetDownload, "%.2f Mbps")
	average("Upload", avg.NetUpload, "%.2f Mbps")

	p("\nRunning Processes:\n%s\n", reportRule)
	p("%-8s %-12s %-12s %-12s %-30s\n", "PID", "Memory (MB)", "Memory (%)", "CPU (%)", "Process Name")
	for _, proc := range limitRows(report.TopProcesses) {
		p("%-8d %-12.2f %-12.2f %-12.2f %-30s\n", proc.PID, proc.MemoryMB, proc.MemoryPercent, proc.CPUPercent, proc.Name)
	}

	p("\nNetwork-Using Processes:\n%s\n", reportRule)
	p("%-8s %-15s %-30s\n", "PID", "Connections", "Process Name")
	netRows := report.NetworkProcesses
	if len(netRows) > ReportTableLimit {
		netRows = netRows[:ReportTableLimit]
	}
	for _, proc := range netRows {
		p("%-8d %-15d %-30s\n", proc.PID, proc.Connections, proc.Name)
	}

	p("\nReboot History:\n%s\n", reportRule)
	for _, t := range report.RebootHistory {
		p("%s\n", formatBoot(t))
	}

	p("\nAlert Log:\n%s\n", reportRule)
	alerts := report.Alerts
	if len(alerts) > ReportTableLimit {
		alerts = alerts[len(alerts)-ReportTableLimit:]
	}
	for _, a := range alerts {
		p("%s\n", a.String())
	}

	return bw.Flush()
}

// RenderString is RenderText into a string.
func RenderString(report *models.Report) string {
	var sb strings.Builder
	_ = RenderText(&sb, report)
	return sb.String()
}

func limitRows(rows []models.ProcessStatus) []models.ProcessStatus {
	if len(rows) > ReportTableLimit {
		return rows[:ReportTableLimit]
	}
	return rows
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}

func formatBoot(t time.Time) string {
	if t.IsZero() {
		return models.NotAvailable
	}
	return t.Format("2006-01-02 15:04:05")
}
