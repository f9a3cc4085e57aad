package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ExportTimeLayout formats report timestamps, both in file names and in the
// report header.
const ExportTimeLayout = "2006-01-02_15-04-05"

// ExportFirstDelay is the pause before the first automatic export.
const ExportFirstDelay = time.Second

// ReportFileName returns the file name of a report generated at t.
func ReportFileName(t time.Time) string {
	return "system_report_" + t.Format(ExportTimeLayout) + ".txt"
}

// Exporter writes text reports to a directory.
type Exporter struct {
	builder *ReportBuilder
	dir     string
}

// NewExporter creates an exporter writing into dir ("." when empty).
func NewExporter(builder *ReportBuilder, dir string) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{builder: builder, dir: dir}
}

// Dir returns the export directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Export builds a report and writes it to a new file, returning its path.
func (e *Exporter) Export(ctx context.Context, windowMinutes int) (string, error) {
	report, err := e.builder.BuildReport(ctx, windowMinutes)
	if err != nil {
		return "", fmt.Errorf("build report: %w", err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.dir, ReportFileName(report.GeneratedAt))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if err := RenderText(f, report); err != nil {
		f.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}

	log.Printf("[EXPORT] Report written to %s", path)
	return path, nil
}

// Run exports a report every interval until ctx is cancelled. A failed
// export is logged and the schedule continues.
func (e *Exporter) Run(ctx context.Context, interval time.Duration, windowMinutes int) {
	if interval <= 0 {
		return
	}
	log.Printf("[EXPORT] Auto-export every %v (window: %d min)", interval, windowMinutes)

	timer := time.NewTimer(min(ExportFirstDelay, interval))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := e.Export(ctx, windowMinutes); err != nil {
				log.Printf("[EXPORT] Auto-export failed: %v", err)
			}
			timer.Reset(interval)
		}
	}
}
