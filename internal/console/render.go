package console

import (
	"fmt"
	"strings"

	"hostwatch/internal/models"
	"hostwatch/internal/services"

	"github.com/charmbracelet/lipgloss"
)

// warnRatio is the share of a limit at which a value turns yellow.
const warnRatio = 0.8

// sparkWidth is the number of history points drawn per row.
const sparkWidth = 30

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Level classifies a value against its limit.
type Level int

const (
	LevelOK Level = iota
	LevelWarn
	LevelCritical
)

// Classify grades v against limit. With lowerIsWorse the value is bad when
// it falls below the limit, as with free disk space.
func Classify(v, limit float64, lowerIsWorse bool) Level {
	if limit <= 0 {
		return LevelOK
	}
	if lowerIsWorse {
		switch {
		case v < limit:
			return LevelCritical
		case v < limit/warnRatio:
			return LevelWarn
		}
		return LevelOK
	}
	switch {
	case v > limit:
		return LevelCritical
	case v > limit*warnRatio:
		return LevelWarn
	}
	return LevelOK
}

func styleFor(l Level) lipgloss.Style {
	switch l {
	case LevelCritical:
		return critStyle
	case LevelWarn:
		return warnStyle
	}
	return okStyle
}

// Sparkline draws the newest width values scaled between their min and max.
func Sparkline(values []float64, width int) string {
	if width > 0 && len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	top := len(sparkRunes) - 1
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(top))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// Renderer draws one snapshot per call, colouring values against the alert
// thresholds.
type Renderer struct {
	limits  services.Thresholds
	history *services.HistoryStore
}

// NewRenderer creates a renderer. history may be nil to omit sparklines.
func NewRenderer(limits services.Thresholds, history *services.HistoryStore) *Renderer {
	return &Renderer{limits: limits, history: history}
}

func (r *Renderer) spark(id models.SeriesID) string {
	if r.history == nil {
		return ""
	}
	return sparkStyle.Render(Sparkline(r.history.Read(id), sparkWidth))
}

func row(label, value, extra string) string {
	parts := []string{labelStyle.Render(label), value}
	if extra != "" {
		parts = append(parts, "  "+extra)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func unavailable() string {
	return mutedStyle.Render(models.NotAvailable)
}

// Render returns the watch view of snap followed by any new alerts.
func (r *Renderer) Render(snap models.Snapshot, alerts []models.Alert) string {
	l := r.limits
	lines := []string{
		titleStyle.Render(fmt.Sprintf("hostwatch  #%d  %s", snap.Sequence, snap.Timestamp.Format("15:04:05"))),
	}

	if c := snap.CPU; c != nil {
		v := styleFor(Classify(c.UsagePercent, l.CPUPercent, false)).Render(fmt.Sprintf("%5.1f%%", c.UsagePercent))
		cores := make([]string, len(c.PerCore))
		for i, p := range c.PerCore {
			cores[i] = fmt.Sprintf("%.0f", p)
		}
		lines = append(lines, row("CPU", v, mutedStyle.Render(strings.Join(cores, " "))))
	} else {
		lines = append(lines, row("CPU", unavailable(), ""))
	}

	if m := snap.Memory; m != nil {
		v := styleFor(Classify(m.UsagePercent, l.RAMPercent, false)).Render(fmt.Sprintf("%5.1f%%", m.UsagePercent))
		detail := mutedStyle.Render(fmt.Sprintf("%.2f / %.2f GB", m.UsedGB(), m.TotalGB()))
		lines = append(lines, row("RAM", v, detail+"  "+r.spark(models.SeriesRAM)))
	} else {
		lines = append(lines, row("RAM", unavailable(), ""))
	}

	if g := snap.GPU; g != nil {
		temp := styleFor(Classify(g.TemperatureC, l.GPUTempC, false)).Render(fmt.Sprintf("%.0f°C", g.TemperatureC))
		detail := mutedStyle.Render(fmt.Sprintf("mem %.1f%%  range %.0f-%.0f°C", g.MemoryPercent, g.TempMinC, g.TempMaxC))
		lines = append(lines, row("GPU", fmt.Sprintf("%5.1f%%  %s", g.UsagePercent, temp), detail+"  "+r.spark(models.SeriesGPUUsage)))
	}

	if d := snap.Disk; d != nil {
		free := d.FreePercent()
		v := styleFor(Classify(free, l.DiskFreePercent, true)).Render(fmt.Sprintf("%5.1f%% free", free))
		detail := mutedStyle.Render(fmt.Sprintf("%.2f / %.2f GB  SMART %s %s", d.UsedGB(), d.TotalGB(), snap.DiskHealth.Health, snap.DiskHealth.Temperature))
		lines = append(lines, row("Disk", v, detail))
	} else {
		lines = append(lines, row("Disk", unavailable(), ""))
	}

	if dio := snap.DiskIO; dio != nil {
		v := fmt.Sprintf("R %.2f MB/s  W %.2f MB/s", dio.ReadMBps, dio.WriteMBps)
		lines = append(lines, row("Disk I/O", v, r.spark(models.SeriesDiskRead)))
	}

	if n := snap.Network; n != nil {
		st := styleFor(max(Classify(n.DownloadMbps, l.NetworkMbps, false), Classify(n.UploadMbps, l.NetworkMbps, false)))
		v := st.Render(fmt.Sprintf("↓ %.2f Mbps  ↑ %.2f Mbps", n.DownloadMbps, n.UploadMbps))
		lines = append(lines, row("Network", v, r.spark(models.SeriesNetDown)))
	} else {
		lines = append(lines, row("Network", unavailable(), ""))
	}

	if u := snap.Uptime; u != nil {
		lines = append(lines, row("Uptime", fmt.Sprintf("%dd %dh %dm", u.Days, u.Hours, u.Minutes), ""))
	}

	for _, a := range alerts {
		lines = append(lines, alertStyle.Render("! "+a.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
