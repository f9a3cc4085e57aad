package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"hostwatch/internal/models"
)

// Thresholds are the limits a snapshot is checked against.
type Thresholds struct {
	CPUPercent      float64
	RAMPercent      float64
	GPUTempC        float64
	DiskFreePercent float64
	NetworkMbps     float64
	Uptime          time.Duration
}

// ThresholdEvaluator turns snapshots into alerts. An alert is raised when a
// limit is first breached and the kind is re-armed once the reading is back
// within limits, so a sustained breach produces a single alert.
type ThresholdEvaluator struct {
	limits Thresholds

	mu     sync.Mutex
	active map[models.AlertKind]bool
}

// NewThresholdEvaluator creates an evaluator with every kind armed.
func NewThresholdEvaluator(limits Thresholds) *ThresholdEvaluator {
	return &ThresholdEvaluator{
		limits: limits,
		active: make(map[models.AlertKind]bool),
	}
}

// Limits returns the configured thresholds.
func (e *ThresholdEvaluator) Limits() Thresholds {
	return e.limits
}

// Evaluate checks every category present in snap. Missing categories leave
// their trigger state untouched.
func (e *ThresholdEvaluator) Evaluate(snap models.Snapshot) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var alerts []models.Alert
	check := func(kind models.AlertKind, breached bool, message func() string) {
		if !breached {
			e.active[kind] = false
			return
		}
		if e.active[kind] {
			return
		}
		e.active[kind] = true
		alerts = append(alerts, models.Alert{Kind: kind, Message: message(), Timestamp: snap.Timestamp})
	}

	l := e.limits
	if snap.CPU != nil {
		v := snap.CPU.UsagePercent
		check(models.AlertCPU, v > l.CPUPercent, func() string {
			return fmt.Sprintf("CPU usage exceeded %g%%: %.1f%%", l.CPUPercent, v)
		})
	}
	if snap.Memory != nil {
		v := snap.Memory.UsagePercent
		check(models.AlertRAM, v > l.RAMPercent, func() string {
			return fmt.Sprintf("RAM usage exceeded %g%%: %.1f%%", l.RAMPercent, v)
		})
	}
	if snap.GPU != nil {
		v := snap.GPU.TemperatureC
		check(models.AlertGPUTemp, v > l.GPUTempC, func() string {
			return fmt.Sprintf("GPU temperature exceeded %g°C: %.1f°C", l.GPUTempC, v)
		})
	}
	if snap.Disk != nil {
		free := snap.Disk.FreePercent()
		check(models.AlertDiskFree, free < l.DiskFreePercent, func() string {
			return fmt.Sprintf("Free disk space is below %g%%: %.1f%%", l.DiskFreePercent, free)
		})
	}
	if snap.Network != nil {
		down, up := snap.Network.DownloadMbps, snap.Network.UploadMbps
		check(models.AlertNetwork, down > l.NetworkMbps || up > l.NetworkMbps, func() string {
			return fmt.Sprintf("Unusual network activity: Download %.1f Mbps, Upload %.1f Mbps", down, up)
		})
	}
	if snap.Uptime != nil && l.Uptime > 0 {
		u := snap.Uptime
		check(models.AlertUptime, time.Duration(u.Seconds)*time.Second > l.Uptime, func() string {
			return fmt.Sprintf("System running for over %d days: %dd %dh %dm",
				int(l.Uptime/(24*time.Hour)), u.Days, u.Hours, u.Minutes)
		})
	}

	return alerts
}

// AlertLog is the append-only record of raised alerts.
type AlertLog struct {
	mu     sync.RWMutex
	alerts []models.Alert
}

// NewAlertLog creates an empty log.
func NewAlertLog() *AlertLog {
	return &AlertLog{}
}

// Append records alerts in order.
func (l *AlertLog) Append(alerts ...models.Alert) {
	if len(alerts) == 0 {
		return
	}
	l.mu.Lock()
	l.alerts = append(l.alerts, alerts...)
	l.mu.Unlock()

	for _, a := range alerts {
		log.Printf("[ALERT] %s", a.Message)
	}
}

// Recent returns up to n of the newest alerts, oldest first.
func (l *AlertLog) Recent(n int) []models.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 {
		return []models.Alert{}
	}
	start := len(l.alerts) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.Alert, len(l.alerts)-start)
	copy(out, l.alerts[start:])
	return out
}

// Len returns the number of alerts recorded.
func (l *AlertLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.alerts)
}
