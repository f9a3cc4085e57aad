package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Average is a windowed mean that may be missing when the window is empty.
type Average struct {
	Value float64
	Valid bool
}

// Format renders the average with the given verb, or "N/A".
func (a Average) Format(format string) string {
	if !a.Valid {
		return NotAvailable
	}
	return fmt.Sprintf(format, a.Value)
}

func (a Average) String() string {
	return a.Format("%.2f")
}

// MarshalJSON writes the mean, or null when missing.
func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// ReportAverages holds the windowed means of every tracked series.
type ReportAverages struct {
	CPU          Average `json:"cpu_percent"`
	RAM          Average `json:"ram_percent"`
	GPUUsage     Average `json:"gpu_usage_percent"`
	GPUMemory    Average `json:"gpu_memory_percent"`
	GPUTemp      Average `json:"gpu_temp_c"`
	DiskRead     Average `json:"disk_read_mbps"`
	DiskWrite    Average `json:"disk_write_mbps"`
	NetDownload  Average `json:"net_download_mbps"`
	NetUpload    Average `json:"net_upload_mbps"`
	WindowPoints int     `json:"window_points"`
}

// Report is the data behind an exported system report.
type Report struct {
	GeneratedAt      time.Time        `json:"generated_at"`
	WindowMinutes    int              `json:"window_minutes,omitempty"`
	System           SystemInfo       `json:"system"`
	Current          *Snapshot        `json:"current"`
	Averages         *ReportAverages  `json:"averages,omitempty"`
	TopProcesses     []ProcessStatus  `json:"top_processes"`
	NetworkProcesses []NetworkProcess `json:"network_processes"`
	RebootHistory    []time.Time      `json:"reboot_history"`
	Alerts           []Alert          `json:"alerts"`
}

// Windowed reports whether averages were requested.
func (r *Report) Windowed() bool {
	return r.WindowMinutes > 0
}
