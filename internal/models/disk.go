package models

// NotAvailable is the label used wherever a reading could not be taken.
const NotAvailable = "N/A"

// DiskStatus represents detailed disk usage information
type DiskStatus struct {
	Path         string  `json:"path"`
	TotalBytes   uint64  `json:"total_bytes"`
	UsedBytes    uint64  `json:"used_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
	UsagePercent float64 `json:"usage_percent"`
	Filesystem   string  `json:"filesystem"`
}

// FreePercent returns the share of the volume that is still free.
func (d DiskStatus) FreePercent() float64 {
	return 100 - d.UsagePercent
}

func (d DiskStatus) UsedGB() float64  { return float64(d.UsedBytes) / GB }
func (d DiskStatus) TotalGB() float64 { return float64(d.TotalBytes) / GB }
func (d DiskStatus) FreeGB() float64  { return float64(d.FreeBytes) / GB }

// DiskHealth holds SMART labels. Both are "N/A" when unavailable.
type DiskHealth struct {
	Temperature string `json:"temperature"`
	Health      string `json:"health"`
}

// UnknownDiskHealth is reported when the health sensor is absent or failed.
var UnknownDiskHealth = DiskHealth{Temperature: NotAvailable, Health: NotAvailable}

// DiskIOStatus holds disk throughput derived from cumulative counters.
type DiskIOStatus struct {
	ReadMBps  float64 `json:"read_mbps"`
	WriteMBps float64 `json:"write_mbps"`
}
