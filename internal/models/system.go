package models

import "time"

// UptimeStatus is the time since boot, also broken into days/hours/minutes.
type UptimeStatus struct {
	Seconds int64 `json:"seconds"`
	Days    int   `json:"days"`
	Hours   int   `json:"hours"`
	Minutes int   `json:"minutes"`
}

// NewUptimeStatus decomposes a duration since boot.
func NewUptimeStatus(d time.Duration) UptimeStatus {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	rem := secs % 86400
	return UptimeStatus{
		Seconds: secs,
		Days:    int(days),
		Hours:   int(rem / 3600),
		Minutes: int(rem % 3600 / 60),
	}
}

// SystemInfo is the static description of the host.
type SystemInfo struct {
	CPUModel     string    `json:"cpu_model"`
	CPUFrequency string    `json:"cpu_frequency"`
	RAMTotalGB   float64   `json:"ram_total_gb"`
	GPU          string    `json:"gpu"`
	OS           string    `json:"os"`
	LastBoot     time.Time `json:"last_boot"`
}
