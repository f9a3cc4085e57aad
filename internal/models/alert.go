package models

import "time"

// AlertKind identifies which threshold was breached.
type AlertKind string

const (
	AlertCPU      AlertKind = "cpu"
	AlertRAM      AlertKind = "ram"
	AlertGPUTemp  AlertKind = "gpu_temp"
	AlertDiskFree AlertKind = "disk_free"
	AlertNetwork  AlertKind = "network"
	AlertUptime   AlertKind = "uptime"
)

// Alert is a timestamped record of a threshold breach. Never mutated.
type Alert struct {
	Kind      AlertKind `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (a Alert) String() string {
	return a.Timestamp.Format("2006-01-02 15:04:05") + ": " + a.Message
}
