package models

import "time"

// Snapshot is one complete cross-metric reading produced by a collection
// cycle. Nil fields mean the category could not be sampled this cycle.
type Snapshot struct {
	Sequence   uint64         `json:"sequence"`
	Timestamp  time.Time      `json:"timestamp"`
	CPU        *CPUStatus     `json:"cpu"`
	Memory     *MemoryStatus  `json:"memory"`
	GPU        *GPUStatus     `json:"gpu"`
	Disk       *DiskStatus    `json:"disk"`
	DiskHealth DiskHealth     `json:"disk_health"`
	DiskIO     *DiskIOStatus  `json:"disk_io"`
	Network    *NetworkStatus `json:"network"`
	Uptime     *UptimeStatus  `json:"uptime"`
}
