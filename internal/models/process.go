package models

type ProcessStatus struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	MemoryMB      float64 `json:"memory_mb"`
	MemoryPercent float32 `json:"memory_percent"`
	CPUPercent    float64 `json:"cpu_percent"`
}

// NetworkProcess is a process with open network connections.
type NetworkProcess struct {
	PID         int32  `json:"pid"`
	Name        string `json:"name"`
	Connections int    `json:"connections"`
}
