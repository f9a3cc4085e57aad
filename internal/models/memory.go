package models

// GB is the byte count of one gibibyte, used for display conversions.
const GB = 1024 * 1024 * 1024

// MemoryStatus represents RAM usage information
type MemoryStatus struct {
	UsagePercent float64 `json:"usage_percent"`
	UsedBytes    uint64  `json:"used_bytes"`
	TotalBytes   uint64  `json:"total_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
}

func (m MemoryStatus) UsedGB() float64  { return float64(m.UsedBytes) / GB }
func (m MemoryStatus) TotalGB() float64 { return float64(m.TotalBytes) / GB }
func (m MemoryStatus) FreeGB() float64  { return float64(m.FreeBytes) / GB }
