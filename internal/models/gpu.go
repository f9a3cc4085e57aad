package models

// GPUReading is one raw sample from a GPU sensor.
type GPUReading struct {
	UsagePercent  float64 `json:"usage_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	TemperatureC  float64 `json:"temperature_c"`
}

// MemoryPercent returns used GPU memory as a percentage of total.
func (r GPUReading) MemoryPercent() float64 {
	if r.MemoryTotalMB <= 0 {
		return 0
	}
	return r.MemoryUsedMB / r.MemoryTotalMB * 100
}

// GPUStatus is a GPU reading plus the temperature range seen since start.
type GPUStatus struct {
	GPUReading
	MemoryPercent float64 `json:"memory_percent"`
	TempMinC      float64 `json:"temp_min_c"`
	TempMaxC      float64 `json:"temp_max_c"`
}
