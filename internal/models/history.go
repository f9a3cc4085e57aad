package models

import "fmt"

// SeriesID names one bounded history series.
type SeriesID string

const (
	SeriesRAM       SeriesID = "ram"
	SeriesGPUUsage  SeriesID = "gpu_usage"
	SeriesGPUMemory SeriesID = "gpu_memory"
	SeriesGPUTemp   SeriesID = "gpu_temp"
	SeriesDiskRead  SeriesID = "disk_read"
	SeriesDiskWrite SeriesID = "disk_write"
	SeriesNetDown   SeriesID = "net_down"
	SeriesNetUp     SeriesID = "net_up"
)

// CPUCoreSeries returns the series id for one logical core.
func CPUCoreSeries(core int) SeriesID {
	return SeriesID(fmt.Sprintf("cpu_core_%d", core))
}

// SeriesData is one series as returned to API consumers, oldest first.
type SeriesData struct {
	ID       SeriesID  `json:"id"`
	Capacity int       `json:"capacity"`
	Values   []float64 `json:"values"`
}
