package models

// NetworkStatus holds network throughput derived from cumulative counters.
type NetworkStatus struct {
	DownloadMbps float64 `json:"download_mbps"`
	UploadMbps   float64 `json:"upload_mbps"`
}
