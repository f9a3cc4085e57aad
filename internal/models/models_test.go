package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewUptimeStatus(t *testing.T) {
	d := 8*24*time.Hour + 1*time.Hour + 2*time.Minute + 30*time.Second
	got := NewUptimeStatus(d)

	if got.Days != 8 || got.Hours != 1 || got.Minutes != 2 {
		t.Errorf("expected 8d 1h 2m, got %dd %dh %dm", got.Days, got.Hours, got.Minutes)
	}
	if got.Seconds != int64(d/time.Second) {
		t.Errorf("expected %d seconds, got %d", int64(d/time.Second), got.Seconds)
	}
}

func TestNewUptimeStatus_NegativeClampsToZero(t *testing.T) {
	got := NewUptimeStatus(-time.Minute)
	if got != (UptimeStatus{}) {
		t.Errorf("expected zero uptime, got %+v", got)
	}
}

func TestGPUReading_MemoryPercent(t *testing.T) {
	r := GPUReading{MemoryUsedMB: 2048, MemoryTotalMB: 8192}
	if got := r.MemoryPercent(); got != 25 {
		t.Errorf("expected 25, got %v", got)
	}
	if got := (GPUReading{}).MemoryPercent(); got != 0 {
		t.Errorf("expected 0 for zero total, got %v", got)
	}
}

func TestAverage_Format(t *testing.T) {
	if got := (Average{}).Format("%.1f%%"); got != "N/A" {
		t.Errorf("expected N/A, got %q", got)
	}
	if got := (Average{Value: 12.345, Valid: true}).Format("%.1f%%"); got != "12.3%" {
		t.Errorf("expected 12.3%%, got %q", got)
	}
}

func TestAverage_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Average `json:"a"`
		B Average `json:"b"`
	}{A: Average{}, B: Average{Value: 1.5, Valid: true}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":null,"b":1.5}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestCPUCoreSeries(t *testing.T) {
	if got := CPUCoreSeries(3); got != "cpu_core_3" {
		t.Errorf("expected cpu_core_3, got %s", got)
	}
}

func TestAlertString(t *testing.T) {
	a := Alert{Message: "CPU usage exceeded 90%: 95.0%", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	if got := a.String(); got != "2024-01-02 03:04:05: CPU usage exceeded 90%: 95.0%" {
		t.Errorf("unexpected alert string: %q", got)
	}
}
