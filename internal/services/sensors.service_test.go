package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hostwatch/internal/models"

	"github.com/google/go-cmp/cmp"
)

func TestResolveSensors_AvailableAdapters(t *testing.T) {
	gpu := &fakeGPU{temps: []float64{50}}
	health := &fakeHealth{health: models.DiskHealth{Temperature: "35°C", Health: "OK"}}

	set := ResolveSensors(context.Background(), ResolveOptions{
		Host:       newFakeHost(),
		GPU:        gpu,
		DiskHealth: health,
		DiskDevice: "/dev/sda",
		Timeout:    time.Second,
	})

	if _, ok := set.GPU.Get(); !ok {
		t.Errorf("expected GPU available, reason=%q", set.GPU.Reason())
	}
	if _, ok := set.DiskHealth.Get(); !ok {
		t.Errorf("expected disk health available, reason=%q", set.DiskHealth.Reason())
	}
}

func TestResolveSensors_ProbeFailureIsPermanent(t *testing.T) {
	gpu := &fakeGPU{err: errors.New("no device")}
	set := ResolveSensors(context.Background(), ResolveOptions{
		Host: newFakeHost(),
		GPU:  gpu,
	})

	if set.GPU.Available() {
		t.Fatal("expected GPU unavailable after failed probe")
	}
	if set.GPU.Reason() != "no device" {
		t.Errorf("unexpected reason %q", set.GPU.Reason())
	}
	if set.DiskHealth.Available() || set.DiskHealth.Reason() != "disabled" {
		t.Errorf("expected disk health disabled, got %+v", set.DiskHealth)
	}
}

func TestParseSmartTemperature(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{
			name: "nvme",
			out:  "SMART/Health Information (NVMe Log 0x02)\nCritical Warning: 0x00\nTemperature: 38 Celsius\n",
			want: "38°C",
		},
		{
			name: "ata attribute 194",
			out:  "ID# ATTRIBUTE_NAME FLAG VALUE WORST THRESH TYPE UPDATED WHEN_FAILED RAW_VALUE\n194 Temperature_Celsius 0x0022 064 052 000 Old_age Always - 36\n",
			want: "36°C",
		},
		{
			name: "missing",
			out:  "nothing useful here\n",
			want: "N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSmartTemperature([]byte(tt.out)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSmartctlSensor_ReadDiskHealth(t *testing.T) {
	var calls [][]string
	s := &SmartctlSensor{
		path: "smartctl",
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			calls = append(calls, args)
			if args[0] == "-A" {
				return []byte("Temperature: 41 Celsius\n"), nil
			}
			return []byte("SMART overall-health self-assessment test result: PASSED\n"), nil
		},
	}

	got, err := s.ReadDiskHealth(context.Background(), "/dev/nvme0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(models.DiskHealth{Temperature: "41°C", Health: "OK"}, got); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{{"-A", "/dev/nvme0"}, {"-H", "/dev/nvme0"}}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("smartctl invocations mismatch (-want +got):\n%s", diff)
	}
}

func TestSmartctlSensor_FailureIsUnavailable(t *testing.T) {
	s := &SmartctlSensor{
		path: "smartctl",
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, ErrUnavailable
		},
	}

	got, err := s.ReadDiskHealth(context.Background(), "/dev/sda")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got != models.UnknownDiskHealth {
		t.Errorf("expected N/A labels, got %+v", got)
	}
}

func TestSmartctlSensor_FailedVerdictIsWarning(t *testing.T) {
	if got := parseSmartHealth([]byte("test result: FAILED!")); got != "Warning" {
		t.Errorf("expected Warning, got %q", got)
	}
}

func TestRunCommand_TimeoutIsUnavailable(t *testing.T) {
	run := runCommand(50 * time.Millisecond)
	start := time.Now()
	_, err := run(context.Background(), "sleep", "5")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout was not applied")
	}
}

func TestRunCommand_NonZeroExitIsUnavailable(t *testing.T) {
	_, err := runCommand(time.Second)(context.Background(), "false")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestParseNvidiaReading(t *testing.T) {
	got, err := parseNvidiaReading([]byte("37, 1024, 8192, 61\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.GPUReading{UsagePercent: 37, MemoryUsedMB: 1024, MemoryTotalMB: 8192, TemperatureC: 61}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reading mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNvidiaReading_Malformed(t *testing.T) {
	for _, out := range []string{"", "37, 1024\n", "[N/A], 1, 2, 3\n"} {
		if _, err := parseNvidiaReading([]byte(out)); !errors.Is(err, ErrUnavailable) {
			t.Errorf("%q: expected ErrUnavailable, got %v", out, err)
		}
	}
}

func TestNvidiaSMISensor_Name(t *testing.T) {
	s := &NvidiaSMISensor{
		path: "nvidia-smi",
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("NVIDIA GeForce RTX 3060, 12288\n"), nil
		},
	}
	got, err := s.Name(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "NVIDIA GeForce RTX 3060 (12288.0 MB)" {
		t.Errorf("unexpected name %q", got)
	}
}
