package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"hostwatch/internal/models"
)

var errSensor = errors.New("sensor glitch")

// fakeHost is a scripted HostSensor. Each read pops the next value of its
// script; the last value repeats once the script is exhausted.
type fakeHost struct {
	mu sync.Mutex

	ram      []float64
	ramFails map[int]bool // 1-based call numbers that fail
	ramCalls int

	cpuTotal float64
	cpuCores []float64
	cpuFails map[int]bool
	cpuCalls int
	cpuPanic bool

	disk     models.DiskStatus
	diskErr  error
	diskIO   [][2]uint64
	diskCall int
	net      [][2]uint64
	netCall  int
	netErr   error
	boot     time.Time
	bootErr  error

	// hook runs at the start of every RAM read, used to observe mid-cycle state.
	hook func(call int)
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		ram:      []float64{50},
		cpuTotal: 20,
		cpuCores: []float64{10, 30},
		disk:     models.DiskStatus{Path: "/", TotalBytes: 100 * models.GB, UsedBytes: 40 * models.GB, FreeBytes: 60 * models.GB, UsagePercent: 40},
		diskIO:   [][2]uint64{{0, 0}},
		net:      [][2]uint64{{0, 0}},
		boot:     time.Now().Add(-2 * time.Hour),
	}
}

func (f *fakeHost) ReadCPU(ctx context.Context) (float64, []float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cpuCalls++
	if f.cpuPanic {
		panic("cpu adapter exploded")
	}
	if f.cpuFails[f.cpuCalls] {
		return 0, nil, errSensor
	}
	cores := make([]float64, len(f.cpuCores))
	copy(cores, f.cpuCores)
	return f.cpuTotal, cores, nil
}

func (f *fakeHost) ReadRAM(ctx context.Context) (models.MemoryStatus, error) {
	f.mu.Lock()
	f.ramCalls++
	call := f.ramCalls
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ramFails[call] {
		return models.MemoryStatus{}, errSensor
	}
	idx := call - 1
	if idx >= len(f.ram) {
		idx = len(f.ram) - 1
	}
	return models.MemoryStatus{UsagePercent: f.ram[idx], UsedBytes: 4 * models.GB, TotalBytes: 8 * models.GB, FreeBytes: 4 * models.GB}, nil
}

func (f *fakeHost) ReadDiskUsage(ctx context.Context, path string) (models.DiskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.diskErr != nil {
		return models.DiskStatus{}, f.diskErr
	}
	d := f.disk
	d.Path = path
	return d, nil
}

func (f *fakeHost) ReadDiskCounters(ctx context.Context) (uint64, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.diskCall
	if idx >= len(f.diskIO) {
		idx = len(f.diskIO) - 1
	}
	f.diskCall++
	return f.diskIO[idx][0], f.diskIO[idx][1], nil
}

func (f *fakeHost) ReadNetworkCounters(ctx context.Context) (uint64, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.netErr != nil {
		return 0, 0, f.netErr
	}
	idx := f.netCall
	if idx >= len(f.net) {
		idx = len(f.net) - 1
	}
	f.netCall++
	return f.net[idx][0], f.net[idx][1], nil
}

func (f *fakeHost) BootTime(ctx context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boot, f.bootErr
}

// fakeGPU returns scripted temperatures.
type fakeGPU struct {
	mu    sync.Mutex
	temps []float64
	calls int
	err   error
}

func (g *fakeGPU) Name(ctx context.Context) (string, error) {
	return "Fake GPU (8192.0 MB)", nil
}

func (g *fakeGPU) ReadGPU(ctx context.Context) (models.GPUReading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return models.GPUReading{}, g.err
	}
	idx := g.calls
	if idx >= len(g.temps) {
		idx = len(g.temps) - 1
	}
	g.calls++
	return models.GPUReading{UsagePercent: 40, MemoryUsedMB: 2048, MemoryTotalMB: 8192, TemperatureC: g.temps[idx]}, nil
}

// fakeHealth returns a fixed SMART result.
type fakeHealth struct {
	health models.DiskHealth
	err    error
}

func (h *fakeHealth) ReadDiskHealth(ctx context.Context, device string) (models.DiskHealth, error) {
	if h.err != nil {
		return models.UnknownDiskHealth, h.err
	}
	return h.health, nil
}
