package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"hostwatch/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultSystemInfoTTL is how long static host information is cached.
const DefaultSystemInfoTTL = 30 * time.Second

// SystemInfoReader reads the static description of the host.
type SystemInfoReader interface {
	ReadSystemInfo(ctx context.Context) (models.SystemInfo, error)
}

// PsutilSystemInfo reads host information through gopsutil and the GPU
// adapter, when one is available.
type PsutilSystemInfo struct {
	GPU Capability[GPUSensor]
}

// ReadSystemInfo collects CPU model, RAM size, GPU name, OS and boot time.
// Missing parts are reported as "N/A" rather than failing the whole read.
func (r PsutilSystemInfo) ReadSystemInfo(ctx context.Context) (models.SystemInfo, error) {
	info := models.SystemInfo{
		CPUModel:     models.NotAvailable,
		CPUFrequency: models.NotAvailable,
		GPU:          models.NotAvailable,
		OS:           models.NotAvailable,
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		if name := strings.TrimSpace(cpus[0].ModelName); name != "" {
			info.CPUModel = name
		}
		if cpus[0].Mhz > 0 {
			info.CPUFrequency = fmt.Sprintf("%.2f MHz", cpus[0].Mhz)
		}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return info, fmt.Errorf("read memory size: %w", err)
	}
	info.RAMTotalGB = float64(vm.Total) / models.GB

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.OS = formatOS(h)
		info.LastBoot = time.Unix(int64(h.BootTime), 0)
	}

	if gpu, ok := r.GPU.Get(); ok {
		if name, err := gpu.Name(ctx); err == nil && name != "" {
			info.GPU = name
		}
	}

	return info, nil
}

func formatOS(h *host.InfoStat) string {
	name := h.Platform
	if name == "" {
		name = h.OS
	}
	parts := []string{name}
	if h.PlatformVersion != "" {
		parts = append(parts, h.PlatformVersion)
	}
	if h.KernelVersion != "" {
		parts = append(parts, h.KernelVersion)
	}
	s := strings.Join(parts, " ")
	if h.KernelArch != "" {
		s += " (" + h.KernelArch + ")"
	}
	return s
}

// SystemInfoCache holds system information with a TTL and records every
// distinct boot time it has seen.
type SystemInfoCache struct {
	reader SystemInfoReader
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	info      models.SystemInfo
	cacheTime time.Time
	valid     bool
	reboots   []time.Time
}

// NewSystemInfoCache wraps reader; ttl <= 0 uses DefaultSystemInfoTTL.
func NewSystemInfoCache(reader SystemInfoReader, ttl time.Duration) *SystemInfoCache {
	if ttl <= 0 {
		ttl = DefaultSystemInfoTTL
	}
	return &SystemInfoCache{reader: reader, ttl: ttl, now: time.Now}
}

func (c *SystemInfoCache) isCacheValid() bool {
	return c.valid && c.now().Sub(c.cacheTime) < c.ttl
}

// Get returns cached information if still valid, otherwise fetches fresh.
// When a refresh fails the stale value is returned with the error.
func (c *SystemInfoCache) Get(ctx context.Context) (models.SystemInfo, error) {
	c.mu.RLock()
	if c.isCacheValid() {
		defer c.mu.RUnlock()
		return c.info, nil
	}
	c.mu.RUnlock()

	info, err := c.reader.ReadSystemInfo(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.valid {
			return c.info, err
		}
		return info, err
	}
	c.info = info
	c.cacheTime = c.now()
	c.valid = true
	if !info.LastBoot.IsZero() {
		if n := len(c.reboots); n == 0 || !c.reboots[n-1].Equal(info.LastBoot) {
			c.reboots = append(c.reboots, info.LastBoot)
		}
	}
	return info, nil
}

// RebootHistory returns the boot times observed, oldest first.
func (c *SystemInfoCache) RebootHistory() []time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]time.Time, len(c.reboots))
	copy(out, c.reboots)
	return out
}

// Clear drops the cached value so the next Get fetches fresh data.
func (c *SystemInfoCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}
