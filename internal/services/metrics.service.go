package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hostwatch/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// PsutilHost implements HostSensor with gopsutil.
type PsutilHost struct{}

// NewPsutilHost returns the gopsutil-backed host sensor.
func NewPsutilHost() *PsutilHost {
	return &PsutilHost{}
}

// ReadCPU returns aggregate and per-core CPU usage since the previous call.
func (PsutilHost) ReadCPU(ctx context.Context) (float64, []float64, error) {
	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, nil, err
	}
	if len(total) == 0 {
		return 0, nil, fmt.Errorf("no aggregate CPU reading")
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return 0, nil, err
	}

	return total[0], perCore, nil
}

// ReadRAM returns memory usage information
func (PsutilHost) ReadRAM(ctx context.Context) (models.MemoryStatus, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.MemoryStatus{}, err
	}

	return models.MemoryStatus{
		UsagePercent: vm.UsedPercent,
		UsedBytes:    vm.Used,
		TotalBytes:   vm.Total,
		FreeBytes:    vm.Free,
	}, nil
}

// ReadDiskUsage returns disk usage for a specific path
func (PsutilHost) ReadDiskUsage(ctx context.Context, path string) (models.DiskStatus, error) {
	if path == "" {
		path = "/"
	}

	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return models.DiskStatus{}, err
	}

	return models.DiskStatus{
		Path:         path,
		TotalBytes:   usage.Total,
		UsedBytes:    usage.Used,
		FreeBytes:    usage.Free,
		UsagePercent: usage.UsedPercent,
		Filesystem:   usage.Fstype,
	}, nil
}

// ReadDiskCounters returns cumulative bytes read and written across whole
// storage devices. Partitions and virtual block devices are skipped so the
// same IO is not counted twice.
func (PsutilHost) ReadDiskCounters(ctx context.Context) (uint64, uint64, error) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}

	var read, write uint64
	for _, name := range wholeDisks(names) {
		read += counters[name].ReadBytes
		write += counters[name].WriteBytes
	}
	return read, write, nil
}

// Loop, ramdisk, device-mapper and md devices sit on top of real disks.
var virtualDiskPrefixes = []string{"loop", "ram", "zram", "dm-", "md", "nbd"}

// wholeDisks filters device names down to physical disks.
func wholeDisks(names []string) []string {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	var out []string
	for _, n := range names {
		if isVirtualDisk(n) || isPartition(n, present) {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func isVirtualDisk(name string) bool {
	for _, prefix := range virtualDiskPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// isPartition reports whether name is a numbered child of another listed
// device: sda1 under sda, nvme0n1p2 under nvme0n1, mmcblk0p1 under mmcblk0.
func isPartition(name string, present map[string]bool) bool {
	for i := len(name) - 1; i > 0; i-- {
		if name[i] < '0' || name[i] > '9' {
			if i == len(name)-1 {
				return false
			}
			parent := name[:i+1]
			if name[i] == 'p' && present[name[:i]] {
				return true
			}
			return present[parent]
		}
	}
	return false
}

// ReadNetworkCounters returns total bytes sent/received across all interfaces
func (PsutilHost) ReadNetworkCounters(ctx context.Context) (uint64, uint64, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return 0, 0, err
	}

	var totalSent, totalRecv uint64
	for _, counter := range counters {
		totalSent += counter.BytesSent
		totalRecv += counter.BytesRecv
	}
	return totalSent, totalRecv, nil
}

// BootTime returns when the host last booted.
func (PsutilHost) BootTime(ctx context.Context) (time.Time, error) {
	secs, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(secs), 0), nil
}
