package services

import (
	"context"
	"errors"
	"log"
	"time"

	"hostwatch/internal/models"

	"golang.org/x/sync/errgroup"
)

// ErrUnavailable marks a reading that could not be taken: the tool is
// missing, timed out, or exited with an error.
var ErrUnavailable = errors.New("sensor unavailable")

// HostSensor reads the metrics every supported platform provides.
type HostSensor interface {
	ReadCPU(ctx context.Context) (total float64, perCore []float64, err error)
	ReadRAM(ctx context.Context) (models.MemoryStatus, error)
	ReadDiskUsage(ctx context.Context, path string) (models.DiskStatus, error)
	ReadDiskCounters(ctx context.Context) (readBytes, writeBytes uint64, err error)
	ReadNetworkCounters(ctx context.Context) (sentBytes, recvBytes uint64, err error)
	BootTime(ctx context.Context) (time.Time, error)
}

// GPUSensor reads the primary GPU.
type GPUSensor interface {
	Name(ctx context.Context) (string, error)
	ReadGPU(ctx context.Context) (models.GPUReading, error)
}

// DiskHealthSensor reads SMART temperature and health for a block device.
type DiskHealthSensor interface {
	ReadDiskHealth(ctx context.Context, device string) (models.DiskHealth, error)
}

// Capability is an optional adapter resolved once at startup: either
// Available with an adapter, or Unavailable with the reason.
type Capability[T any] struct {
	adapter T
	ok      bool
	reason  string
}

// Available wraps a usable adapter.
func Available[T any](adapter T) Capability[T] {
	return Capability[T]{adapter: adapter, ok: true}
}

// Unavailable records why an adapter cannot be used.
func Unavailable[T any](reason string) Capability[T] {
	return Capability[T]{reason: reason}
}

// Get returns the adapter and whether it is available.
func (c Capability[T]) Get() (T, bool) {
	return c.adapter, c.ok
}

// Available reports whether the adapter can be used.
func (c Capability[T]) Available() bool {
	return c.ok
}

// Reason explains why the adapter is unavailable.
func (c Capability[T]) Reason() string {
	return c.reason
}

// SensorSet is the full set of adapters the collector polls.
type SensorSet struct {
	Host       HostSensor
	GPU        Capability[GPUSensor]
	DiskHealth Capability[DiskHealthSensor]
}

// ResolveOptions controls which optional adapters are probed.
type ResolveOptions struct {
	Host       HostSensor
	GPU        GPUSensor // nil or disabled -> Unavailable
	DiskHealth DiskHealthSensor
	DiskDevice string
	Timeout    time.Duration
}

// ResolveSensors probes the optional adapters once and caches the outcome.
// A probe failure makes the capability permanently unavailable for this
// process; it is never retried per cycle.
func ResolveSensors(ctx context.Context, opts ResolveOptions) SensorSet {
	set := SensorSet{
		Host:       opts.Host,
		GPU:        Unavailable[GPUSensor]("disabled"),
		DiskHealth: Unavailable[DiskHealthSensor]("disabled"),
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = SmartTimeout
	}

	var g errgroup.Group
	if opts.GPU != nil {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if _, err := opts.GPU.ReadGPU(probeCtx); err != nil {
				set.GPU = Unavailable[GPUSensor](err.Error())
				return nil
			}
			set.GPU = Available(opts.GPU)
			return nil
		})
	}
	if opts.DiskHealth != nil {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if _, err := opts.DiskHealth.ReadDiskHealth(probeCtx, opts.DiskDevice); err != nil {
				set.DiskHealth = Unavailable[DiskHealthSensor](err.Error())
				return nil
			}
			set.DiskHealth = Available(opts.DiskHealth)
			return nil
		})
	}
	_ = g.Wait()

	logCapability("GPU", set.GPU.Available(), set.GPU.Reason())
	logCapability("disk health", set.DiskHealth.Available(), set.DiskHealth.Reason())
	return set
}

func logCapability(name string, ok bool, reason string) {
	if ok {
		log.Printf("[SENSOR] %s sensor available", name)
		return
	}
	log.Printf("[SENSOR] %s sensor unavailable: %s", name, reason)
}
