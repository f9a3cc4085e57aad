package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"hostwatch/internal/models"
)

var (
	// ErrAlreadyStarted is returned by Start on a running collector.
	ErrAlreadyStarted = errors.New("collector already started")
	// ErrStopped is returned by Start on a collector that has been stopped.
	ErrStopped = errors.New("collector stopped")
)

// State is the lifecycle position of a Collector.
type State int32

const (
	StateNew State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// TempExtrema tracks the lowest and highest temperature seen since start.
type TempExtrema struct {
	mu   sync.Mutex
	min  float64
	max  float64
	seen bool
}

// Observe widens the range to include v and returns the new range.
func (e *TempExtrema) Observe(v float64) (min, max float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.seen {
		e.min, e.max, e.seen = v, v, true
	} else {
		if v < e.min {
			e.min = v
		}
		if v > e.max {
			e.max = v
		}
	}
	return e.min, e.max
}

// Get returns the current range; ok is false before the first reading.
func (e *TempExtrema) Get() (min, max float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.min, e.max, e.seen
}

// CollectorOptions configures a Collector.
type CollectorOptions struct {
	Sensors    SensorSet
	History    *HistoryStore
	Rates      *RateConverter
	Publisher  *SnapshotPublisher
	Interval   time.Duration
	DiskPath   string
	DiskDevice string

	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// Collector is the background sampling loop. Its lifecycle is one-shot:
// New -> Running -> Stopped. A stopped collector cannot be restarted.
type Collector struct {
	sensors    SensorSet
	history    *HistoryStore
	rates      *RateConverter
	publisher  *SnapshotPublisher
	interval   time.Duration
	diskPath   string
	diskDevice string
	now        func() time.Time

	mu       sync.Mutex
	state    State
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	cycles  atomic.Uint64
	gpuTemp TempExtrema
}

// NewCollector creates a collector in the New state.
func NewCollector(opts CollectorOptions) *Collector {
	c := &Collector{
		sensors:    opts.Sensors,
		history:    opts.History,
		rates:      opts.Rates,
		publisher:  opts.Publisher,
		interval:   opts.Interval,
		diskPath:   opts.DiskPath,
		diskDevice: opts.DiskDevice,
		now:        opts.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if c.history == nil {
		c.history = NewHistoryStore(DefaultMaxHistory)
	}
	if c.rates == nil {
		c.rates = NewRateConverter()
	}
	if c.publisher == nil {
		c.publisher = NewSnapshotPublisher(0)
	}
	if c.interval <= 0 {
		c.interval = 5 * time.Second
	}
	if c.diskPath == "" {
		c.diskPath = "/"
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Start launches the collection loop. Cancelling ctx has the same effect as Stop.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrStopped
	}
	c.state = StateRunning

	go c.loop(ctx)

	log.Printf("[COLLECTOR] Started (interval: %v, history: %d points)", c.interval, c.history.Capacity())
	return nil
}

// Stop asks the loop to exit. It does not wait: the cycle in flight runs to
// completion and delivers its snapshot first. Use Wait to block until exit.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateNew {
		c.state = StateStopped
		close(c.done)
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

// Wait blocks until the loop has exited.
func (c *Collector) Wait() {
	<-c.done
}

// Done is closed once the loop has exited.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state.
func (c *Collector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cycles returns how many cycles have completed.
func (c *Collector) Cycles() uint64 {
	return c.cycles.Load()
}

// History exposes the series store for read-only consumers.
func (c *Collector) History() *HistoryStore {
	return c.history
}

// Interval returns the configured pause between cycles.
func (c *Collector) Interval() time.Duration {
	return c.interval
}

// GPUExtrema returns the GPU temperature range seen since start.
func (c *Collector) GPUExtrema() (min, max float64, ok bool) {
	return c.gpuTemp.Get()
}

// Latest returns the most recently published snapshot.
func (c *Collector) Latest() (models.Snapshot, bool) {
	return c.publisher.Latest()
}

func (c *Collector) loop(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.state = StateStopped
		c.mu.Unlock()
		close(c.done)
		log.Printf("[COLLECTOR] Stopped after %d cycles", c.cycles.Load())
	}()

	// Sensor queries are never abandoned midway; each one is bounded by its
	// own timeout instead.
	sampleCtx := context.WithoutCancel(ctx)

	for {
		c.runCycle(sampleCtx)

		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		timer := time.NewTimer(c.interval)
		select {
		case <-timer.C:
		case <-c.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// runCycle samples every category, updates history and publishes one
// complete snapshot. A failing category is logged and skipped.
func (c *Collector) runCycle(ctx context.Context) {
	seq := c.cycles.Load() + 1
	snap := models.Snapshot{
		Sequence:   seq,
		Timestamp:  c.now(),
		DiskHealth: models.UnknownDiskHealth,
	}

	c.sample(seq, "cpu", func() error {
		total, perCore, err := c.sensors.Host.ReadCPU(ctx)
		if err != nil {
			return err
		}
		for i, v := range perCore {
			c.history.Append(models.CPUCoreSeries(i), v)
		}
		snap.CPU = &models.CPUStatus{UsagePercent: total, PerCore: perCore, CoreCount: len(perCore)}
		return nil
	})

	c.sample(seq, "ram", func() error {
		ram, err := c.sensors.Host.ReadRAM(ctx)
		if err != nil {
			return err
		}
		c.history.Append(models.SeriesRAM, ram.UsagePercent)
		snap.Memory = &ram
		return nil
	})

	if gpu, ok := c.sensors.GPU.Get(); ok {
		c.sample(seq, "gpu", func() error {
			reading, err := gpu.ReadGPU(ctx)
			if err != nil {
				return err
			}
			minTemp, maxTemp := c.gpuTemp.Observe(reading.TemperatureC)
			memPercent := reading.MemoryPercent()
			c.history.Append(models.SeriesGPUUsage, reading.UsagePercent)
			c.history.Append(models.SeriesGPUMemory, memPercent)
			c.history.Append(models.SeriesGPUTemp, reading.TemperatureC)
			snap.GPU = &models.GPUStatus{
				GPUReading:    reading,
				MemoryPercent: memPercent,
				TempMinC:      minTemp,
				TempMaxC:      maxTemp,
			}
			return nil
		})
	}

	c.sample(seq, "disk usage", func() error {
		usage, err := c.sensors.Host.ReadDiskUsage(ctx, c.diskPath)
		if err != nil {
			return err
		}
		snap.Disk = &usage
		return nil
	})

	if health, ok := c.sensors.DiskHealth.Get(); ok {
		c.sample(seq, "disk health", func() error {
			h, err := health.ReadDiskHealth(ctx, c.diskDevice)
			if err != nil {
				return err
			}
			snap.DiskHealth = h
			return nil
		})
	}

	c.sample(seq, "disk io", func() error {
		read, write, err := c.sensors.Host.ReadDiskCounters(ctx)
		if err != nil {
			return err
		}
		at := c.now()
		io := models.DiskIOStatus{
			ReadMBps:  c.rates.Observe(ChannelDiskRead, read, at, ScaleMegabytes),
			WriteMBps: c.rates.Observe(ChannelDiskWrite, write, at, ScaleMegabytes),
		}
		c.history.Append(models.SeriesDiskRead, io.ReadMBps)
		c.history.Append(models.SeriesDiskWrite, io.WriteMBps)
		snap.DiskIO = &io
		return nil
	})

	c.sample(seq, "network", func() error {
		sent, recv, err := c.sensors.Host.ReadNetworkCounters(ctx)
		if err != nil {
			return err
		}
		at := c.now()
		netStatus := models.NetworkStatus{
			DownloadMbps: c.rates.Observe(ChannelNetRecv, recv, at, ScaleMegabits),
			UploadMbps:   c.rates.Observe(ChannelNetSent, sent, at, ScaleMegabits),
		}
		c.history.Append(models.SeriesNetDown, netStatus.DownloadMbps)
		c.history.Append(models.SeriesNetUp, netStatus.UploadMbps)
		snap.Network = &netStatus
		return nil
	})

	c.sample(seq, "uptime", func() error {
		boot, err := c.sensors.Host.BootTime(ctx)
		if err != nil {
			return err
		}
		uptime := models.NewUptimeStatus(c.now().Sub(boot))
		snap.Uptime = &uptime
		return nil
	})

	c.cycles.Store(seq)
	c.publisher.Publish(snap)
}

// sample runs one category, converting errors and panics into a skipped
// category for this cycle.
func (c *Collector) sample(cycle uint64, category string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[COLLECTOR] Cycle %d: %s sensor panicked: %v", cycle, category, r)
			ok = false
		}
	}()

	if err := fn(); err != nil {
		log.Printf("[COLLECTOR] Cycle %d: %s sampling failed: %v", cycle, category, err)
		return false
	}
	return true
}
