package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hostwatch/internal/models"

	"github.com/google/go-cmp/cmp"
)

// collectN runs a collector until it has published n snapshots, then stops it.
func collectN(t *testing.T, opts CollectorOptions, n int) (*Collector, []models.Snapshot) {
	t.Helper()

	pub := NewSnapshotPublisher(0)
	opts.Publisher = pub
	if opts.Interval == 0 {
		opts.Interval = time.Millisecond
	}

	var mu sync.Mutex
	var got []models.Snapshot
	c := NewCollector(opts)
	pub.OnSnapshot(func(s models.Snapshot) {
		mu.Lock()
		got = append(got, s)
		count := len(got)
		mu.Unlock()
		if count == n {
			c.Stop()
		}
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	return c, got
}

func TestCollector_HistoryKeepsNewestValues(t *testing.T) {
	host := newFakeHost()
	host.ram = []float64{10, 20, 30, 40}

	c, snaps := collectN(t, CollectorOptions{
		Sensors: SensorSet{Host: host},
		History: NewHistoryStore(3),
	}, 4)

	if len(snaps) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(snaps))
	}
	if diff := cmp.Diff([]float64{20, 30, 40}, c.History().Read(models.SeriesRAM)); diff != "" {
		t.Errorf("ram history mismatch (-want +got):\n%s", diff)
	}
}

func TestCollector_FailedCategoryIsSkipped(t *testing.T) {
	host := newFakeHost()
	host.ram = []float64{10, 20, 30}
	host.ramFails = map[int]bool{2: true}

	c, snaps := collectN(t, CollectorOptions{
		Sensors: SensorSet{Host: host},
		History: NewHistoryStore(10),
	}, 3)

	if len(snaps) != 3 {
		t.Fatalf("expected a snapshot every cycle, got %d", len(snaps))
	}
	if snaps[1].Memory != nil {
		t.Errorf("expected no memory reading in cycle 2, got %+v", snaps[1].Memory)
	}
	if snaps[1].CPU == nil || snaps[1].Network == nil {
		t.Errorf("expected other categories in cycle 2, got %+v", snaps[1])
	}
	if diff := cmp.Diff([]float64{10, 30}, c.History().Read(models.SeriesRAM)); diff != "" {
		t.Errorf("ram history mismatch (-want +got):\n%s", diff)
	}
	if got := c.History().Len(models.CPUCoreSeries(0)); got != 3 {
		t.Errorf("expected 3 cpu points, got %d", got)
	}
}

func TestCollector_PanickingSensorDoesNotStopLoop(t *testing.T) {
	host := newFakeHost()
	host.cpuPanic = true

	c, snaps := collectN(t, CollectorOptions{Sensors: SensorSet{Host: host}}, 2)

	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	for _, s := range snaps {
		if s.CPU != nil {
			t.Errorf("expected cpu to be skipped, got %+v", s.CPU)
		}
		if s.Memory == nil {
			t.Errorf("expected memory in snapshot #%d", s.Sequence)
		}
	}
	if c.History().Has(models.CPUCoreSeries(0)) {
		t.Error("expected no cpu series after panics")
	}
}

func TestCollector_GPUExtremaWiden(t *testing.T) {
	gpu := &fakeGPU{temps: []float64{40, 70, 55, 80, 30}}

	c, snaps := collectN(t, CollectorOptions{
		Sensors: SensorSet{Host: newFakeHost(), GPU: Available[GPUSensor](gpu)},
	}, 5)

	min, max, ok := c.GPUExtrema()
	if !ok || min != 30 || max != 80 {
		t.Errorf("expected extrema 30..80, got %v..%v (ok=%v)", min, max, ok)
	}
	third := snaps[2].GPU
	if third == nil || third.TempMinC != 40 || third.TempMaxC != 70 {
		t.Errorf("expected 40..70 after three readings, got %+v", third)
	}
	if third.MemoryPercent != 25 {
		t.Errorf("expected 25%% GPU memory, got %v", third.MemoryPercent)
	}
}

func TestCollector_UnavailableCapabilitiesAreNotPolled(t *testing.T) {
	_, snaps := collectN(t, CollectorOptions{
		Sensors: SensorSet{
			Host:       newFakeHost(),
			GPU:        Unavailable[GPUSensor]("nvidia-smi not found"),
			DiskHealth: Unavailable[DiskHealthSensor]("smartctl not found"),
		},
	}, 1)

	if snaps[0].GPU != nil {
		t.Errorf("expected no GPU reading, got %+v", snaps[0].GPU)
	}
	if snaps[0].DiskHealth != models.UnknownDiskHealth {
		t.Errorf("expected N/A disk health, got %+v", snaps[0].DiskHealth)
	}
}

func TestCollector_RatesFromCounters(t *testing.T) {
	host := newFakeHost()
	host.diskIO = [][2]uint64{{0, 0}, {2 * 1048576, 1048576}}
	host.net = [][2]uint64{{0, 0}, {1048576, 4 * 1048576}}

	// Each cycle reads disk then network, so the clock advances one second
	// between consecutive reads of the same channel.
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick/4) * time.Second)
	}

	c, snaps := collectN(t, CollectorOptions{Sensors: SensorSet{Host: host}, Now: now}, 2)

	if snaps[0].DiskIO.ReadMBps != 0 || snaps[0].Network.DownloadMbps != 0 {
		t.Errorf("expected zero rates on first observation, got %+v %+v", snaps[0].DiskIO, snaps[0].Network)
	}
	if got := snaps[1].DiskIO.ReadMBps; got != 2 {
		t.Errorf("expected 2 MB/s read, got %v", got)
	}
	if got := snaps[1].Network.DownloadMbps; got != 32 {
		t.Errorf("expected 32 Mbps download, got %v", got)
	}
	if got := c.History().Len(models.SeriesNetUp); got != 2 {
		t.Errorf("expected 2 upload points, got %d", got)
	}
}

func TestCollector_StopMidCycleDeliversSnapshot(t *testing.T) {
	host := newFakeHost()
	pub := NewSnapshotPublisher(0)
	c := NewCollector(CollectorOptions{
		Sensors:   SensorSet{Host: host},
		Publisher: pub,
		Interval:  time.Hour,
	})

	var mu sync.Mutex
	var got []models.Snapshot
	pub.OnSnapshot(func(s models.Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})
	// Stop arrives after CPU was sampled but before RAM.
	host.hook = func(call int) {
		if call == 1 {
			c.Stop()
		}
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected exactly one snapshot, got %d", len(got))
	}
	s := got[0]
	if s.CPU == nil || s.Memory == nil || s.Network == nil || s.Uptime == nil {
		t.Errorf("expected a complete snapshot, got %+v", s)
	}
	if c.State() != StateStopped {
		t.Errorf("expected stopped, got %v", c.State())
	}
}

func TestCollector_Lifecycle(t *testing.T) {
	c := NewCollector(CollectorOptions{Sensors: SensorSet{Host: newFakeHost()}, Interval: time.Hour})
	if c.State() != StateNew {
		t.Fatalf("expected new, got %v", c.State())
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	cancel()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context cancel did not stop the collector")
	}

	if err := c.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped on restart, got %v", err)
	}
	c.Stop() // idempotent
}

func TestCollector_StopBeforeStart(t *testing.T) {
	c := NewCollector(CollectorOptions{Sensors: SensorSet{Host: newFakeHost()}})
	c.Stop()
	c.Wait()
	if err := c.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestCollector_UptimeDecomposed(t *testing.T) {
	host := newFakeHost()
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	host.boot = now.Add(-(26*time.Hour + 5*time.Minute))

	_, snaps := collectN(t, CollectorOptions{
		Sensors: SensorSet{Host: host},
		Now:     func() time.Time { return now },
	}, 1)

	want := &models.UptimeStatus{Seconds: (26*3600 + 5*60), Days: 1, Hours: 2, Minutes: 5}
	if diff := cmp.Diff(want, snaps[0].Uptime); diff != "" {
		t.Errorf("uptime mismatch (-want +got):\n%s", diff)
	}
}

func TestTempExtrema(t *testing.T) {
	var e TempExtrema
	if _, _, ok := e.Get(); ok {
		t.Fatal("expected no range before first reading")
	}
	for _, v := range []float64{40, 70, 55, 80, 30} {
		e.Observe(v)
	}
	min, max, _ := e.Get()
	if min != 30 || max != 80 {
		t.Errorf("expected 30..80, got %v..%v", min, max)
	}
}
