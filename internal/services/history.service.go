package services

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"hostwatch/internal/models"
)

// DefaultMaxHistory is the number of points kept per series unless configured.
const DefaultMaxHistory = 60

// ErrUnknownSeries is returned when a series has never been written.
var ErrUnknownSeries = errors.New("unknown series")

// series is one bounded sequence. The slice behind values is never modified
// after it is published, so readers can use it without holding a lock.
type series struct {
	values atomic.Pointer[[]float64]
}

func (s *series) load() []float64 {
	if p := s.values.Load(); p != nil {
		return *p
	}
	return nil
}

// HistoryStore manages the bounded time series, one per tracked sub-metric.
// The collection loop is the only writer; any number of readers may call
// Read concurrently with Append.
type HistoryStore struct {
	mu       sync.RWMutex
	series   map[models.SeriesID]*series
	capacity int
}

// NewHistoryStore creates a store keeping at most capacity points per series.
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = DefaultMaxHistory
	}
	return &HistoryStore{
		series:   make(map[models.SeriesID]*series),
		capacity: capacity,
	}
}

// Capacity returns the per-series bound.
func (hs *HistoryStore) Capacity() int {
	return hs.capacity
}

func (hs *HistoryStore) get(id models.SeriesID) *series {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return hs.series[id]
}

func (hs *HistoryStore) getOrCreate(id models.SeriesID) *series {
	if s := hs.get(id); s != nil {
		return s
	}
	hs.mu.Lock()
	defer hs.mu.Unlock()
	s, ok := hs.series[id]
	if !ok {
		s = &series{}
		hs.series[id] = s
	}
	return s
}

// Append adds a value to the end of a series, evicting from the front once
// the series is at capacity. The new contents are published atomically.
func (hs *HistoryStore) Append(id models.SeriesID, value float64) {
	s := hs.getOrCreate(id)
	current := s.load()

	start := 0
	if len(current)+1 > hs.capacity {
		start = len(current) + 1 - hs.capacity
	}
	next := make([]float64, 0, len(current)-start+1)
	next = append(next, current[start:]...)
	next = append(next, value)
	s.values.Store(&next)
}

// Read returns a copy of a series, oldest first. An unknown series is empty.
func (hs *HistoryStore) Read(id models.SeriesID) []float64 {
	return hs.ReadWindow(id, hs.capacity)
}

// ReadWindow returns a copy of the last maxPoints values of a series, or the
// whole series when it is shorter. maxPoints <= 0 yields an empty slice.
func (hs *HistoryStore) ReadWindow(id models.SeriesID, maxPoints int) []float64 {
	s := hs.get(id)
	if s == nil || maxPoints <= 0 {
		return []float64{}
	}
	values := s.load()
	if maxPoints < len(values) {
		values = values[len(values)-maxPoints:]
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out
}

// Len returns the number of points currently held by a series.
func (hs *HistoryStore) Len(id models.SeriesID) int {
	s := hs.get(id)
	if s == nil {
		return 0
	}
	return len(s.load())
}

// Has reports whether a series has ever been written.
func (hs *HistoryStore) Has(id models.SeriesID) bool {
	return hs.get(id) != nil
}

// IDs lists every known series in a stable order.
func (hs *HistoryStore) IDs() []models.SeriesID {
	hs.mu.RLock()
	ids := make([]models.SeriesID, 0, len(hs.series))
	for id := range hs.series {
		ids = append(ids, id)
	}
	hs.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CoreCount returns how many per-core CPU series exist.
func (hs *HistoryStore) CoreCount() int {
	n := 0
	for hs.Has(models.CPUCoreSeries(n)) {
		n++
	}
	return n
}

// Series returns a series with its capacity for API consumers.
func (hs *HistoryStore) Series(id models.SeriesID) (models.SeriesData, error) {
	if !hs.Has(id) {
		return models.SeriesData{}, ErrUnknownSeries
	}
	return models.SeriesData{ID: id, Capacity: hs.capacity, Values: hs.Read(id)}, nil
}

// WindowPoints converts a time window into the number of samples it covers
// at a fixed sampling interval, rounding down. The result is never negative.
func WindowPoints(window, interval time.Duration) int {
	if window <= 0 || interval <= 0 {
		return 0
	}
	return int(window / interval)
}
