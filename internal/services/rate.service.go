package services

import (
	"sync"
	"time"
)

// Unit scales applied to a bytes-per-second delta.
const (
	// ScaleMegabytes converts bytes/s to MB/s.
	ScaleMegabytes = 1.0 / (1024 * 1024)
	// ScaleMegabits converts bytes/s to Mb/s.
	ScaleMegabits = 8.0 / (1024 * 1024)
)

// Counter channels tracked by the collector.
const (
	ChannelDiskRead  = "disk_read"
	ChannelDiskWrite = "disk_write"
	ChannelNetRecv   = "net_recv"
	ChannelNetSent   = "net_sent"
)

// Rate converts two readings of a monotonic byte counter into a scaled
// per-second rate. A decreasing counter (reset or wrap) yields 0.
func Rate(previous, current uint64, elapsedSeconds, scale float64) float64 {
	if current < previous || elapsedSeconds <= 0 {
		return 0
	}
	return float64(current-previous) / elapsedSeconds * scale
}

// CounterState is the last observed value of one cumulative counter.
type CounterState struct {
	Value uint64
	At    time.Time
}

// RateConverter keeps the last counter reading per channel.
type RateConverter struct {
	mu    sync.Mutex
	state map[string]CounterState
}

// NewRateConverter creates an empty converter.
func NewRateConverter() *RateConverter {
	return &RateConverter{state: make(map[string]CounterState)}
}

// Observe records a counter reading and returns the scaled rate since the
// previous reading on the same channel. The first reading on a channel only
// primes the state and returns 0. The stored state is replaced on every call
// so each interval is computed from the immediately preceding reading.
func (rc *RateConverter) Observe(channel string, value uint64, at time.Time, scale float64) float64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	prev, seen := rc.state[channel]
	rc.state[channel] = CounterState{Value: value, At: at}
	if !seen {
		return 0
	}
	return Rate(prev.Value, value, at.Sub(prev.At).Seconds(), scale)
}

// State returns the last reading stored for a channel.
func (rc *RateConverter) State(channel string) (CounterState, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	s, ok := rc.state[channel]
	return s, ok
}
