package services

import (
	"log"
	"sync"
	"sync/atomic"

	"hostwatch/internal/models"
)

// SnapshotHandler receives completed snapshots.
type SnapshotHandler func(models.Snapshot)

// SnapshotPublisher hands snapshots from the collection loop to a single
// consumer. With a queue the consumer runs on the publisher's own goroutine
// and never on the loop's; with queueSize 0 delivery is synchronous.
// The latest snapshot is also kept in a single slot for polling readers.
type SnapshotPublisher struct {
	mu      sync.RWMutex
	handler SnapshotHandler
	queue   chan models.Snapshot
	latest  atomic.Pointer[models.Snapshot]
	dropped atomic.Uint64
	closed  bool
	sendMu  sync.Mutex
	drained chan struct{}
}

// NewSnapshotPublisher creates a publisher. queueSize 0 delivers on the
// caller's goroutine; otherwise a bounded queue is drained by a consumer
// goroutine started here.
func NewSnapshotPublisher(queueSize int) *SnapshotPublisher {
	p := &SnapshotPublisher{drained: make(chan struct{})}
	if queueSize <= 0 {
		close(p.drained)
		return p
	}
	p.queue = make(chan models.Snapshot, queueSize)
	go p.run()
	return p
}

// OnSnapshot registers the consumer, replacing any previous one.
func (p *SnapshotPublisher) OnSnapshot(handler SnapshotHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = handler
}

// Publish stores snap as the latest snapshot and delivers it. When the queue
// is full the oldest queued snapshot is discarded to make room.
func (p *SnapshotPublisher) Publish(snap models.Snapshot) {
	p.latest.Store(&snap)

	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if p.closed {
		return
	}
	if p.queue == nil {
		p.deliver(snap)
		return
	}
	for {
		select {
		case p.queue <- snap:
			return
		default:
		}
		select {
		case old := <-p.queue:
			p.dropped.Add(1)
			log.Printf("[PUBLISHER] Consumer is behind, dropped snapshot #%d", old.Sequence)
		default:
		}
	}
}

// Latest returns the most recent snapshot, if any.
func (p *SnapshotPublisher) Latest() (models.Snapshot, bool) {
	snap := p.latest.Load()
	if snap == nil {
		return models.Snapshot{}, false
	}
	return *snap, true
}

// Dropped returns how many snapshots were discarded because the queue was full.
func (p *SnapshotPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close stops accepting snapshots, delivers what is still queued and waits
// for the consumer goroutine to finish.
func (p *SnapshotPublisher) Close() {
	p.sendMu.Lock()
	if !p.closed {
		p.closed = true
		if p.queue != nil {
			close(p.queue)
		}
	}
	p.sendMu.Unlock()
	<-p.drained
}

func (p *SnapshotPublisher) run() {
	defer close(p.drained)
	for snap := range p.queue {
		p.deliver(snap)
	}
}

func (p *SnapshotPublisher) deliver(snap models.Snapshot) {
	p.mu.RLock()
	handler := p.handler
	p.mu.RUnlock()
	if handler == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PUBLISHER] Consumer panicked on snapshot #%d: %v", snap.Sequence, r)
		}
	}()
	handler(snap)
}
