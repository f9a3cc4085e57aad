package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"hostwatch/internal/models"

	"github.com/shirou/gopsutil/v3/process"
)

const (
	// MaxProcesses caps how many processes one refresh inspects.
	MaxProcesses = 3000
	// NetworkScanLimit is how many processes, in enumeration order, are
	// checked for open connections. Heavy network users that enumerate
	// later are not seen.
	NetworkScanLimit = 50
	// TerminateGrace is how long a terminated process has to exit before
	// it is killed.
	TerminateGrace = 500 * time.Millisecond
)

var (
	// ErrNoSuchProcess is returned when the process to terminate is gone.
	ErrNoSuchProcess = errors.New("no such process")
	// ErrAccessDenied is returned when the process may not be signalled.
	ErrAccessDenied = errors.New("access denied")
	// ErrTerminateUnsupported is returned when the process source cannot
	// end processes.
	ErrTerminateUnsupported = errors.New("process termination not supported")
)

// ProcessColumn is a sortable process table column.
type ProcessColumn string

const (
	ColumnPID           ProcessColumn = "pid"
	ColumnName          ProcessColumn = "name"
	ColumnMemoryMB      ProcessColumn = "memory_mb"
	ColumnMemoryPercent ProcessColumn = "memory_percent"
	ColumnCPUPercent    ProcessColumn = "cpu_percent"
)

// ParseProcessColumn validates a column name.
func ParseProcessColumn(s string) (ProcessColumn, error) {
	switch c := ProcessColumn(strings.ToLower(s)); c {
	case ColumnPID, ColumnName, ColumnMemoryMB, ColumnMemoryPercent, ColumnCPUPercent:
		return c, nil
	}
	return "", fmt.Errorf("unknown process column %q", s)
}

// sortOrder is a column plus direction with toggle semantics shared by the
// process tables.
type sortOrder[C ~string] struct {
	mu         sync.Mutex
	column     C
	descending bool
}

// Toggle selects a column. Selecting the current column flips the
// direction; a new column starts ascending.
func (s *sortOrder[C]) Toggle(column C) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.column == column {
		s.descending = !s.descending
		return
	}
	s.column = column
	s.descending = false
}

// Order returns the current column and direction.
func (s *sortOrder[C]) Order() (C, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.column, s.descending
}

// sortedCopy returns rows ordered by less, reversed when descending.
func sortedCopy[T any](rows []T, less func(a, b T) bool, descending bool) []T {
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// ProcessListState is the sort order of the process table.
type ProcessListState struct {
	sortOrder[ProcessColumn]
}

// NewProcessListState sorts by resident memory, largest first.
func NewProcessListState() *ProcessListState {
	return &ProcessListState{sortOrder[ProcessColumn]{column: ColumnMemoryMB, descending: true}}
}

// Apply returns a sorted copy of rows.
func (s *ProcessListState) Apply(rows []models.ProcessStatus) []models.ProcessStatus {
	column, descending := s.Order()
	return sortedCopy(rows, processLess(column), descending)
}

func processLess(column ProcessColumn) func(a, b models.ProcessStatus) bool {
	switch column {
	case ColumnPID:
		return func(a, b models.ProcessStatus) bool { return a.PID < b.PID }
	case ColumnName:
		return func(a, b models.ProcessStatus) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case ColumnMemoryPercent:
		return func(a, b models.ProcessStatus) bool { return a.MemoryPercent < b.MemoryPercent }
	case ColumnCPUPercent:
		return func(a, b models.ProcessStatus) bool { return a.CPUPercent < b.CPUPercent }
	default:
		return func(a, b models.ProcessStatus) bool { return a.MemoryMB < b.MemoryMB }
	}
}

// NetworkColumn is a sortable network process table column.
type NetworkColumn string

const (
	NetColumnPID         NetworkColumn = "pid"
	NetColumnName        NetworkColumn = "name"
	NetColumnConnections NetworkColumn = "connections"
)

// ParseNetworkColumn validates a network table column name.
func ParseNetworkColumn(s string) (NetworkColumn, error) {
	switch c := NetworkColumn(strings.ToLower(s)); c {
	case NetColumnPID, NetColumnName, NetColumnConnections:
		return c, nil
	}
	return "", fmt.Errorf("unknown network column %q", s)
}

// NetworkListState is the sort order of the network process table,
// independent of the main process table.
type NetworkListState struct {
	sortOrder[NetworkColumn]
}

// NewNetworkListState sorts by connection count, most first.
func NewNetworkListState() *NetworkListState {
	return &NetworkListState{sortOrder[NetworkColumn]{column: NetColumnConnections, descending: true}}
}

// Apply returns a sorted copy of rows.
func (s *NetworkListState) Apply(rows []models.NetworkProcess) []models.NetworkProcess {
	column, descending := s.Order()
	var less func(a, b models.NetworkProcess) bool
	switch column {
	case NetColumnPID:
		less = func(a, b models.NetworkProcess) bool { return a.PID < b.PID }
	case NetColumnName:
		less = func(a, b models.NetworkProcess) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	default:
		less = func(a, b models.NetworkProcess) bool { return a.Connections < b.Connections }
	}
	return sortedCopy(rows, less, descending)
}

// ProcessSource enumerates processes.
type ProcessSource interface {
	Processes(ctx context.Context, max int) (rows []models.ProcessStatus, total int, err error)
	NetworkProcesses(ctx context.Context, scan int) ([]models.NetworkProcess, error)
}

// ProcessTerminator is implemented by sources that can end a process.
type ProcessTerminator interface {
	Terminate(ctx context.Context, pid int32, grace time.Duration) error
}

// PsutilProcesses reads processes through gopsutil. Handles are kept
// between refreshes so CPU usage covers the time since the previous
// refresh rather than the whole process lifetime.
type PsutilProcesses struct {
	mu      sync.Mutex
	handles map[int32]*process.Process
}

// NewPsutilProcesses creates a gopsutil process source.
func NewPsutilProcesses() *PsutilProcesses {
	return &PsutilProcesses{handles: make(map[int32]*process.Process)}
}

// handle returns the handle from the previous refresh when p is the same
// process, so its CPU time baseline survives. A reused pid gets a new one.
func (s *PsutilProcesses) handle(ctx context.Context, p *process.Process) *process.Process {
	prev, ok := s.handles[p.Pid]
	if !ok {
		return p
	}
	prevStart, err1 := prev.CreateTimeWithContext(ctx)
	start, err2 := p.CreateTimeWithContext(ctx)
	if err1 != nil || err2 != nil || prevStart != start {
		return p
	}
	return prev
}

// Processes returns up to max processes and the total process count.
// Processes that exit or deny access mid-scan are skipped. CPU usage is 0
// the first time a process is seen.
func (s *PsutilProcesses) Processes(ctx context.Context, max int) ([]models.ProcessStatus, int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list processes: %w", err)
	}
	total := len(procs)
	if max > 0 && len(procs) > max {
		procs = procs[:max]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int32]*process.Process, len(procs))
	rows := make([]models.ProcessStatus, 0, len(procs))
	for _, p := range procs {
		p = s.handle(ctx, p)
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		seen[p.Pid] = p

		row := models.ProcessStatus{PID: p.Pid, Name: name}
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
			row.MemoryMB = float64(mem.RSS) / (1024 * 1024)
		}
		if pct, err := p.MemoryPercentWithContext(ctx); err == nil {
			row.MemoryPercent = pct
		}
		if pct, err := p.PercentWithContext(ctx, 0); err == nil {
			row.CPUPercent = pct
		}
		rows = append(rows, row)
	}
	s.handles = seen
	return rows, total, nil
}

// Terminate asks pid to exit and kills it if it is still running after
// grace.
func (s *PsutilProcesses) Terminate(ctx context.Context, pid int32, grace time.Duration) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return fmt.Errorf("pid %d: %w", pid, ErrNoSuchProcess)
		}
		return fmt.Errorf("pid %d: %w", pid, err)
	}
	// IsRunning compares start times; read it while the process is alive.
	if _, err := p.CreateTimeWithContext(ctx); err != nil {
		return fmt.Errorf("pid %d: %w", pid, ErrNoSuchProcess)
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		return signalError(pid, err)
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if running, err := p.IsRunningWithContext(ctx); err == nil && !running {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	if running, err := p.IsRunningWithContext(ctx); err == nil && !running {
		return nil
	}
	if err := p.KillWithContext(ctx); err != nil {
		// It may have exited after the last check.
		if err = signalError(pid, err); errors.Is(err, ErrNoSuchProcess) {
			return nil
		}
		return err
	}
	return nil
}

// signalError maps a failed signal onto the terminate sentinels.
func signalError(pid int32, err error) error {
	switch {
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("pid %d: %w", pid, ErrAccessDenied)
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		return fmt.Errorf("pid %d: %w", pid, ErrNoSuchProcess)
	}
	return fmt.Errorf("pid %d: %w", pid, err)
}

// NetworkProcesses checks the first scan processes for open connections.
func (s *PsutilProcesses) NetworkProcesses(ctx context.Context, scan int) ([]models.NetworkProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	if scan > 0 && len(procs) > scan {
		procs = procs[:scan]
	}

	var rows []models.NetworkProcess
	for _, p := range procs {
		conns, err := p.ConnectionsWithContext(ctx)
		if err != nil || len(conns) == 0 {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		rows = append(rows, models.NetworkProcess{PID: p.Pid, Name: name, Connections: len(conns)})
	}
	return rows, nil
}

// ProcessCollector keeps a periodically refreshed process table.
type ProcessCollector struct {
	source   ProcessSource
	state    *ProcessListState
	netState *NetworkListState

	mu          sync.RWMutex
	rows        []models.ProcessStatus
	total       int
	lastUpdated time.Time
	warned      bool
}

// NewProcessCollector creates a collector; a nil source uses gopsutil and
// a nil state uses the default sort order.
func NewProcessCollector(source ProcessSource, state *ProcessListState) *ProcessCollector {
	if source == nil {
		source = NewPsutilProcesses()
	}
	if state == nil {
		state = NewProcessListState()
	}
	return &ProcessCollector{source: source, state: state, netState: NewNetworkListState()}
}

// State returns the sort state shared with the presentation layer.
func (pc *ProcessCollector) State() *ProcessListState {
	return pc.state
}

// NetworkState returns the sort state of the network process table.
func (pc *ProcessCollector) NetworkState() *NetworkListState {
	return pc.netState
}

// Run refreshes the table every interval until ctx is cancelled.
func (pc *ProcessCollector) Run(ctx context.Context, interval time.Duration) {
	log.Printf("[PROCESSES] Collector started (interval: %v)", interval)
	if err := pc.Refresh(ctx); err != nil {
		log.Printf("[PROCESSES] Refresh failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[PROCESSES] Collector stopped")
			return
		case <-ticker.C:
			if err := pc.Refresh(ctx); err != nil {
				log.Printf("[PROCESSES] Refresh failed: %v", err)
			}
		}
	}
}

// Refresh re-reads the process table. On error the previous rows are kept.
func (pc *ProcessCollector) Refresh(ctx context.Context) error {
	rows, total, err := pc.source.Processes(ctx, MaxProcesses)
	if err != nil {
		return err
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if total > MaxProcesses && !pc.warned {
		pc.warned = true
		log.Printf("[PROCESSES] %d processes running, only the first %d are listed", total, MaxProcesses)
	}
	pc.rows = rows
	pc.total = total
	pc.lastUpdated = time.Now()
	return nil
}

// Top returns up to limit rows in the current sort order. limit <= 0
// returns every row.
func (pc *ProcessCollector) Top(limit int) []models.ProcessStatus {
	pc.mu.RLock()
	rows := pc.rows
	pc.mu.RUnlock()

	sorted := pc.state.Apply(rows)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Total returns the process count seen by the last refresh.
func (pc *ProcessCollector) Total() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.total
}

// LastUpdated returns when the table was last refreshed.
func (pc *ProcessCollector) LastUpdated() time.Time {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.lastUpdated
}

// NetworkProcesses returns up to limit processes with open connections in
// the network table's sort order.
func (pc *ProcessCollector) NetworkProcesses(ctx context.Context, limit int) ([]models.NetworkProcess, error) {
	rows, err := pc.source.NetworkProcesses(ctx, NetworkScanLimit)
	if err != nil {
		return nil, err
	}
	rows = pc.netState.Apply(rows)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Terminate ends pid, killing it if it ignores the request for
// TerminateGrace, then refreshes the table.
func (pc *ProcessCollector) Terminate(ctx context.Context, pid int32) error {
	t, ok := pc.source.(ProcessTerminator)
	if !ok {
		return ErrTerminateUnsupported
	}
	if err := t.Terminate(ctx, pid, TerminateGrace); err != nil {
		return err
	}
	log.Printf("[PROCESSES] Terminated pid %d", pid)

	if err := pc.Refresh(ctx); err != nil {
		log.Printf("[PROCESSES] Refresh failed: %v", err)
	}
	return nil
}
