package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"syscall"
	"testing"
	"time"

	"hostwatch/internal/models"

	"github.com/google/go-cmp/cmp"
)

type fakeProcesses struct {
	rows     []models.ProcessStatus
	total    int
	net      []models.NetworkProcess
	err      error
	scanSeen int
}

func (f *fakeProcesses) Processes(ctx context.Context, max int) ([]models.ProcessStatus, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	total := f.total
	if total == 0 {
		total = len(f.rows)
	}
	return f.rows, total, nil
}

func (f *fakeProcesses) NetworkProcesses(ctx context.Context, scan int) ([]models.NetworkProcess, error) {
	f.scanSeen = scan
	return append([]models.NetworkProcess(nil), f.net...), nil
}

func pids(rows []models.ProcessStatus) []int32 {
	out := make([]int32, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.PID)
	}
	return out
}

var sampleProcesses = []models.ProcessStatus{
	{PID: 10, Name: "postgres", MemoryMB: 300, MemoryPercent: 3, CPUPercent: 1},
	{PID: 3, Name: "Xorg", MemoryMB: 120, MemoryPercent: 1.2, CPUPercent: 9},
	{PID: 7, Name: "chrome", MemoryMB: 900, MemoryPercent: 9, CPUPercent: 4},
}

func TestProcessListState_Toggle(t *testing.T) {
	s := NewProcessListState()
	if col, desc := s.Order(); col != ColumnMemoryMB || !desc {
		t.Fatalf("expected memory_mb descending by default, got %s desc=%v", col, desc)
	}

	s.Toggle(ColumnMemoryMB)
	if _, desc := s.Order(); desc {
		t.Error("expected same column to flip to ascending")
	}

	s.Toggle(ColumnCPUPercent)
	if col, desc := s.Order(); col != ColumnCPUPercent || desc {
		t.Errorf("expected new column ascending, got %s desc=%v", col, desc)
	}
}

func TestProcessListState_Apply(t *testing.T) {
	tests := []struct {
		name    string
		toggles []ProcessColumn
		want    []int32
	}{
		{name: "default memory descending", want: []int32{7, 10, 3}},
		{name: "pid ascending", toggles: []ProcessColumn{ColumnPID}, want: []int32{3, 7, 10}},
		{name: "pid descending", toggles: []ProcessColumn{ColumnPID, ColumnPID}, want: []int32{10, 7, 3}},
		{name: "name ignores case", toggles: []ProcessColumn{ColumnName}, want: []int32{7, 10, 3}},
		{name: "cpu ascending", toggles: []ProcessColumn{ColumnCPUPercent}, want: []int32{10, 7, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProcessListState()
			for _, c := range tt.toggles {
				s.Toggle(c)
			}
			got := s.Apply(sampleProcesses)
			if diff := cmp.Diff(tt.want, pids(got)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}

	// Input is not reordered.
	if sampleProcesses[0].PID != 10 {
		t.Error("Apply mutated its input")
	}
}

func TestParseProcessColumn(t *testing.T) {
	if c, err := ParseProcessColumn("CPU_Percent"); err != nil || c != ColumnCPUPercent {
		t.Errorf("expected cpu_percent, got %q (%v)", c, err)
	}
	if _, err := ParseProcessColumn("status"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestProcessCollector_TopAndRefresh(t *testing.T) {
	src := &fakeProcesses{rows: sampleProcesses, total: 3200}
	pc := NewProcessCollector(src, nil)

	if got := pc.Top(10); len(got) != 0 {
		t.Fatalf("expected no rows before refresh, got %d", len(got))
	}
	if err := pc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if diff := cmp.Diff([]int32{7, 10}, pids(pc.Top(2))); diff != "" {
		t.Errorf("top mismatch (-want +got):\n%s", diff)
	}
	if pc.Total() != 3200 {
		t.Errorf("expected total 3200, got %d", pc.Total())
	}

	// A failed refresh keeps the previous table.
	src.err = errors.New("permission denied")
	if err := pc.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if len(pc.Top(0)) != 3 {
		t.Error("expected previous rows to survive a failed refresh")
	}
}

func TestProcessCollector_NetworkProcesses(t *testing.T) {
	src := &fakeProcesses{net: []models.NetworkProcess{
		{PID: 1, Name: "sshd", Connections: 2},
		{PID: 2, Name: "firefox", Connections: 40},
		{PID: 3, Name: "dockerd", Connections: 9},
	}}
	pc := NewProcessCollector(src, nil)

	got, err := pc.NetworkProcesses(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.NetworkProcess{
		{PID: 2, Name: "firefox", Connections: 40},
		{PID: 3, Name: "dockerd", Connections: 9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("network processes mismatch (-want +got):\n%s", diff)
	}
	if src.scanSeen != NetworkScanLimit {
		t.Errorf("expected scan limit %d, got %d", NetworkScanLimit, src.scanSeen)
	}
}

func TestProcessCollector_NetworkSortState(t *testing.T) {
	src := &fakeProcesses{net: []models.NetworkProcess{
		{PID: 9, Name: "sshd", Connections: 2},
		{PID: 2, Name: "Firefox", Connections: 40},
		{PID: 5, Name: "dockerd", Connections: 9},
	}}
	pc := NewProcessCollector(src, nil)

	tests := []struct {
		name   string
		toggle NetworkColumn
		want   []int32
	}{
		{name: "pid ascending", toggle: NetColumnPID, want: []int32{2, 5, 9}},
		{name: "pid descending", toggle: NetColumnPID, want: []int32{9, 5, 2}},
		{name: "name ignores case", toggle: NetColumnName, want: []int32{5, 2, 9}},
		{name: "connections ascending", toggle: NetColumnConnections, want: []int32{9, 5, 2}},
	}
	for _, tt := range tests {
		pc.NetworkState().Toggle(tt.toggle)
		rows, err := pc.NetworkProcesses(context.Background(), 0)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		var got []int32
		for _, r := range rows {
			got = append(got, r.PID)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: order mismatch (-want +got):\n%s", tt.name, diff)
		}
	}

	// The main table keeps its own order.
	if col, desc := pc.State().Order(); col != ColumnMemoryMB || !desc {
		t.Errorf("expected process table untouched, got %s desc=%v", col, desc)
	}
}

func TestParseNetworkColumn(t *testing.T) {
	if c, err := ParseNetworkColumn("Connections"); err != nil || c != NetColumnConnections {
		t.Errorf("expected connections, got %q (%v)", c, err)
	}
	if _, err := ParseNetworkColumn("memory_mb"); err == nil {
		t.Error("expected error for a column the network table does not have")
	}
}

type terminatingProcesses struct {
	fakeProcesses
	err    error
	killed []int32
}

func (f *terminatingProcesses) Terminate(ctx context.Context, pid int32, grace time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.killed = append(f.killed, pid)
	return nil
}

func TestProcessCollector_Terminate(t *testing.T) {
	src := &terminatingProcesses{fakeProcesses: fakeProcesses{rows: sampleProcesses}}
	pc := NewProcessCollector(src, nil)

	if err := pc.Terminate(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int32{7}, src.killed); diff != "" {
		t.Errorf("terminated pids mismatch (-want +got):\n%s", diff)
	}
	if pc.LastUpdated().IsZero() {
		t.Error("expected the table to be refreshed after terminating")
	}

	src.err = fmt.Errorf("pid 7: %w", ErrAccessDenied)
	if err := pc.Terminate(context.Background(), 7); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}

	readOnly := NewProcessCollector(&fakeProcesses{}, nil)
	if err := readOnly.Terminate(context.Background(), 7); !errors.Is(err, ErrTerminateUnsupported) {
		t.Errorf("expected ErrTerminateUnsupported, got %v", err)
	}
}

func TestSignalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission", os.NewSyscallError("kill", syscall.EPERM), ErrAccessDenied},
		{"exited", os.ErrProcessDone, ErrNoSuchProcess},
		{"no such pid", syscall.ESRCH, ErrNoSuchProcess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signalError(42, tt.err); !errors.Is(got, tt.want) {
				t.Errorf("signalError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPsutilProcesses_TerminateMissingProcess(t *testing.T) {
	err := NewPsutilProcesses().Terminate(context.Background(), math.MaxInt32, TerminateGrace)
	if !errors.Is(err, ErrNoSuchProcess) {
		t.Errorf("expected ErrNoSuchProcess, got %v", err)
	}
}
