//go:build linux

package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const fixtureDiskstats = `   8       0 sda 100 0 2048 10 50 0 1024 20 0 30 30
   8       1 sda1 100 0 2048 10 50 0 1024 20 0 30 30
   7       0 loop0 40 0 4096 5 0 0 0 0 0 5 5
 253       0 dm-0 90 0 2048 10 50 0 1024 20 0 30 30
`

func TestPsutilHost_ReadDiskCountersSkipsPartitions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "diskstats"), []byte(fixtureDiskstats), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("HOST_PROC", dir)

	read, write, err := PsutilHost{}.ReadDiskCounters(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if read != 2048*512 {
		t.Errorf("expected read 1048576, got %d", read)
	}
	if write != 1024*512 {
		t.Errorf("expected write 524288, got %d", write)
	}
}
