package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"hostwatch/internal/models"
)

const nvidiaQuery = "--query-gpu=utilization.gpu,memory.used,memory.total,temperature.gpu"

// NvidiaSMISensor reads the first GPU through nvidia-smi.
type NvidiaSMISensor struct {
	path string
	run  CommandRunner
}

// NewNvidiaSMISensor returns an nvidia-smi adapter, or nil when the tool is
// not installed.
func NewNvidiaSMISensor(path string, timeout time.Duration) *NvidiaSMISensor {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil
	}
	return &NvidiaSMISensor{path: resolved, run: runCommand(timeout)}
}

// Name returns the marketing name and memory size of the first GPU.
func (s *NvidiaSMISensor) Name(ctx context.Context) (string, error) {
	out, err := s.run(ctx, s.path, "--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
	if err != nil {
		return "", err
	}
	fields, err := firstCSVRow(out, 2)
	if err != nil {
		return "", err
	}
	total, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fields[0], nil
	}
	return fmt.Sprintf("%s (%.1f MB)", fields[0], total), nil
}

// ReadGPU samples usage, memory and temperature of the first GPU.
func (s *NvidiaSMISensor) ReadGPU(ctx context.Context) (models.GPUReading, error) {
	out, err := s.run(ctx, s.path, nvidiaQuery, "--format=csv,noheader,nounits")
	if err != nil {
		return models.GPUReading{}, err
	}
	return parseNvidiaReading(out)
}

func parseNvidiaReading(out []byte) (models.GPUReading, error) {
	fields, err := firstCSVRow(out, 4)
	if err != nil {
		return models.GPUReading{}, err
	}

	values := make([]float64, 4)
	for i, f := range fields[:4] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return models.GPUReading{}, fmt.Errorf("%w: bad nvidia-smi field %q", ErrUnavailable, f)
		}
		values[i] = v
	}

	return models.GPUReading{
		UsagePercent:  values[0],
		MemoryUsedMB:  values[1],
		MemoryTotalMB: values[2],
		TemperatureC:  values[3],
	}, nil
}

// firstCSVRow parses the first line of nvidia-smi CSV output.
func firstCSVRow(out []byte, minFields int) ([]string, error) {
	r := csv.NewReader(strings.NewReader(string(out)))
	r.TrimLeadingSpace = true
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: no GPU rows: %v", ErrUnavailable, err)
	}
	if len(record) < minFields {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrUnavailable, minFields, len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record, nil
}
