package services

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"hostwatch/internal/models"
)

// SmartTimeout bounds each smartctl invocation.
const SmartTimeout = 5 * time.Second

// CommandRunner runs an external tool and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// runCommand executes a tool with the given timeout. A timeout, a missing
// binary and a non-zero exit are all reported as ErrUnavailable.
func runCommand(timeout time.Duration) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		out, err := exec.CommandContext(ctx, name, args...).Output()
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s timed out after %s", ErrUnavailable, name, timeout)
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
		}
		return out, nil
	}
}

// SmartctlSensor reads disk health through the smartctl tool.
type SmartctlSensor struct {
	path string
	run  CommandRunner
}

// NewSmartctlSensor returns a smartctl adapter, or nil when the tool is not
// installed.
func NewSmartctlSensor(path string) *SmartctlSensor {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil
	}
	return &SmartctlSensor{path: resolved, run: runCommand(SmartTimeout)}
}

// ReadDiskHealth queries the SMART attributes and the overall health verdict.
func (s *SmartctlSensor) ReadDiskHealth(ctx context.Context, device string) (models.DiskHealth, error) {
	attrs, err := s.run(ctx, s.path, "-A", device)
	if err != nil {
		return models.UnknownDiskHealth, err
	}
	verdict, err := s.run(ctx, s.path, "-H", device)
	if err != nil {
		return models.UnknownDiskHealth, err
	}

	return models.DiskHealth{
		Temperature: parseSmartTemperature(attrs),
		Health:      parseSmartHealth(verdict),
	}, nil
}

// parseSmartTemperature finds the drive temperature in `smartctl -A` output.
// NVMe drives print "Temperature: 35 Celsius"; ATA drives report attribute
// 194 whose raw value is the tenth column.
func parseSmartTemperature(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)

		if strings.Contains(line, "Temperature:") {
			for _, f := range fields {
				if _, err := strconv.Atoi(f); err == nil {
					return f + "°C"
				}
			}
			return models.NotAvailable
		}
		if strings.Contains(line, "Temperature_Celsius") && len(fields) >= 10 {
			if _, err := strconv.Atoi(fields[9]); err == nil {
				return fields[9] + "°C"
			}
		}
	}
	return models.NotAvailable
}

func parseSmartHealth(out []byte) string {
	if bytes.Contains(out, []byte("PASSED")) {
		return "OK"
	}
	return "Warning"
}
