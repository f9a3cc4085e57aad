// Package config provides configuration parsing for hostwatch.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written as "5s" or "168h" in YAML.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML writes the duration back as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config represents the hostwatch configuration.
type Config struct {
	// Collector holds sampling loop settings.
	Collector CollectorConfig `yaml:"collector"`

	// Sensors holds optional sensor settings.
	Sensors SensorsConfig `yaml:"sensors"`

	// Thresholds holds alert limits.
	Thresholds ThresholdsConfig `yaml:"thresholds"`

	// Export holds report export settings.
	Export ExportConfig `yaml:"export"`

	// Server holds local dashboard settings.
	Server ServerConfig `yaml:"server"`
}

// CollectorConfig holds sampling loop settings.
type CollectorConfig struct {
	// UpdateInterval is the pause between collection cycles.
	UpdateInterval Duration `yaml:"update_interval"`
	// MaxHistory is the number of points kept per series.
	MaxHistory int `yaml:"max_history"`
	// DiskPath is the mount point whose usage is sampled.
	DiskPath string `yaml:"disk_path"`
	// DiskDevice is the block device queried for SMART health.
	DiskDevice string `yaml:"disk_device"`
	// QueueSize bounds the snapshot queue. Zero delivers synchronously.
	QueueSize int `yaml:"queue_size"`
}

// SensorsConfig holds optional sensor settings.
type SensorsConfig struct {
	// GPU enables the GPU adapter when nvidia-smi is present.
	GPU bool `yaml:"gpu"`
	// DiskHealth enables the SMART adapter when smartctl is present.
	DiskHealth bool `yaml:"disk_health"`
	// NvidiaSMI is the nvidia-smi executable name or path.
	NvidiaSMI string `yaml:"nvidia_smi"`
	// Smartctl is the smartctl executable name or path.
	Smartctl string `yaml:"smartctl"`
	// Timeout bounds every external tool invocation.
	Timeout Duration `yaml:"timeout"`
}

// ThresholdsConfig holds alert limits.
type ThresholdsConfig struct {
	CPUPercent      float64  `yaml:"cpu_percent"`
	RAMPercent      float64  `yaml:"ram_percent"`
	GPUTempC        float64  `yaml:"gpu_temp_c"`
	DiskFreePercent float64  `yaml:"disk_free_percent"`
	NetworkMbps     float64  `yaml:"network_mbps"`
	Uptime          Duration `yaml:"uptime"`
}

// ExportConfig holds report export settings.
type ExportConfig struct {
	// AutoInterval is the pause between automatic exports. Zero disables them.
	AutoInterval Duration `yaml:"auto_interval"`
	// WindowMinutes is the averaging window used by automatic exports.
	WindowMinutes int `yaml:"window_minutes"`
	// Dir is where report files are written.
	Dir string `yaml:"dir"`
}

// ServerConfig holds local dashboard settings.
type ServerConfig struct {
	// Addr is the listen address. Only loopback clients are served.
	Addr string `yaml:"addr"`
	// RateLimit is the sustained requests per second allowed per client.
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the burst size per client.
	RateBurst int `yaml:"rate_burst"`
	// AllowedIPs admits extra non-loopback clients.
	AllowedIPs []string `yaml:"allowed_ips"`
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Collector: CollectorConfig{
			UpdateInterval: Duration{5 * time.Second},
			MaxHistory:     60,
			DiskPath:       "/",
			DiskDevice:     "/dev/sda",
			QueueSize:      16,
		},
		Sensors: SensorsConfig{
			GPU:        true,
			DiskHealth: true,
			NvidiaSMI:  "nvidia-smi",
			Smartctl:   "smartctl",
			Timeout:    Duration{5 * time.Second},
		},
		Thresholds: ThresholdsConfig{
			CPUPercent:      90,
			RAMPercent:      90,
			GPUTempC:        85,
			DiskFreePercent: 10,
			NetworkMbps:     1100,
			Uptime:          Duration{7 * 24 * time.Hour},
		},
		Export: ExportConfig{
			AutoInterval:  Duration{1000 * time.Second},
			WindowMinutes: 5,
			Dir:           ".",
		},
		Server: ServerConfig{
			Addr:      "localhost:8080",
			RateLimit: 100,
			RateBurst: 200,
		},
	}
}

// LoadConfig loads configuration from a YAML file, merging with defaults,
// then applies HOSTWATCH_* environment overrides.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides overrides the most commonly tuned values from the environment.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("HOSTWATCH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HOSTWATCH_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("HOSTWATCH_UPDATE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HOSTWATCH_UPDATE_INTERVAL: %w", err)
		}
		cfg.Collector.UpdateInterval = Duration{d}
	}
	if v := os.Getenv("HOSTWATCH_MAX_HISTORY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOSTWATCH_MAX_HISTORY: %w", err)
		}
		cfg.Collector.MaxHistory = n
	}
	return nil
}

// Validate checks the configuration for logical consistency.
func (c *Config) Validate() error {
	if c.Collector.UpdateInterval.Duration <= 0 {
		return fmt.Errorf("collector.update_interval must be positive, got %s", c.Collector.UpdateInterval)
	}
	if c.Collector.MaxHistory <= 0 {
		return fmt.Errorf("collector.max_history must be positive, got %d", c.Collector.MaxHistory)
	}
	if c.Collector.DiskPath == "" {
		return fmt.Errorf("collector.disk_path is required")
	}
	if c.Collector.QueueSize < 0 {
		return fmt.Errorf("collector.queue_size must be non-negative, got %d", c.Collector.QueueSize)
	}
	if c.Sensors.Timeout.Duration <= 0 {
		return fmt.Errorf("sensors.timeout must be positive, got %s", c.Sensors.Timeout)
	}
	if c.Thresholds.DiskFreePercent < 0 || c.Thresholds.DiskFreePercent > 100 {
		return fmt.Errorf("thresholds.disk_free_percent must be within 0-100, got %v", c.Thresholds.DiskFreePercent)
	}
	if c.Export.AutoInterval.Duration < 0 {
		return fmt.Errorf("export.auto_interval must be non-negative, got %s", c.Export.AutoInterval)
	}
	if c.Export.WindowMinutes < 0 {
		return fmt.Errorf("export.window_minutes must be non-negative, got %d", c.Export.WindowMinutes)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must be positive")
	}
	return nil
}
