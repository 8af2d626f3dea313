// Package config loads netcode-core's tunables from YAML, falling back to
// environment variables and finally to the defaults table, the same
// precedence order the teacher repository uses for its server ports.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure. Zero-valued fields fall back
// to Defaults() at the call sites that consume them.
type Config struct {
	Netcode   NetcodeConfig   `yaml:"netcode"`
	Server    ServerConfig    `yaml:"server"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
}

// NetcodeConfig holds the tunables from spec.md §6's defaults table.
type NetcodeConfig struct {
	TickRate                int `yaml:"tick_rate"`
	SnapshotHistorySize      int `yaml:"snapshot_history_size"`
	InterpolationDelayMs     int `yaml:"interpolation_delay_ms"`
	MaxInputBufferSize       int `yaml:"max_input_buffer_size"`
	InputDelayFrames         int `yaml:"input_delay_frames"`
	TeleportThreshold        int `yaml:"teleport_threshold"`
	MaxRewindMs              int `yaml:"max_rewind_ms"`
	SmoothingDurationFrames  int `yaml:"smoothing_duration_frames"`
}

// Defaults returns the defaults table from spec.md §6.
func Defaults() NetcodeConfig {
	return NetcodeConfig{
		TickRate:                20,
		SnapshotHistorySize:     60,
		InterpolationDelayMs:    50,
		MaxInputBufferSize:      1024,
		InputDelayFrames:        2,
		TeleportThreshold:       200,
		MaxRewindMs:             300,
		SmoothingDurationFrames: 6,
	}
}

// WithDefaults fills any zero-valued field of n with the corresponding
// default, so a partially-specified YAML config still produces a usable set.
func (n NetcodeConfig) WithDefaults() NetcodeConfig {
	d := Defaults()
	if n.TickRate <= 0 {
		n.TickRate = d.TickRate
	}
	if n.SnapshotHistorySize <= 0 {
		n.SnapshotHistorySize = d.SnapshotHistorySize
	}
	if n.InterpolationDelayMs <= 0 {
		n.InterpolationDelayMs = d.InterpolationDelayMs
	}
	if n.MaxInputBufferSize <= 0 {
		n.MaxInputBufferSize = d.MaxInputBufferSize
	}
	if n.InputDelayFrames <= 0 {
		n.InputDelayFrames = d.InputDelayFrames
	}
	if n.TeleportThreshold <= 0 {
		n.TeleportThreshold = d.TeleportThreshold
	}
	if n.MaxRewindMs <= 0 {
		n.MaxRewindMs = d.MaxRewindMs
	}
	if n.SmoothingDurationFrames <= 0 {
		n.SmoothingDurationFrames = d.SmoothingDurationFrames
	}
	return n
}

// ServerConfig carries transport/admin ports.
type ServerConfig struct {
	GameAddr    string `yaml:"game_addr"`
	AdminAddr   string `yaml:"admin_addr"`
	MetricsPort int    `yaml:"metrics_port"`
}

// GetGameAddr returns the UDP address the KCP transport listens on.
func (s *ServerConfig) GetGameAddr() string {
	return getStringWithEnvFallback(s.GameAddr, "NETCODE_GAME_ADDR", ":7777")
}

// GetAdminAddr returns the admin/debug HTTP address.
func (s *ServerConfig) GetAdminAddr() string {
	return getStringWithEnvFallback(s.AdminAddr, "NETCODE_ADMIN_ADDR", ":8088")
}

// GetMetricsPort returns the Prometheus metrics port with env/default fallback.
func (s *ServerConfig) GetMetricsPort() int {
	return getIntWithEnvFallback(s.MetricsPort, "NETCODE_METRICS_PORT", 2112)
}

// EventBusConfig configures the optional NATS JetStream snapshot fan-out bus.
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// BroadcastConfig tunes the snapshot batching/broadcast layer.
type BroadcastConfig struct {
	RegionID   string `yaml:"region_id"`
	BatchSize  int    `yaml:"batch_size"`
	FlushEvery int    `yaml:"flush_every_ms"`
	UseZstd    bool   `yaml:"use_zstd_compression"`
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if n, err := strconv.Atoi(envVal); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

// Load reads a YAML config file. If path is empty, it falls back to the
// NETCODE_CONFIG environment variable; if that is also unset, it returns
// (nil, nil) so callers use Defaults().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("NETCODE_CONFIG")
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Netcode = cfg.Netcode.WithDefaults()
	return &cfg, nil
}
