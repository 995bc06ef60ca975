// Package config loads the server configuration from a TOML file,
// falling back to defaults for anything the file does not set.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML files can use "250ms"/"30s" syntax.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Clock   ClockConfig   `toml:"clock"`
	Feeds   FeedsConfig   `toml:"feeds"`
	Network NetworkConfig `toml:"network"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	BindAddress   string   `toml:"bind_address"`
	DataDir       string   `toml:"data_dir"` // locations.yaml, nations.yaml, scenarios/
	Scenario      string   `toml:"scenario"` // scenario file to load at boot
	DBPath        string   `toml:"db_path"`
	AutosaveSlot  string   `toml:"autosave_slot"`
	AutosaveEvery Duration `toml:"autosave_every"` // real time, 0 disables
}

type ClockConfig struct {
	// FrameInterval is the real-time spacing of simulation frames. The
	// browser renders at its own rate; the server only needs enough frames
	// for smooth event timing.
	FrameInterval Duration  `toml:"frame_interval"`
	InitialSpeed  float64   `toml:"initial_speed"`
	SpeedPresets  []float64 `toml:"speed_presets"`
}

type FeedsConfig struct {
	Capacity int `toml:"capacity"` // entries retained per feed
}

type NetworkConfig struct {
	ClientSendBuffer      int      `toml:"client_send_buffer"`
	CommandInterval       Duration `toml:"command_interval"` // min spacing between client commands
	CommandBurst          int      `toml:"command_burst"`
	TickBroadcastInterval Duration `toml:"tick_broadcast_interval"`
	CatchUpEntries        int      `toml:"catch_up_entries"` // journal entries replayed to new clients
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads the config file at path. A missing file is not an error: the
// defaults describe a complete local setup.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:   ":8080",
			DataDir:       "data",
			Scenario:      "data/scenarios/first_contact.yaml",
			DBPath:        "cieloroto.db",
			AutosaveSlot:  "autosave",
			AutosaveEvery: Duration{30 * time.Second},
		},
		Clock: ClockConfig{
			FrameInterval: Duration{50 * time.Millisecond},
			InitialSpeed:  1,
			SpeedPresets:  []float64{1, 10, 60, 360, 1000},
		},
		Feeds: FeedsConfig{
			Capacity: 200,
		},
		Network: NetworkConfig{
			ClientSendBuffer:      256,
			CommandInterval:       Duration{500 * time.Millisecond},
			CommandBurst:          3,
			TickBroadcastInterval: Duration{250 * time.Millisecond},
			CatchUpEntries:        50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
