// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Controller ControllerConfig `yaml:"controller"`
}

// ---- CONTROLLER ----

type ControllerConfig struct {
	Endpoint  string `yaml:"endpoint"` // host:port, or serial://<device> for RTU
	UnitID    uint8  `yaml:"unit_id"`
	BaudRate  int    `yaml:"baud_rate"` // RTU only
	TimeoutMs int    `yaml:"timeout_ms"`

	Registers RegistersConfig `yaml:"registers"`
	Timing    TimingConfig    `yaml:"timing"`
	Load      LoadConfig      `yaml:"load"`
}

// ---- REGISTER GEOMETRY ----

// Each 32-bit control register occupies two 16-bit holding registers,
// high word first. The observable channel occupies two input registers.
type RegistersConfig struct {
	ControlBase uint16 `yaml:"control_base"`
	ChannelBase uint16 `yaml:"channel_base"`
}

// ---- TIMING MARGINS ----

// Blind-handshake margins. The hardware has no acknowledgment path, so
// these MUST stay 1-2 orders of magnitude above plausible write latency.
type TimingConfig struct {
	StrobeHoldMs   int `yaml:"strobe_hold_ms"`
	SettleMs       int `yaml:"settle_ms"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
	PollTimeoutMs  int `yaml:"poll_timeout_ms"`
}

// ---- LOAD SESSION ----

type LoadConfig struct {
	Lanes []LaneConfig `yaml:"lanes"`
}

// LaneConfig names one lane image: either a file of big-endian words or
// an explicit all-zero lane. Exactly one of the two.
type LaneConfig struct {
	File string `yaml:"file"`
	Zero bool   `yaml:"zero"`
}

// Load reads and strictly decodes a YAML config file.
// Unknown fields are errors: a typoed timing key silently defaulting
// would defeat the margins it was meant to widen.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}
