// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// MaxLanes is the fixed lane count of the load protocol.
const MaxLanes = 4

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	c := cfg.Controller

	// ------------------------------------------------------------
	// TRANSPORT
	// ------------------------------------------------------------

	if c.Endpoint == "" {
		return fmt.Errorf("controller: endpoint required")
	}
	if c.TimeoutMs < 0 {
		return fmt.Errorf("controller: timeout_ms must be >= 0, got %d", c.TimeoutMs)
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("controller: baud_rate must be >= 0, got %d", c.BaudRate)
	}
	if c.BaudRate != 0 && !strings.HasPrefix(c.Endpoint, "serial://") {
		return fmt.Errorf("controller: baud_rate is only valid for serial:// endpoints")
	}

	// ------------------------------------------------------------
	// REGISTER GEOMETRY
	// ------------------------------------------------------------

	// Five 32-bit control registers as register pairs must fit the
	// 16-bit holding-register address space.
	if c.Registers.ControlBase > 0xFFFF-10 {
		return fmt.Errorf("registers: control_base %d leaves no room for the register file", c.Registers.ControlBase)
	}
	if c.Registers.ChannelBase > 0xFFFF-2 {
		return fmt.Errorf("registers: channel_base %d leaves no room for the channel pair", c.Registers.ChannelBase)
	}

	// ------------------------------------------------------------
	// TIMING MARGINS
	// ------------------------------------------------------------

	tm := c.Timing
	if tm.StrobeHoldMs < 0 || tm.SettleMs < 0 || tm.PollIntervalMs < 0 || tm.PollTimeoutMs < 0 {
		return fmt.Errorf("timing: margins must be >= 0")
	}
	if tm.PollTimeoutMs != 0 && tm.PollIntervalMs != 0 && tm.PollTimeoutMs < tm.PollIntervalMs {
		return fmt.Errorf("timing: poll_timeout_ms %d below poll_interval_ms %d", tm.PollTimeoutMs, tm.PollIntervalMs)
	}

	// ------------------------------------------------------------
	// LOAD SESSION LANES
	// ------------------------------------------------------------

	if len(c.Load.Lanes) > MaxLanes {
		return fmt.Errorf("load: %d lanes configured, protocol carries %d", len(c.Load.Lanes), MaxLanes)
	}
	for i, lane := range c.Load.Lanes {
		if lane.File != "" && lane.Zero {
			return fmt.Errorf("load: lane %d sets both file and zero", i)
		}
		if lane.File == "" && !lane.Zero {
			return fmt.Errorf("load: lane %d sets neither file nor zero", i)
		}
	}

	return nil
}
