// internal/config/normalize.go
package config

// Default timing margins (milliseconds). StrobeHold and Settle sit well
// above any plausible register-write round trip.
const (
	DefaultTimeoutMs      = 1000
	DefaultStrobeHoldMs   = 20
	DefaultSettleMs       = 5
	DefaultPollIntervalMs = 50
	DefaultPollTimeoutMs  = 5000
	DefaultBaudRate       = 115200
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	c := &cfg.Controller

	if c.TimeoutMs == 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}

	tm := &c.Timing
	if tm.StrobeHoldMs == 0 {
		tm.StrobeHoldMs = DefaultStrobeHoldMs
	}
	if tm.SettleMs == 0 {
		tm.SettleMs = DefaultSettleMs
	}
	if tm.PollIntervalMs == 0 {
		tm.PollIntervalMs = DefaultPollIntervalMs
	}
	if tm.PollTimeoutMs == 0 {
		tm.PollTimeoutMs = DefaultPollTimeoutMs
	}

	// The engine always writes all four lanes; missing lanes load zeros.
	for len(c.Load.Lanes) < MaxLanes {
		c.Load.Lanes = append(c.Load.Lanes, LaneConfig{Zero: true})
	}
}
