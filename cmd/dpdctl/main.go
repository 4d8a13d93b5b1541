// cmd/dpdctl/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/sealablab/DPD-001-sub000/internal/config"
	"github.com/sealablab/DPD-001-sub000/internal/host"
	hostmodbus "github.com/sealablab/DPD-001-sub000/internal/host/modbus"
	"github.com/sealablab/DPD-001-sub000/internal/loader"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dpdctl <config.yaml> <command>")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status   read and decode the observable channel")
	fmt.Fprintln(os.Stderr, "  reset    drop the gate (external clear)")
	fmt.Fprintln(os.Stderr, "  diag     run the diagnostics sequence")
	fmt.Fprintln(os.Stderr, "  load     run a full buffer load session")
	fmt.Fprintln(os.Stderr, "  handoff  dispatch the application (one-way)")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}
	cfgPath, command := os.Args[1], os.Args[2]

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	cc := cfg.Controller

	// --------------------
	// Transport + controller
	// --------------------

	bus, err := hostmodbus.New(hostmodbus.Config{
		Endpoint:    cc.Endpoint,
		UnitID:      cc.UnitID,
		BaudRate:    cc.BaudRate,
		Timeout:     time.Duration(cc.TimeoutMs) * time.Millisecond,
		ControlBase: cc.Registers.ControlBase,
		ChannelBase: cc.Registers.ChannelBase,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("endpoint", cc.Endpoint).Msg("transport connect failed")
	}
	defer bus.Close()

	ctl := host.New(bus, host.Timing{
		StrobeHold:   time.Duration(cc.Timing.StrobeHoldMs) * time.Millisecond,
		Settle:       time.Duration(cc.Timing.SettleMs) * time.Millisecond,
		PollInterval: time.Duration(cc.Timing.PollIntervalMs) * time.Millisecond,
		PollTimeout:  time.Duration(cc.Timing.PollTimeoutMs) * time.Millisecond,
	}, logger)

	// --------------------
	// Dispatch command
	// --------------------

	switch command {
	case "status":
		s, err := ctl.Status()
		if err != nil {
			logger.Fatal().Err(err).Msg("status read failed")
		}
		context, state := host.Describe(s)
		logger.Info().
			Str("context", context).
			Str("state", state).
			Int("status", s.Status).
			Bool("fault", s.Fault).
			Msg("platform state")

	case "reset":
		if err := ctl.Clear(); err != nil {
			logger.Fatal().Err(err).Msg("reset failed")
		}
		logger.Info().Msg("gate dropped")

	case "diag":
		if err := ctl.RunDiagnostics(); err != nil {
			logger.Fatal().Err(err).Msg("diagnostics failed")
		}
		logger.Info().Msg("diagnostics passed")

	case "load":
		images, err := readLaneImages(cc.Load)
		if err != nil {
			logger.Fatal().Err(err).Msg("lane image read failed")
		}
		if err := ctl.LoadImages(images); err != nil {
			logger.Fatal().Err(err).Msg("load session failed")
		}
		logger.Info().Msg("load session complete")

	case "handoff":
		if err := ctl.HandOff(); err != nil {
			logger.Fatal().Err(err).Msg("hand-off failed")
		}

	default:
		usage()
	}
}

// readLaneImages turns the configured lanes into word images.
// Files hold big-endian 32-bit words, at most one full lane each.
func readLaneImages(lc config.LoadConfig) ([][]uint32, error) {
	images := make([][]uint32, len(lc.Lanes))

	for i, lane := range lc.Lanes {
		if lane.Zero {
			continue // nil image loads as zeros
		}

		raw, err := os.ReadFile(lane.File)
		if err != nil {
			return nil, fmt.Errorf("lane %d: %w", i, err)
		}
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("lane %d: %s is %d bytes, not whole words", i, lane.File, len(raw))
		}
		if len(raw) > loader.BytesPerLane {
			return nil, fmt.Errorf("lane %d: %s is %d bytes, max %d", i, lane.File, len(raw), loader.BytesPerLane)
		}

		words := make([]uint32, len(raw)/4)
		for w := range words {
			words[w] = uint32(raw[4*w])<<24 | uint32(raw[4*w+1])<<16 |
				uint32(raw[4*w+2])<<8 | uint32(raw[4*w+3])
		}
		images[i] = words
	}

	return images, nil
}
