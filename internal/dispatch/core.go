// internal/dispatch/core.go
package dispatch

import (
	"fmt"

	"github.com/sealablab/DPD-001-sub000/internal/ctrlword"
	"github.com/sealablab/DPD-001-sub000/internal/diag"
	"github.com/sealablab/DPD-001-sub000/internal/encoder"
	"github.com/sealablab/DPD-001-sub000/internal/loader"
)

// Memory is the application's read-only view of the loaded buffers.
// *loader.BufferSet satisfies it.
type Memory interface {
	Word(lane, offset int) uint32
	Lane(lane int) []uint32
}

// Application is the main measurement application, out of scope here
// beyond its hand-off contract. The hand-off is one-way: after Activate
// the dispatcher never deactivates it and never observes its faults.
type Application interface {
	// Activate is called exactly once per hand-off, with the loaded memory.
	Activate(mem Memory)

	// Tick evaluates one clock edge after hand-off.
	Tick(word ctrlword.Word, payload [PayloadRegisters]uint32)

	// Sample returns the application's encoder input. Returning ok=false
	// forfeits observability: the dispatcher then encodes its own
	// hand-off state instead.
	Sample() (encoder.Sample, bool)
}

// Config carries construction-time parameters.
type Config struct {
	// DiagCountdown is the diagnostics run length in ticks; <= 0 selects
	// the stub's default.
	DiagCountdown int

	// Application receives the one-way hand-off. Optional.
	Application Application
}

// Core is the top-level dispatch state machine.
//
// It samples the control register file every clock edge, gates everything
// behind the three enable bits, hands control to exactly one submodule,
// and muxes the active submodule's sample onto the single observable
// channel. The channel is the ONLY read path: internal state is never
// exposed directly, so every consumer exercises the same encode/decode
// contract the real hardware observer uses.
type Core struct {
	regs [RegisterCount]uint32
	prev ctrlword.Word

	state      State
	faultCause int

	buffers loader.BufferSet
	loader  *loader.Engine
	diag    *diag.Stub
	app     Application

	out int32
}

// New creates a core in Reset with all registers clear.
func New(cfg Config) *Core {
	c := &Core{
		diag: diag.New(cfg.DiagCountdown),
		app:  cfg.Application,
	}
	c.loader = loader.New(&c.buffers)
	return c
}

// WriteRegister models one asynchronous controller write. It may land
// between any two clock edges; the core only ever samples registers on
// Tick, which is what makes mid-write corruption a controller-side
// problem solved by strobe edges, not locking.
func (c *Core) WriteRegister(reg uint8, v uint32) error {
	if int(reg) >= RegisterCount {
		return fmt.Errorf("dispatch: register out of range: reg=%d max=%d", reg, RegisterCount-1)
	}
	c.regs[reg] = v
	return nil
}

// Output returns the observable channel value as of the last clock edge.
func (c *Core) Output() int32 {
	return c.out
}

// Tick evaluates one clock edge.
//
// Register semantics: the output latch takes the sample of the pre-edge
// state, so the channel changes one clock after a state change. Which
// sample is active is recomputed fresh from current state every edge,
// never carried over.
func (c *Core) Tick() {
	sample := c.activeSample()

	word := ctrlword.Decode(c.regs[RegControl])
	strobeFall := c.prev.Strobe && !word.Strobe

	var payload [PayloadRegisters]uint32
	copy(payload[:], c.regs[RegPayloadBase:])

	if !word.Gated {
		// Gate drop is the external clear: the only exit from Fault and
		// from the one-way application hand-off.
		c.state = StateReset
		c.faultCause = FaultCauseNone
	} else {
		c.advance(word, payload, strobeFall)
	}

	c.prev = word
	c.out = encoder.Encode(sample)
}

func (c *Core) advance(word ctrlword.Word, payload [PayloadRegisters]uint32, strobeFall bool) {
	switch c.state {
	case StateReset:
		// Buffers are zeroed exactly once, on this edge.
		c.buffers.Zero()
		c.state = StateReady

	case StateReady:
		switch {
		case word.SelectViolation:
			c.fault(FaultCauseSelect)
		case word.Select == ctrlword.ModuleDiagnostics:
			c.diag.Reset()
			c.state = StateDiagnosticsActive
		case word.Select == ctrlword.ModuleLoader:
			c.loader.Reset()
			c.state = StateLoaderActive
		case word.Select == ctrlword.ModuleApplication:
			if c.app != nil {
				c.app.Activate(&c.buffers)
			}
			c.state = StateApplicationActive
		}

	case StateDiagnosticsActive:
		switch {
		case word.SelectViolation:
			c.fault(FaultCauseSelect)
		case c.diag.Faulted():
			c.fault(FaultCauseDiagnostics)
		case word.Return:
			c.state = StateReady
		default:
			c.diag.Tick()
		}

	case StateLoaderActive:
		switch {
		case word.SelectViolation:
			c.fault(FaultCauseSelect)
		case c.loader.Faulted():
			c.fault(FaultCauseLoader)
		case word.Return:
			c.state = StateReady
		default:
			c.loader.Tick(payload, strobeFall)
		}

	case StateApplicationActive:
		// One-way: no outgoing transition, and application faults are
		// deliberately not observed.
		if c.app != nil {
			c.app.Tick(word, payload)
		}

	case StateFault:
		// Fail-safe terminal state. Held until gate drop.
	}
}

func (c *Core) fault(cause int) {
	c.state = StateFault
	c.faultCause = cause
}

// activeSample is the combinational output mux: it picks this clock's
// encoder input from the active submodule with no added register stage.
func (c *Core) activeSample() encoder.Sample {
	switch c.state {
	case StateDiagnosticsActive:
		return c.diag.Sample()

	case StateLoaderActive:
		return c.loader.Sample()

	case StateApplicationActive:
		if c.app != nil {
			if s, ok := c.app.Sample(); ok {
				return s
			}
		}

	case StateFault:
		// A propagated submodule fault keeps muxing the failed module, so
		// the channel magnitude still names the failing detail (for the
		// loader, the failing-lane bitmask). The dispatcher's own faults
		// encode its cause code instead.
		switch c.faultCause {
		case FaultCauseLoader:
			s := c.loader.Sample()
			s.Fault = true
			return s
		case FaultCauseDiagnostics:
			s := c.diag.Sample()
			s.Fault = true
			return s
		}
		return encoder.Sample{
			Context: encoder.ContextDispatcher,
			State:   int(StateFault),
			Status:  c.faultCause,
			Fault:   true,
		}
	}

	return encoder.Sample{
		Context: encoder.ContextDispatcher,
		State:   int(c.state),
	}
}
