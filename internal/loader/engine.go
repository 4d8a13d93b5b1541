// internal/loader/engine.go
package loader

import (
	"github.com/sealablab/DPD-001-sub000/internal/crc16"
	"github.com/sealablab/DPD-001-sub000/internal/encoder"
)

// Phase is the loader protocol phase.
type Phase int

const (
	PhaseSetup    Phase = 0
	PhaseTransfer Phase = 1
	PhaseValidate Phase = 2
	PhaseComplete Phase = 3
	PhaseFault    Phase = 4
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "Setup"
	case PhaseTransfer:
		return "Transfer"
	case PhaseValidate:
		return "Validate"
	case PhaseComplete:
		return "Complete"
	case PhaseFault:
		return "Fault"
	}
	return "invalid"
}

// Engine is the blind-handshake transfer engine.
//
// The controller has no acknowledgment path: both sides pre-agree on the
// phase sequence Setup -> Transfer -> Validate -> Complete and on generous
// per-phase delays. The engine only ever advances on strobe falling edges
// (Setup, Transfer) or unconditionally after the last word (Validate), so
// controller-side timing slack never changes the outcome.
//
// A checksum mismatch is fatal to the session: the engine cannot identify
// which word was corrupted, only that the aggregate did not match, so it
// never retries internally. Recovery is an external clear and a fresh
// session.
type Engine struct {
	buffers *BufferSet

	phase  Phase
	offset int

	// Expected checksums are latched once, at setup; the payload registers
	// are reused as data lanes afterwards.
	expected [Lanes]uint16
	running  [Lanes]crc16.Accumulator

	failMask uint8
}

// New creates an engine writing into buffers. The dispatcher owns both.
func New(buffers *BufferSet) *Engine {
	e := &Engine{buffers: buffers}
	e.Reset()
	return e
}

// Reset abandons any session and re-enters Setup.
// An aborted session leaves buffer contents partially written with no
// validity guarantee; only a completed session is trustworthy.
func (e *Engine) Reset() {
	e.phase = PhaseSetup
	e.offset = 0
	e.failMask = 0
	for i := range e.running {
		e.running[i].Reset()
	}
}

// Faulted reports a failed session.
func (e *Engine) Faulted() bool {
	return e.phase == PhaseFault
}

// Tick evaluates one clock edge while the loader is active.
// payload holds registers 1..4; strobeFall is true when the strobe bit was
// high on the previous edge and low on this one. Latching on the falling
// edge is load-bearing: a multi-register write is not atomic, and acting
// only after the controller has held the strobe high keeps a half-written
// payload from being sampled.
func (e *Engine) Tick(payload [Lanes]uint32, strobeFall bool) {
	switch e.phase {
	case PhaseSetup:
		if !strobeFall {
			return
		}
		for i := range e.expected {
			e.expected[i] = uint16(payload[i])
			e.running[i].Reset()
		}
		e.offset = 0
		e.phase = PhaseTransfer

	case PhaseTransfer:
		if !strobeFall {
			return
		}
		// Always write all four lanes, even when the controller cares
		// about fewer: no negotiated buffer-count field exists.
		for lane := 0; lane < Lanes; lane++ {
			e.buffers.write(lane, e.offset, payload[lane])
			e.running[lane].UpdateWord(payload[lane])
		}
		e.offset++
		if e.offset == WordsPerLane {
			e.phase = PhaseValidate
		}

	case PhaseValidate:
		// One clock, strobe-independent.
		e.failMask = 0
		for lane := 0; lane < Lanes; lane++ {
			if e.running[lane].Sum() != e.expected[lane] {
				e.failMask |= 1 << uint(lane)
			}
		}
		if e.failMask != 0 {
			e.phase = PhaseFault
		} else {
			e.phase = PhaseComplete
		}

	case PhaseComplete, PhaseFault:
		// Terminal. The dispatcher handles return and clear.
	}
}

// Sample produces this clock's encoder input.
// Status carries coarse progress during Transfer and the failing-lane
// bitmask in Fault.
func (e *Engine) Sample() encoder.Sample {
	s := encoder.Sample{
		Context: encoder.ContextLoader,
		State:   int(e.phase),
	}
	switch e.phase {
	case PhaseTransfer:
		s.Status = e.offset / (WordsPerLane / (encoder.MaxStatus + 1))
	case PhaseValidate, PhaseComplete:
		s.Status = encoder.MaxStatus
	case PhaseFault:
		s.Status = int(e.failMask)
		s.Fault = true
	}
	return s
}
