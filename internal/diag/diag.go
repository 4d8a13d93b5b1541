// internal/diag/diag.go
package diag

import "github.com/sealablab/DPD-001-sub000/internal/encoder"

// State is the diagnostics module state.
type State int

const (
	StateIdle    State = 0
	StateRunning State = 1
	StateDone    State = 2

	// StateFault is reserved for a future real diagnostics payload.
	// The stub never enters it.
	StateFault State = 3
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateDone:
		return "Done"
	case StateFault:
		return "Fault"
	}
	return "invalid"
}

// DefaultCountdown is the run length in clock ticks when none is given.
const DefaultCountdown = 64

// Stub is a placeholder diagnostics module. It auto-advances
// Idle -> Running -> Done on a countdown timer, with no external input:
// its only job is proving the dispatch and encoding path on real hardware.
type Stub struct {
	countdown int
	state     State
	remaining int
}

// New creates a stub with the given run length; countdown <= 0 selects
// DefaultCountdown.
func New(countdown int) *Stub {
	if countdown <= 0 {
		countdown = DefaultCountdown
	}
	s := &Stub{countdown: countdown}
	s.Reset()
	return s
}

// Reset rewinds to Idle with a full countdown.
func (s *Stub) Reset() {
	s.state = StateIdle
	s.remaining = s.countdown
}

// Faulted is always false: the fault state is reserved, not wired.
func (s *Stub) Faulted() bool {
	return false
}

// Tick evaluates one clock edge while diagnostics is active.
func (s *Stub) Tick() {
	switch s.state {
	case StateIdle:
		s.state = StateRunning
	case StateRunning:
		s.remaining--
		if s.remaining <= 0 {
			s.remaining = 0
			s.state = StateDone
		}
	case StateDone, StateFault:
		// Hold until the dispatcher returns or clears.
	}
}

// Sample produces this clock's encoder input. Status counts down the
// remaining run ticks so an external observer can watch progress.
func (s *Stub) Sample() encoder.Sample {
	status := s.remaining
	if status > encoder.MaxStatus {
		status = encoder.MaxStatus
	}
	return encoder.Sample{
		Context: encoder.ContextDiagnostics,
		State:   int(s.state),
		Status:  status,
	}
}
