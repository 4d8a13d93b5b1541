// internal/dispatch/constants.go
package dispatch

// State is the top-level dispatch state.
// State values double as the dispatcher's local encoding state, so they are
// protocol-locked.
type State int

const (
	StateReset             State = 0
	StateReady             State = 1
	StateDiagnosticsActive State = 2
	StateLoaderActive      State = 3
	StateApplicationActive State = 4
	StateFault             State = 5
)

func (s State) String() string {
	switch s {
	case StateReset:
		return "Reset"
	case StateReady:
		return "Ready"
	case StateDiagnosticsActive:
		return "DiagnosticsActive"
	case StateLoaderActive:
		return "LoaderActive"
	case StateApplicationActive:
		return "ApplicationActive"
	case StateFault:
		return "Fault"
	}
	return "invalid"
}

// ---- FAULT CAUSES ----

// Dispatcher status codes while in Fault. They name what failed; the
// channel-level fault flag is the only other diagnostic surfaced.

// FaultCauseNone means no fault is latched.
const FaultCauseNone = 0

// FaultCauseSelect is a structurally invalid select field.
const FaultCauseSelect = 1

// FaultCauseDiagnostics is a propagated diagnostics-module fault.
const FaultCauseDiagnostics = 2

// FaultCauseLoader is a propagated loader fault.
const FaultCauseLoader = 3

// ---- REGISTER FILE ----

// RegControl is the privileged control word register.
const RegControl = 0

// RegPayloadBase is the first payload register. Registers 1..4 carry the
// expected checksums during loader setup and one data word per lane during
// transfer; outside a loader session they are submodule configuration.
const RegPayloadBase = 1

// PayloadRegisters is the number of payload registers.
const PayloadRegisters = 4

// RegisterCount is the size of the control register file.
const RegisterCount = RegPayloadBase + PayloadRegisters
