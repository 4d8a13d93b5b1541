// internal/encoder/constants.go
package encoder

// Encoding constants.
// These values define the observable-channel contract and MUST NOT be
// configurable: an external observer with no other read path decodes the
// channel using exactly these numbers.

// ---- CONTEXTS ----

// Each context owns a disjoint 8-value sub-range of the 32-value global
// state space, so a decoded global state identifies its owner with no
// side channel.

// ContextDispatcher is the dispatcher's encoding context.
const ContextDispatcher = 0

// ContextDiagnostics is the diagnostics module's encoding context.
const ContextDiagnostics = 1

// ContextLoader is the loader protocol engine's encoding context.
const ContextLoader = 2

// ContextApplication is reserved for the application after hand-off.
const ContextApplication = 3

// ContextCount is the number of assigned contexts.
const ContextCount = 4

// ---- GEOMETRY ----

// StatesPerContext is the width of one context's sub-range.
const StatesPerContext = 8

// MaxState is the largest local state value.
const MaxState = StatesPerContext - 1

// MaxStatus is the largest status value.
const MaxStatus = 127

// GlobalStates is the size of the global state space.
const GlobalStates = ContextCount * StatesPerContext

// ---- STEP CONSTANTS ----

// StepState is the channel increment per global state.
// StepState and StepStatus are coprime: a magnitude collision would need
// StepState*dg == StepStatus*dt with dg in [1,31] and dt in [1,127], which
// forces dg >= 7 and then dt >= 160, out of range. Every valid magnitude
// therefore has exactly one (context, state, status) decomposition.
const StepState = 160

// StepStatus is the channel increment per status count.
const StepStatus = 7

// MaxMagnitude is the largest encodable magnitude.
const MaxMagnitude = (GlobalStates-1)*StepState + MaxStatus*StepStatus
