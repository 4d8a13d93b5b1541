// internal/encoder/encoder.go
package encoder

import "fmt"

// Sample is one per-clock reading produced by the active module.
// It contains no logic and no memory of the past beyond current state.
type Sample struct {
	Context int
	State   int
	Status  int
	Fault   bool
}

// Valid reports whether the sample is inside the encodable domain.
func (s Sample) Valid() bool {
	if s.Context < 0 || s.Context >= ContextCount {
		return false
	}
	if s.State < 0 || s.State > MaxState {
		return false
	}
	if s.Status < 0 || s.Status > MaxStatus {
		return false
	}
	return true
}

// Equal compares two samples under the channel contract: the all-zero
// faulted sample encodes as -0 and is indistinguishable from the all-zero
// healthy sample, so the two compare equal.
func (s Sample) Equal(o Sample) bool {
	if s.Context == o.Context && s.State == o.State && s.Status == o.Status {
		if s.Fault == o.Fault {
			return true
		}
		// -0 ambiguity: fault is unreadable at zero magnitude.
		return s.Context == 0 && s.State == 0 && s.Status == 0
	}
	return false
}

func (s Sample) String() string {
	return fmt.Sprintf("Sample{ctx=%d state=%d status=%d fault=%v}",
		s.Context, s.State, s.Status, s.Fault)
}

// Encode packs a sample into the signed observable-channel value.
// The magnitude carries (context, state, status); a fault negates the full
// magnitude. Never sign-and-magnitude truncation: -0 collapses to 0.
func Encode(s Sample) int32 {
	g := s.Context*StatesPerContext + s.State
	m := int32(g*StepState + s.Status*StepStatus)
	if s.Fault {
		return -m
	}
	return m
}

// Decode recovers a sample from a channel value.
// It is a bounded search over the 32 global states; step coprimality
// guarantees at most one hit inside the valid domain.
//
// A reading of exactly 0 decodes as the healthy all-zero sample: fault
// MUST NOT be inferred from sign when the magnitude is 0.
func Decode(v int32) (Sample, error) {
	fault := v < 0
	mag := int(v)
	if fault {
		mag = -mag
	}
	if mag > MaxMagnitude {
		return Sample{}, fmt.Errorf("encoder: magnitude out of range: value=%d max=%d", v, MaxMagnitude)
	}

	for g := 0; g < GlobalStates; g++ {
		rem := mag - g*StepState
		if rem < 0 {
			break
		}
		if rem%StepStatus != 0 {
			continue
		}
		status := rem / StepStatus
		if status > MaxStatus {
			continue
		}
		return Sample{
			Context: g / StatesPerContext,
			State:   g % StatesPerContext,
			Status:  status,
			Fault:   fault && mag != 0,
		}, nil
	}

	return Sample{}, fmt.Errorf("encoder: value has no valid decomposition: value=%d", v)
}
