// internal/host/errors.go
package host

import (
	"errors"
	"fmt"

	"github.com/sealablab/DPD-001-sub000/internal/encoder"
	"github.com/sealablab/DPD-001-sub000/internal/loader"
)

// ErrTimeout marks an exhausted poll budget. The platform has no notion
// of wall-clock time; "waited long enough" is decided here.
var ErrTimeout = errors.New("observation timeout")

// FaultError is a fault reading observed on the channel.
type FaultError struct {
	Reading encoder.Sample
}

func (e *FaultError) Error() string {
	ctx, state := Describe(e.Reading)
	return fmt.Sprintf("host: platform fault: context=%s state=%s status=%d", ctx, state, e.Reading.Status)
}

// SessionFaultError is a failed load session: the validation checksums
// did not match. LaneMask has one bit per failing lane.
type SessionFaultError struct {
	LaneMask uint8
}

func (e *SessionFaultError) Error() string {
	return fmt.Sprintf("host: load session fault: lanes=%v", e.Lanes())
}

// Lanes lists the failing lane indices.
func (e *SessionFaultError) Lanes() []int {
	var out []int
	for i := 0; i < loader.Lanes; i++ {
		if e.LaneMask&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// faultError converts a fault reading into the most specific error.
func faultError(s encoder.Sample) error {
	if s.Context == encoder.ContextLoader && s.State == int(loader.PhaseFault) {
		return &SessionFaultError{LaneMask: uint8(s.Status)}
	}
	return &FaultError{Reading: s}
}
