// internal/host/describe.go
package host

import (
	"fmt"

	"github.com/sealablab/DPD-001-sub000/internal/diag"
	"github.com/sealablab/DPD-001-sub000/internal/dispatch"
	"github.com/sealablab/DPD-001-sub000/internal/encoder"
	"github.com/sealablab/DPD-001-sub000/internal/loader"
)

// Describe names a channel reading's context and state for operators.
// State names follow the owning module's own vocabulary.
func Describe(s encoder.Sample) (context, state string) {
	switch s.Context {
	case encoder.ContextDispatcher:
		return "dispatcher", dispatch.State(s.State).String()
	case encoder.ContextDiagnostics:
		return "diagnostics", diag.State(s.State).String()
	case encoder.ContextLoader:
		return "loader", loader.Phase(s.State).String()
	case encoder.ContextApplication:
		return "application", fmt.Sprintf("state-%d", s.State)
	}
	return fmt.Sprintf("context-%d", s.Context), fmt.Sprintf("state-%d", s.State)
}
