// internal/ctrlword/ctrlword.go
package ctrlword

// Register 0 wire layout.
// These bit positions are protocol-locked and MUST NOT be configurable:
// interoperability with the external controller depends on the exact layout.
//
//	bits[31:29]  gate      (all three must be set to enable anything)
//	bits[28:25]  one-hot module select
//	bit[24]      return/request
//	bits[23:22]  bank select (latched; reserved for post-load reads)
//	bit[21]      setup/data strobe (loader only, falling-edge significant)
//	bits[20:0]   reserved, ignored
const (
	GateMask  uint32 = 0b111 << 29
	GateShift        = 29

	SelectMask  uint32 = 0b1111 << 25
	SelectShift        = 25

	ReturnBit uint32 = 1 << 24

	BankMask  uint32 = 0b11 << 22
	BankShift        = 22

	StrobeBit uint32 = 1 << 21
)

// One-hot select bits. Bit 28 is reserved: setting it, alone or combined,
// is a protocol violation.
const (
	SelectDiagnostics uint32 = 1 << 25
	SelectLoader      uint32 = 1 << 26
	SelectApplication uint32 = 1 << 27
	SelectReserved    uint32 = 1 << 28
)

// Module identifies a dispatch target decoded from the select field.
type Module int

const (
	ModuleNone Module = iota
	ModuleDiagnostics
	ModuleLoader
	ModuleApplication
)

func (m Module) String() string {
	switch m {
	case ModuleNone:
		return "none"
	case ModuleDiagnostics:
		return "diagnostics"
	case ModuleLoader:
		return "loader"
	case ModuleApplication:
		return "application"
	}
	return "invalid"
}

// Word is one decoded sample of register 0.
// The raw register is rewritten freely by the external controller and
// sampled every clock edge; Word is a pure view, never written back.
type Word struct {
	Raw uint32

	Gated  bool   // all three gate bits set
	Select Module // decoded module when exactly one valid bit is set
	Return bool
	Bank   uint8
	Strobe bool

	// SelectViolation is set when the select field is structurally invalid:
	// two or more bits, or any use of the reserved bit.
	SelectViolation bool
}

// Decode samples a raw register 0 value into a Word.
func Decode(raw uint32) Word {
	w := Word{
		Raw:    raw,
		Gated:  raw&GateMask == GateMask,
		Return: raw&ReturnBit != 0,
		Bank:   uint8((raw & BankMask) >> BankShift),
		Strobe: raw&StrobeBit != 0,
	}

	sel := raw & SelectMask
	switch {
	case sel == 0:
		w.Select = ModuleNone
	case sel == SelectDiagnostics:
		w.Select = ModuleDiagnostics
	case sel == SelectLoader:
		w.Select = ModuleLoader
	case sel == SelectApplication:
		w.Select = ModuleApplication
	default:
		// Multiple bits, or the reserved bit in any combination.
		w.SelectViolation = true
	}

	return w
}

// ---- BUILD HELPERS (controller side) ----

// Gate returns the all-enabled gate field.
func Gate() uint32 {
	return GateMask
}

// SelectBit returns the select bit for a module, 0 for ModuleNone.
func SelectBit(m Module) uint32 {
	switch m {
	case ModuleDiagnostics:
		return SelectDiagnostics
	case ModuleLoader:
		return SelectLoader
	case ModuleApplication:
		return SelectApplication
	}
	return 0
}
