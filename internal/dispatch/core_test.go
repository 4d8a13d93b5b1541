// internal/dispatch/core_test.go
package dispatch

import (
	"testing"

	"github.com/sealablab/DPD-001-sub000/internal/crc16"
	"github.com/sealablab/DPD-001-sub000/internal/ctrlword"
	"github.com/sealablab/DPD-001-sub000/internal/encoder"
	"github.com/sealablab/DPD-001-sub000/internal/loader"
)

const gate = ctrlword.GateMask

func mustWrite(t *testing.T, c *Core, reg uint8, v uint32) {
	t.Helper()
	if err := c.WriteRegister(reg, v); err != nil {
		t.Fatalf("write reg %d: %v", reg, err)
	}
}

func tick(c *Core, n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

// ready returns a core brought to Ready.
func ready(t *testing.T) *Core {
	t.Helper()
	c := New(Config{})
	mustWrite(t, c, RegControl, gate)
	tick(c, 1)
	if c.state != StateReady {
		t.Fatalf("setup: state=%v want Ready", c.state)
	}
	return c
}

// pulseStrobe raises then drops the strobe bit on top of ctrl, ticking the
// clock so the falling edge is observed.
func pulseStrobe(t *testing.T, c *Core, ctrl uint32) {
	t.Helper()
	mustWrite(t, c, RegControl, ctrl|ctrlword.StrobeBit)
	tick(c, 1)
	mustWrite(t, c, RegControl, ctrl)
	tick(c, 1)
}

// reading decodes the observable channel.
func reading(t *testing.T, c *Core) encoder.Sample {
	t.Helper()
	s, err := encoder.Decode(c.Output())
	if err != nil {
		t.Fatalf("channel value %d undecodable: %v", c.Output(), err)
	}
	return s
}

// ---- GATE AND RESET ----

func TestGate_UngatedForcesReset(t *testing.T) {
	start := map[string]func(t *testing.T) *Core{
		"ready": ready,
		"diagnostics": func(t *testing.T) *Core {
			c := ready(t)
			mustWrite(t, c, RegControl, gate|ctrlword.SelectDiagnostics)
			tick(c, 1)
			return c
		},
		"loader": func(t *testing.T) *Core {
			c := ready(t)
			mustWrite(t, c, RegControl, gate|ctrlword.SelectLoader)
			tick(c, 1)
			return c
		},
		"application": func(t *testing.T) *Core {
			c := ready(t)
			mustWrite(t, c, RegControl, gate|ctrlword.SelectApplication)
			tick(c, 1)
			return c
		},
		"fault": func(t *testing.T) *Core {
			c := ready(t)
			mustWrite(t, c, RegControl, gate|ctrlword.SelectDiagnostics|ctrlword.SelectLoader)
			tick(c, 1)
			return c
		},
	}

	for name, build := range start {
		c := build(t)
		// Two of three gate bits is not gated.
		mustWrite(t, c, RegControl, 0b110<<ctrlword.GateShift)
		tick(c, 1)
		if c.state != StateReset {
			t.Errorf("%s: gate drop left state=%v", name, c.state)
		}
	}
}

func TestReset_ZeroesBuffersOnReadyEdgeOnly(t *testing.T) {
	c := ready(t)

	// Park a word in lane memory through a partial loader session.
	sel := gate | ctrlword.SelectLoader
	mustWrite(t, c, RegControl, sel)
	tick(c, 1)
	pulseStrobe(t, c, sel) // setup latch
	mustWrite(t, c, RegPayloadBase, 0xBEEF)
	pulseStrobe(t, c, sel) // one data word
	if got := c.buffers.Word(0, 0); got != 0xBEEF {
		t.Fatalf("word not written: 0x%X", got)
	}

	// Return to Ready and re-dispatch: no reset happened, memory survives.
	mustWrite(t, c, RegControl, gate|ctrlword.ReturnBit)
	tick(c, 1)
	if c.state != StateReady {
		t.Fatalf("return: state=%v", c.state)
	}
	mustWrite(t, c, RegControl, sel)
	tick(c, 1)
	if got := c.buffers.Word(0, 0); got != 0xBEEF {
		t.Fatalf("re-dispatch cleared memory: 0x%X", got)
	}

	// Full external reset does clear, once, on the Reset->Ready edge.
	mustWrite(t, c, RegControl, 0)
	tick(c, 1)
	if got := c.buffers.Word(0, 0); got != 0xBEEF {
		t.Fatal("buffers cleared while still in Reset")
	}
	mustWrite(t, c, RegControl, gate)
	tick(c, 1)
	if got := c.buffers.Word(0, 0); got != 0 {
		t.Fatalf("buffers not zeroed on Ready edge: 0x%X", got)
	}
}

// ---- MUTUAL EXCLUSION ----

func TestSelect_MutualExclusion(t *testing.T) {
	bits := []uint32{
		ctrlword.SelectDiagnostics,
		ctrlword.SelectLoader,
		ctrlword.SelectApplication,
		ctrlword.SelectReserved,
	}

	// Every pair, regardless of which bits, faults after one clock.
	for i := 0; i < len(bits); i++ {
		for j := i + 1; j < len(bits); j++ {
			c := ready(t)
			mustWrite(t, c, RegControl, gate|bits[i]|bits[j])
			tick(c, 1)
			if c.state != StateFault || c.faultCause != FaultCauseSelect {
				t.Errorf("bits %d+%d: state=%v cause=%d", i, j, c.state, c.faultCause)
			}
		}
	}

	// The reserved bit alone is also structurally invalid.
	c := ready(t)
	mustWrite(t, c, RegControl, gate|ctrlword.SelectReserved)
	tick(c, 1)
	if c.state != StateFault {
		t.Errorf("reserved select: state=%v", c.state)
	}

	// All four at once.
	c = ready(t)
	mustWrite(t, c, RegControl, gate|bits[0]|bits[1]|bits[2]|bits[3])
	tick(c, 1)
	if c.state != StateFault {
		t.Errorf("all select bits: state=%v", c.state)
	}
}

func TestSelect_ViolationWhileActive(t *testing.T) {
	c := ready(t)
	mustWrite(t, c, RegControl, gate|ctrlword.SelectDiagnostics)
	tick(c, 1)
	if c.state != StateDiagnosticsActive {
		t.Fatalf("state=%v", c.state)
	}

	mustWrite(t, c, RegControl, gate|ctrlword.SelectDiagnostics|ctrlword.SelectLoader)
	tick(c, 1)
	if c.state != StateFault || c.faultCause != FaultCauseSelect {
		t.Fatalf("state=%v cause=%d", c.state, c.faultCause)
	}
}

// ---- FAULT STATE ----

func TestFault_TerminalUntilClear(t *testing.T) {
	c := ready(t)
	mustWrite(t, c, RegControl, gate|ctrlword.SelectDiagnostics|ctrlword.SelectLoader)
	tick(c, 1)

	// No control word with the gate held leaves Fault.
	for _, w := range []uint32{
		gate,
		gate | ctrlword.ReturnBit,
		gate | ctrlword.SelectDiagnostics,
		gate | ctrlword.SelectApplication | ctrlword.ReturnBit,
		gate | ctrlword.StrobeBit,
	} {
		mustWrite(t, c, RegControl, w)
		tick(c, 2)
		if c.state != StateFault {
			t.Fatalf("word 0x%08X escaped Fault: state=%v", w, c.state)
		}
	}

	// Select-violation faults surface on the channel as the dispatcher's
	// own faulted state naming the cause.
	tick(c, 1)
	s := reading(t, c)
	want := encoder.Sample{
		Context: encoder.ContextDispatcher,
		State:   int(StateFault),
		Status:  FaultCauseSelect,
		Fault:   true,
	}
	if s != want {
		t.Fatalf("channel reading=%v want %v", s, want)
	}

	// Gate drop is the only recovery.
	mustWrite(t, c, RegControl, 0)
	tick(c, 1)
	if c.state != StateReset || c.faultCause != FaultCauseNone {
		t.Fatalf("clear: state=%v cause=%d", c.state, c.faultCause)
	}
}

// ---- ONE-WAY HAND-OFF ----

func TestApplication_OneWayHandOff(t *testing.T) {
	c := ready(t)
	mustWrite(t, c, RegControl, gate|ctrlword.SelectApplication)
	tick(c, 1)
	if c.state != StateApplicationActive {
		t.Fatalf("state=%v", c.state)
	}

	// No gated control word sequence leaves ApplicationActive, including
	// words that would fault any other state.
	for _, w := range []uint32{
		gate | ctrlword.ReturnBit,
		gate | ctrlword.SelectDiagnostics,
		gate | ctrlword.SelectDiagnostics | ctrlword.SelectLoader,
		gate | ctrlword.SelectReserved,
		gate | ctrlword.StrobeBit | ctrlword.ReturnBit,
		gate,
	} {
		mustWrite(t, c, RegControl, w)
		tick(c, 3)
		if c.state != StateApplicationActive {
			t.Fatalf("word 0x%08X broke hand-off: state=%v", w, c.state)
		}
	}

	// Full external reset is the single exit.
	mustWrite(t, c, RegControl, 0)
	tick(c, 1)
	if c.state != StateReset {
		t.Fatalf("state=%v", c.state)
	}
}

// fakeApp records the hand-off and feeds the shared encoder.
type fakeApp struct {
	mem       Memory
	activated int
	ticks     int
	sample    encoder.Sample
	mute      bool
}

func (a *fakeApp) Activate(mem Memory) { a.mem = mem; a.activated++ }

func (a *fakeApp) Tick(word ctrlword.Word, payload [PayloadRegisters]uint32) { a.ticks++ }

func (a *fakeApp) Sample() (encoder.Sample, bool) { return a.sample, !a.mute }

func TestApplication_SampleMuxedFaultsIgnored(t *testing.T) {
	app := &fakeApp{sample: encoder.Sample{
		Context: encoder.ContextApplication,
		State:   2,
		Status:  40,
		Fault:   true, // application fault: muxed out, never acted on
	}}

	c := New(Config{Application: app})
	mustWrite(t, c, RegControl, gate)
	tick(c, 1)
	mustWrite(t, c, RegControl, gate|ctrlword.SelectApplication)
	tick(c, 2)

	if app.activated != 1 {
		t.Fatalf("activated %d times", app.activated)
	}
	if app.mem == nil {
		t.Fatal("no memory view handed off")
	}
	if app.ticks == 0 {
		t.Fatal("application not ticked")
	}

	// The application's faulted sample passes through verbatim...
	if s := reading(t, c); !s.Equal(app.sample) {
		t.Fatalf("channel=%v want %v", s, app.sample)
	}
	// ...and the dispatcher keeps no supervisory authority over it.
	if c.state != StateApplicationActive {
		t.Fatalf("dispatcher reacted to application fault: state=%v", c.state)
	}

	// Forfeiting observability falls back to the dispatcher's own state.
	app.mute = true
	tick(c, 2)
	s := reading(t, c)
	if s.Context != encoder.ContextDispatcher || s.State != int(StateApplicationActive) {
		t.Fatalf("forfeited reading=%v", s)
	}
}

// ---- DIAGNOSTICS DISPATCH ----

func TestDiagnostics_RunAndReturn(t *testing.T) {
	c := New(Config{DiagCountdown: 4})
	mustWrite(t, c, RegControl, gate)
	tick(c, 1)
	mustWrite(t, c, RegControl, gate|ctrlword.SelectDiagnostics)
	tick(c, 1)
	if c.state != StateDiagnosticsActive {
		t.Fatalf("state=%v", c.state)
	}

	// Idle -> Running -> (4 ticks) -> Done, one extra tick for the latch.
	tick(c, 6)
	s := reading(t, c)
	if s.Context != encoder.ContextDiagnostics || s.State != 2 /* Done */ {
		t.Fatalf("reading=%v", s)
	}

	mustWrite(t, c, RegControl, gate|ctrlword.ReturnBit)
	tick(c, 1)
	if c.state != StateReady {
		t.Fatalf("return: state=%v", c.state)
	}
}

// ---- LOADER DISPATCH ----

// runSession drives a full loader session, same word on all lanes.
func runSession(t *testing.T, c *Core, expected [4]uint16, word uint32) {
	t.Helper()
	sel := gate | ctrlword.SelectLoader
	mustWrite(t, c, RegControl, sel)
	tick(c, 1)
	if c.state != StateLoaderActive {
		t.Fatalf("state=%v want LoaderActive", c.state)
	}

	for i := 0; i < 4; i++ {
		mustWrite(t, c, uint8(RegPayloadBase+i), uint32(expected[i]))
	}
	pulseStrobe(t, c, sel)

	for i := 0; i < 4; i++ {
		mustWrite(t, c, uint8(RegPayloadBase+i), word)
	}
	for i := 0; i < loader.WordsPerLane; i++ {
		pulseStrobe(t, c, sel)
	}
	// Validate clock, fault propagation clock, output latch clock.
	tick(c, 3)
}

func TestLoader_SessionCompletes(t *testing.T) {
	const zeroCRC = 0xEFDF // locked CRC-16 of an all-zero lane
	c := ready(t)

	runSession(t, c, [4]uint16{zeroCRC, zeroCRC, zeroCRC, zeroCRC}, 0)

	if c.state != StateLoaderActive {
		t.Fatalf("state=%v", c.state)
	}
	s := reading(t, c)
	want := encoder.Sample{
		Context: encoder.ContextLoader,
		State:   int(loader.PhaseComplete),
		Status:  encoder.MaxStatus,
	}
	if s != want {
		t.Fatalf("reading=%v want %v", s, want)
	}

	// Complete returns to the dispatcher on the return bit, like any
	// other submodule.
	mustWrite(t, c, RegControl, gate|ctrlword.ReturnBit)
	tick(c, 1)
	if c.state != StateReady {
		t.Fatalf("return: state=%v", c.state)
	}
}

func TestLoader_ChecksumFaultPropagates(t *testing.T) {
	word := uint32(0xDEADBEEF)
	good := crc16.ChecksumWords(wordLane(word))

	c := ready(t)
	// Lane 2 expectation is off by one bit; the rest are correct.
	runSession(t, c, [4]uint16{good, good, good ^ 0x4000, good}, word)

	if c.state != StateFault || c.faultCause != FaultCauseLoader {
		t.Fatalf("state=%v cause=%d", c.state, c.faultCause)
	}

	// The channel goes negative while the magnitude still names the
	// failing lane through the loader's own context.
	if c.Output() >= 0 {
		t.Fatalf("channel not negative: %d", c.Output())
	}
	s := reading(t, c)
	if s.Context != encoder.ContextLoader || s.State != int(loader.PhaseFault) || !s.Fault {
		t.Fatalf("reading=%v", s)
	}
	if s.Status != 0b0100 {
		t.Fatalf("failing-lane mask=%04b want 0100", s.Status)
	}
}

func wordLane(w uint32) []uint32 {
	lane := make([]uint32, loader.WordsPerLane)
	for i := range lane {
		lane[i] = w
	}
	return lane
}

// ---- OUTPUT LATCH ----

func TestOutput_OneClockRegisteredLatency(t *testing.T) {
	c := New(Config{})
	mustWrite(t, c, RegControl, gate)

	// The edge that moves Reset->Ready latches the pre-edge sample.
	tick(c, 1)
	if s := reading(t, c); s.State != int(StateReset) {
		t.Fatalf("output ahead of register stage: %v", s)
	}
	tick(c, 1)
	if s := reading(t, c); s.State != int(StateReady) {
		t.Fatalf("output did not follow state: %v", s)
	}
}

func TestWriteRegister_Bounds(t *testing.T) {
	c := New(Config{})
	if err := c.WriteRegister(RegisterCount, 0); err == nil {
		t.Fatal("out-of-range register accepted")
	}
	if err := c.WriteRegister(RegisterCount-1, 0xFFFF_FFFF); err != nil {
		t.Fatalf("in-range register rejected: %v", err)
	}
}
