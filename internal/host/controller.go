// internal/host/controller.go
package host

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sealablab/DPD-001-sub000/internal/crc16"
	"github.com/sealablab/DPD-001-sub000/internal/ctrlword"
	"github.com/sealablab/DPD-001-sub000/internal/diag"
	"github.com/sealablab/DPD-001-sub000/internal/dispatch"
	"github.com/sealablab/DPD-001-sub000/internal/encoder"
	"github.com/sealablab/DPD-001-sub000/internal/loader"
)

// RegisterBus is the exact transport contract the controller uses.
// IMPORTANT: There must be NO other version of this interface anywhere.
// Write latency is bounded but unknown; WriteRegister returning only means
// the write was sent, never that the platform has sampled it.
type RegisterBus interface {
	WriteRegister(reg uint8, value uint32) error
	ReadChannel() (int32, error)
}

// Timing is the blind-handshake margin set.
// The platform never acknowledges: correctness rests entirely on these
// margins exceeding the worst plausible write latency.
type Timing struct {
	StrobeHold   time.Duration
	Settle       time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Controller drives the pre-application control plane from the host side.
//
// Its only feedback is the encoded observable channel; everything else is
// fire-and-forget register writes paced by Timing.
type Controller struct {
	bus    RegisterBus
	timing Timing
	log    zerolog.Logger

	// Sleep is the margin primitive. Tests replace it to drive phases by
	// discrete strobe events; production keeps time.Sleep.
	Sleep func(time.Duration)
}

// New creates a controller over bus.
func New(bus RegisterBus, timing Timing, log zerolog.Logger) *Controller {
	return &Controller{
		bus:    bus,
		timing: timing,
		log:    log,
		Sleep:  time.Sleep,
	}
}

// ---- PRIMITIVES ----

func (c *Controller) writeControl(v uint32) error {
	if err := c.bus.WriteRegister(dispatch.RegControl, v); err != nil {
		return fmt.Errorf("host: control write failed: %w", err)
	}
	return nil
}

// pulseStrobe raises the strobe on top of ctrl, holds it one full margin
// so the platform sees a clean level, then drops it to produce the
// falling edge the platform latches on.
func (c *Controller) pulseStrobe(ctrl uint32) error {
	if err := c.writeControl(ctrl | ctrlword.StrobeBit); err != nil {
		return err
	}
	c.Sleep(c.timing.StrobeHold)
	if err := c.writeControl(ctrl); err != nil {
		return err
	}
	c.Sleep(c.timing.Settle)
	return nil
}

// Status reads and decodes the observable channel.
func (c *Controller) Status() (encoder.Sample, error) {
	v, err := c.bus.ReadChannel()
	if err != nil {
		return encoder.Sample{}, fmt.Errorf("host: channel read failed: %w", err)
	}
	s, err := encoder.Decode(v)
	if err != nil {
		return encoder.Sample{}, fmt.Errorf("host: %w", err)
	}
	return s, nil
}

// Clear drops the gate: the unconditional external reset. It is the only
// recovery from Fault and the only exit from the application hand-off.
func (c *Controller) Clear() error {
	if err := c.writeControl(0); err != nil {
		return err
	}
	c.Sleep(c.timing.Settle)
	return nil
}

// Enable clears, then raises the gate, and confirms Ready on the channel.
func (c *Controller) Enable() error {
	if err := c.Clear(); err != nil {
		return err
	}
	if err := c.writeControl(ctrlword.Gate()); err != nil {
		return err
	}
	c.Sleep(c.timing.Settle)
	return c.await(func(s encoder.Sample) bool {
		return s.Context == encoder.ContextDispatcher && s.State == int(dispatch.StateReady)
	}, "ready")
}

// ReturnToReady releases the active submodule.
func (c *Controller) ReturnToReady() error {
	if err := c.writeControl(ctrlword.Gate() | ctrlword.ReturnBit); err != nil {
		return err
	}
	c.Sleep(c.timing.Settle)
	if err := c.writeControl(ctrlword.Gate()); err != nil {
		return err
	}
	return c.await(func(s encoder.Sample) bool {
		return s.Context == encoder.ContextDispatcher && s.State == int(dispatch.StateReady)
	}, "ready")
}

// await polls the channel until cond holds, a fault surfaces, or the poll
// budget runs out. Timeouts live here, on the host side, by design: the
// platform itself waits forever.
func (c *Controller) await(cond func(encoder.Sample) bool, what string) error {
	attempts := 1
	if c.timing.PollInterval > 0 {
		attempts += int(c.timing.PollTimeout / c.timing.PollInterval)
	}

	var last encoder.Sample
	for i := 0; i < attempts; i++ {
		s, err := c.Status()
		if err != nil {
			return err
		}
		if cond(s) {
			return nil
		}
		if s.Fault {
			return faultError(s)
		}
		last = s
		c.Sleep(c.timing.PollInterval)
	}
	return fmt.Errorf("host: %w waiting for %s: last reading %v", ErrTimeout, what, last)
}

// ---- DIAGNOSTICS ----

// RunDiagnostics dispatches the diagnostics module, waits for its fixed
// sequence to finish, and returns control.
func (c *Controller) RunDiagnostics() error {
	if err := c.Enable(); err != nil {
		return err
	}

	ctrl := ctrlword.Gate() | ctrlword.SelectDiagnostics
	if err := c.writeControl(ctrl); err != nil {
		return err
	}
	c.log.Info().Msg("diagnostics dispatched")

	err := c.await(func(s encoder.Sample) bool {
		return s.Context == encoder.ContextDiagnostics && s.State == int(diag.StateDone)
	}, "diagnostics done")
	if err != nil {
		return err
	}

	c.log.Info().Msg("diagnostics done")
	return c.ReturnToReady()
}

// ---- LOAD SESSION ----

// logEvery paces transfer progress logging.
const logEvery = 128

// LoadImages runs one complete blind-handshake load session.
//
// Each lane image may hold up to loader.WordsPerLane words; short or
// missing lanes are zero-padded, since the platform always writes all
// four lanes. Expected checksums are computed locally with the shared
// CRC and pre-declared during Setup. A checksum fault is fatal to the
// session and is never retried here: recovery is Clear plus a fresh call.
func (c *Controller) LoadImages(images [][]uint32) error {
	if len(images) > loader.Lanes {
		return fmt.Errorf("host: %d lane images, protocol carries %d", len(images), loader.Lanes)
	}

	var lanes [loader.Lanes][]uint32
	var expected [loader.Lanes]uint16
	for i := range lanes {
		var img []uint32
		if i < len(images) {
			img = images[i]
		}
		if len(img) > loader.WordsPerLane {
			return fmt.Errorf("host: lane %d image is %d words, max %d", i, len(img), loader.WordsPerLane)
		}
		lane := make([]uint32, loader.WordsPerLane)
		copy(lane, img)
		lanes[i] = lane
		expected[i] = crc16.ChecksumWords(lane)
	}

	if err := c.Enable(); err != nil {
		return err
	}

	ctrl := ctrlword.Gate() | ctrlword.SelectLoader
	if err := c.writeControl(ctrl); err != nil {
		return err
	}
	c.Sleep(c.timing.Settle)

	// Setup: declare the checksums, then latch them with one pulse.
	for i := range expected {
		if err := c.bus.WriteRegister(uint8(dispatch.RegPayloadBase+i), uint32(expected[i])); err != nil {
			return fmt.Errorf("host: checksum write failed: lane=%d: %w", i, err)
		}
	}
	if err := c.pulseStrobe(ctrl); err != nil {
		return err
	}
	c.log.Info().
		Hex("crc0", []byte{byte(expected[0] >> 8), byte(expected[0])}).
		Msg("setup latched")

	// Transfer: fixed word count, one pulse per offset, no acknowledgment.
	for off := 0; off < loader.WordsPerLane; off++ {
		for i := range lanes {
			if err := c.bus.WriteRegister(uint8(dispatch.RegPayloadBase+i), lanes[i][off]); err != nil {
				return fmt.Errorf("host: data write failed: lane=%d offset=%d: %w", i, off, err)
			}
		}
		if err := c.pulseStrobe(ctrl); err != nil {
			return err
		}
		if (off+1)%logEvery == 0 {
			c.log.Debug().Int("offset", off+1).Msg("transfer progress")
		}
	}

	// Validate runs on-platform; only the channel says how it went.
	err := c.await(func(s encoder.Sample) bool {
		return s.Context == encoder.ContextLoader && s.State == int(loader.PhaseComplete)
	}, "load complete")
	if err != nil {
		return err
	}

	c.log.Info().Msg("load session complete")
	return c.ReturnToReady()
}

// ---- HAND-OFF ----

// HandOff dispatches the application. The transition is one-way: after
// this, only Clear ever takes the platform back.
func (c *Controller) HandOff() error {
	if err := c.writeControl(ctrlword.Gate() | ctrlword.SelectApplication); err != nil {
		return err
	}
	c.Sleep(c.timing.Settle)
	c.log.Info().Msg("application hand-off issued")
	return nil
}
