// internal/host/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Bus adapts a Modbus endpoint to the host controller's register model:
// 32-bit control register N lives in holding registers
// {controlBase+2N, controlBase+2N+1}, high word first, and the observable
// channel lives in two input registers read as a big-endian signed 32-bit
// value. It serializes requests: one strobe sequence in flight at a time.
type Bus struct {
	mu      sync.Mutex
	handler interface{ Close() error }
	client  modbus.Client

	controlBase uint16
	channelBase uint16
}

type Config struct {
	// Endpoint is host:port for Modbus TCP, or serial://<device> for RTU.
	Endpoint string
	UnitID   uint8
	BaudRate int // RTU only
	Timeout  time.Duration

	ControlBase uint16
	ChannelBase uint16
}

// serialScheme marks RTU endpoints.
const serialScheme = "serial://"

// New creates a connected bus.
func New(cfg Config) (*Bus, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("host modbus: endpoint required")
	}

	b := &Bus{
		controlBase: cfg.ControlBase,
		channelBase: cfg.ChannelBase,
	}

	if dev, ok := strings.CutPrefix(cfg.Endpoint, serialScheme); ok {
		h := modbus.NewRTUClientHandler(dev)
		h.BaudRate = cfg.BaudRate
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.SlaveId = cfg.UnitID
		h.Timeout = cfg.Timeout
		if err := h.Connect(); err != nil {
			return nil, err
		}
		b.handler = h
		b.client = modbus.NewClient(h)
		return b, nil
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.SlaveId = cfg.UnitID
	h.Timeout = cfg.Timeout
	if err := h.Connect(); err != nil {
		return nil, err
	}
	b.handler = h
	b.client = modbus.NewClient(h)
	return b, nil
}

// Close closes the underlying connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handler == nil {
		return nil
	}
	return b.handler.Close()
}

// ---- host.RegisterBus ----

// WriteRegister writes one 32-bit control register as a register pair.
// Both halves go out in a single FC16 request so the platform never sees
// a torn pair; whole-payload atomicity across registers 1..4 is still the
// strobe discipline's job.
func (b *Bus) WriteRegister(reg uint8, value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	addr := b.controlBase + 2*uint16(reg)
	payload := []byte{
		byte(value >> 24), byte(value >> 16),
		byte(value >> 8), byte(value),
	}

	if _, err := b.client.WriteMultipleRegisters(addr, 2, payload); err != nil {
		return fmt.Errorf("host modbus: write reg=%d addr=%d: %w", reg, addr, err)
	}
	return nil
}

// ReadChannel reads the observable channel pair.
func (b *Bus) ReadChannel() (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	raw, err := b.client.ReadInputRegisters(b.channelBase, 2)
	if err != nil {
		return 0, fmt.Errorf("host modbus: read channel addr=%d: %w", b.channelBase, err)
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf("host modbus: channel read returned %d bytes, want 4", len(raw))
	}

	v := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	return int32(v), nil
}
