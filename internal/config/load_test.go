// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "controller.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := write(t, `
controller:
  endpoint: "192.0.2.10:1502"
  unit_id: 7
  timeout_ms: 250
  registers:
    control_base: 100
    channel_base: 40
  timing:
    strobe_hold_ms: 30
    settle_ms: 10
    poll_interval_ms: 25
    poll_timeout_ms: 10000
  load:
    lanes:
      - file: bank0.bin
      - zero: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := cfg.Controller
	if c.Endpoint != "192.0.2.10:1502" || c.UnitID != 7 || c.TimeoutMs != 250 {
		t.Fatalf("controller=%+v", c)
	}
	if c.Registers.ControlBase != 100 || c.Registers.ChannelBase != 40 {
		t.Fatalf("registers=%+v", c.Registers)
	}
	if c.Timing.StrobeHoldMs != 30 || c.Timing.PollTimeoutMs != 10000 {
		t.Fatalf("timing=%+v", c.Timing)
	}
	if len(c.Load.Lanes) != 2 || c.Load.Lanes[0].File != "bank0.bin" || !c.Load.Lanes[1].Zero {
		t.Fatalf("lanes=%+v", c.Load.Lanes)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := write(t, `
controller:
  endpoint: "192.0.2.10:1502"
  strobe_hold_ms: 30
`)

	if _, err := Load(path); err == nil {
		t.Fatal("misplaced timing key accepted")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}
