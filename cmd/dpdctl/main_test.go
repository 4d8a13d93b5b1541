// cmd/dpdctl/main_test.go
package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sealablab/DPD-001-sub000/internal/config"
	"github.com/sealablab/DPD-001-sub000/internal/loader"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadLaneImages(t *testing.T) {
	bank := writeFile(t, "bank0.bin", []byte{
		0xDE, 0xAD, 0xBE, 0xEF,
		0x00, 0x00, 0x00, 0x01,
	})

	images, err := readLaneImages(config.LoadConfig{
		Lanes: []config.LaneConfig{
			{File: bank},
			{Zero: true},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(images) != 2 {
		t.Fatalf("images=%d", len(images))
	}
	if images[0][0] != 0xDEADBEEF || images[0][1] != 1 {
		t.Fatalf("lane 0 words=%08X %08X", images[0][0], images[0][1])
	}
	if images[1] != nil {
		t.Fatalf("zero lane not nil: %v", images[1])
	}
}

func TestReadLaneImages_RejectsBadFiles(t *testing.T) {
	ragged := writeFile(t, "ragged.bin", []byte{1, 2, 3})
	over := writeFile(t, "over.bin", make([]byte, loader.BytesPerLane+4))

	if _, err := readLaneImages(config.LoadConfig{Lanes: []config.LaneConfig{{File: ragged}}}); err == nil {
		t.Error("partial-word file accepted")
	}
	if _, err := readLaneImages(config.LoadConfig{Lanes: []config.LaneConfig{{File: over}}}); err == nil {
		t.Error("oversize file accepted")
	}
	if _, err := readLaneImages(config.LoadConfig{Lanes: []config.LaneConfig{{File: "missing.bin"}}}); err == nil {
		t.Error("missing file accepted")
	}
}
