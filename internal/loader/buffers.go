// internal/loader/buffers.go
package loader

// Lane geometry constants.
// Geometry is protocol-locked: the controller streams exactly WordsPerLane
// words per lane per session, with no negotiated count field.

// Lanes is the fixed number of target buffers.
const Lanes = 4

// WordsPerLane is the fixed size of one buffer in 32-bit words.
const WordsPerLane = 1024

// BytesPerLane is the fixed size of one buffer in bytes.
const BytesPerLane = WordsPerLane * 4

// BufferSet is the four fixed-size target memories.
// The loader writes them one word per lane per data strobe; after hand-off
// the application reads them. They are zeroed exactly once per enable, on
// the dispatcher's Reset-to-Ready edge.
type BufferSet struct {
	lanes [Lanes][WordsPerLane]uint32
}

// Zero clears every lane.
func (b *BufferSet) Zero() {
	for i := range b.lanes {
		b.lanes[i] = [WordsPerLane]uint32{}
	}
}

// Word returns one stored word. Out-of-range lane or offset returns 0.
func (b *BufferSet) Word(lane, offset int) uint32 {
	if lane < 0 || lane >= Lanes || offset < 0 || offset >= WordsPerLane {
		return 0
	}
	return b.lanes[lane][offset]
}

// Lane returns a copy of one full lane. The backing memory is never
// exposed: the application's view is read-only.
func (b *BufferSet) Lane(lane int) []uint32 {
	if lane < 0 || lane >= Lanes {
		return nil
	}
	out := make([]uint32, WordsPerLane)
	copy(out, b.lanes[lane][:])
	return out
}

func (b *BufferSet) write(lane, offset int, w uint32) {
	b.lanes[lane][offset] = w
}
