// internal/crc16/crc16.go
package crc16

// CRC-16/CCITT-FALSE: polynomial 0x1021, all-ones seed, no reflection,
// no final xor. This variant is protocol-locked; the loader engine and the
// host client MUST agree on it bit for bit.

// Poly is the fixed generator polynomial.
const Poly uint16 = 0x1021

// Seed is the all-ones initial accumulator value.
const Seed uint16 = 0xFFFF

// Accumulator is a running CRC-16 over a word stream.
// The zero value is NOT valid; use New or Reset before feeding data.
type Accumulator struct {
	crc uint16
}

// New returns an accumulator initialized to Seed.
func New() Accumulator {
	return Accumulator{crc: Seed}
}

// Reset rewinds the accumulator to Seed.
func (a *Accumulator) Reset() {
	a.crc = Seed
}

// Sum returns the current accumulator value.
func (a *Accumulator) Sum() uint16 {
	return a.crc
}

// UpdateByte feeds one byte into the accumulator.
func (a *Accumulator) UpdateByte(b byte) {
	crc := a.crc ^ uint16(b)<<8
	for i := 0; i < 8; i++ {
		if crc&0x8000 != 0 {
			crc = crc<<1 ^ Poly
		} else {
			crc <<= 1
		}
	}
	a.crc = crc
}

// UpdateWord feeds one 32-bit word, most significant byte first.
// Byte order within a word is protocol-locked.
func (a *Accumulator) UpdateWord(w uint32) {
	a.UpdateByte(byte(w >> 24))
	a.UpdateByte(byte(w >> 16))
	a.UpdateByte(byte(w >> 8))
	a.UpdateByte(byte(w))
}

// Checksum computes the CRC of a byte slice in one call.
func Checksum(data []byte) uint16 {
	a := New()
	for _, b := range data {
		a.UpdateByte(b)
	}
	return a.Sum()
}

// ChecksumWords computes the CRC of a word slice, each word MSB first.
func ChecksumWords(words []uint32) uint16 {
	a := New()
	for _, w := range words {
		a.UpdateWord(w)
	}
	return a.Sum()
}
