package l3pressure

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Rng is a xoshiro256++ generator. The sequence is fully determined by the
// seed so that two runs with the same seed touch the slab in the same order.
//
// An Rng is not safe for concurrent use.
type Rng struct {
	s [4]uint64
}

// SplitMix64 constants used to expand a single word into a full state.
const (
	goldenGamma = 0x9e3779b97f4a7c15
	mixMul1     = 0xbf58476d1ce4e5b9
	mixMul2     = 0x94d049bb133111eb
)

// NewRng expands seed into a 256-bit state using SplitMix64.
func NewRng(seed uint64) *Rng {
	var raw [32]byte
	state := seed
	for i := 0; i < 4; i++ {
		state += goldenGamma
		z := state
		z = (z ^ (z >> 30)) * mixMul1
		z = (z ^ (z >> 27)) * mixMul2
		z ^= z >> 31
		binary.LittleEndian.PutUint64(raw[i*8:], z)
	}
	return NewRngFromSeed(raw)
}

// NewRngFromSeed uses seed as four little-endian state words.
// The all-zero seed is not a valid xoshiro state and is replaced by NewRng(0).
func NewRngFromSeed(seed [32]byte) *Rng {
	if seed == ([32]byte{}) {
		return NewRng(0)
	}
	r := &Rng{}
	for i := range r.s {
		r.s[i] = binary.LittleEndian.Uint64(seed[i*8:])
	}
	return r
}

// Uint64 advances the state and returns the next value.
func (r *Rng) Uint64() uint64 {
	result := bits.RotateLeft64(r.s[0]+r.s[3], 23) + r.s[0]

	t := r.s[1] << 17

	r.s[2] ^= r.s[0]
	r.s[3] ^= r.s[1]
	r.s[1] ^= r.s[2]
	r.s[0] ^= r.s[3]

	r.s[2] ^= t

	r.s[3] = bits.RotateLeft64(r.s[3], 45)

	return result
}

// Index returns a uniformly distributed value in [0, size).
// Draws falling in the tail past the last complete multiple of size are
// rejected, so the result carries no modulo bias.
//
// Index panics if size <= 0.
func (r *Rng) Index(size int) int {
	if size <= 0 {
		panic("l3pressure: Index called with non-positive size")
	}
	n := uint64(size)
	zone := n * (math.MaxUint64 / n)
	for {
		v := r.Uint64()
		if v < zone {
			return int(v % n)
		}
	}
}
