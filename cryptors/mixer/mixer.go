// Package mixer implements the nonlinear layer of a round.  Each segment is
// multiplied, modulo 65537, by the sum of its right neighbour and the round
// key segment.
//
// Values are taken as elements of the multiplicative group modulo 65537 with
// the 16 bit value 0 standing for 2^16.  A factor can therefore never be 0
// mod 65537 and multiplication by it is a bijection on all 16 bit segment
// values, so the layer is always invertible.
package mixer

import (
	"github.com/bgallie/spn/cryptors"
)

// Q is the prime modulus of the multiplication.
const Q = 0x10001

// mul returns x*y mod 65537, with 0 standing for 2^16 on input and output.
func mul(x, y uint16) uint16 {
	if y == 0 {
		return 1 - x
	}

	if x == 0 {
		return 1 - y
	}

	t32 := uint32(x) * uint32(y)
	x = uint16(t32)
	y = uint16(t32 >> 16)

	if x < y {
		return x - y + 1
	}

	return x - y
}

// mulInv returns the multiplicative inverse of x mod 65537.
func mulInv(x uint16) uint16 {
	if x <= 1 {
		return x // 0 and 1 are self-inverse
	}

	t1 := uint16(Q / uint32(x))
	y := uint16(Q % uint32(x))

	if y == 1 {
		return 1 - t1
	}

	var t0 uint16 = 1
	var q uint16

	for y != 1 {
		q = x / y
		x = x % y
		t0 += q * t1
		if x == 1 {
			return t0
		}
		q = y / x
		y = y % x
		t1 += q * t0
	}

	return 1 - t1
}

// Mix applies the layer in place.  Segments are updated in ascending order,
// so segment 7 is multiplied using the already mixed segment 0.
func Mix(blk *cryptors.Block, key *cryptors.RoundKey) *cryptors.Block {
	for i := range blk {
		blk[i] = mul(blk[i], blk[(i+1)%cryptors.SegmentsPerBlock]+key[i])
	}

	return blk
}

// Unmix undoes Mix.  Segments are restored in descending order so that the
// neighbour used to rebuild each factor holds the same value Mix saw.
func Unmix(blk *cryptors.Block, key *cryptors.RoundKey) *cryptors.Block {
	for i := cryptors.SegmentsPerBlock - 1; i >= 0; i-- {
		blk[i] = mul(blk[i], mulInv(blk[(i+1)%cryptors.SegmentsPerBlock]+key[i]))
	}

	return blk
}

// Mixer is the nonlinear layer of one round.
type Mixer struct {
	key cryptors.RoundKey
}

func New(key cryptors.RoundKey) *Mixer {
	return &Mixer{key: key}
}

func (m *Mixer) Apply_F(blk *cryptors.Block, _ uint64) *cryptors.Block {
	return Mix(blk, &m.key)
}

func (m *Mixer) Apply_G(blk *cryptors.Block, _ uint64) *cryptors.Block {
	return Unmix(blk, &m.key)
}
