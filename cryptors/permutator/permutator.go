// permutator project permutator.go
package permutator

import (
	"encoding/binary"

	mtwist "blitter.com/go/mtwist"
	"github.com/bgallie/spn/cryptors"
	"github.com/bgallie/spn/cryptors/bitops"
)

const (
	// SeedConstant is XORed with the round number to form the round seed.
	SeedConstant uint64 = 0xDEADBEEF
	seedLength          = 64 // bytes fed to SeedFullState
	discard             = 64 // initial PRNG outputs thrown away
)

// Permutation maps bit position i of a block to bit position Permutation[i].
// Every value 0 - 127 appears exactly once.
type Permutation [cryptors.CypherBlockSize]byte

// RoundSeed returns the seed used to generate the permutations for round r.
func RoundSeed(r int) uint64 {
	return SeedConstant ^ uint64(r)
}

// GeneratePermutation returns the permutation selected by roundSeed and
// blockIndex.  The same arguments always produce the same permutation, so it
// is recomputed whenever it is needed rather than stored.
//
// The identity permutation is shuffled with Fisher-Yates, drawing from an
// MT19937-64 generator seeded with the two values.
func GeneratePermutation(roundSeed, blockIndex uint64) Permutation {
	var perm Permutation
	for i := range perm {
		perm[i] = byte(i)
	}

	prng := mtwist.New()
	prng.SeedFullState(seedBytes(roundSeed, blockIndex))
	for i := 0; i < discard; i++ {
		_ = prng.Int63()
	}

	for i := len(perm) - 1; i > 0; i-- {
		j := int63n(prng, int64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}

	return perm
}

// Inverse returns the permutation that undoes perm.
func Inverse(perm *Permutation) Permutation {
	var inv Permutation
	for i, v := range perm {
		inv[v] = byte(i)
	}
	return inv
}

// seedBytes lays out roundSeed and blockIndex (big endian) alternately,
// XORing each repetition with its number, to fill seedLength bytes.
func seedBytes(roundSeed, blockIndex uint64) []byte {
	seed := make([]byte, 0, seedLength)
	for rep := uint64(0); rep < seedLength/16; rep++ {
		seed = binary.BigEndian.AppendUint64(seed, roundSeed^rep)
		seed = binary.BigEndian.AppendUint64(seed, blockIndex^rep)
	}
	return seed
}

// int63n returns a uniform value in [0, n) using rejection sampling.
func int63n(prng *mtwist.MT19937_64, n int64) int64 {
	max := int64((1 << 63) - 1 - (1<<63)%uint64(n))
	v := prng.Int63()
	for v > max {
		v = prng.Int63()
	}
	return v % n
}

// Permutator is the bit permutation layer of a single round.
type Permutator struct {
	roundSeed uint64
}

// New creates the permutator for round r.
func New(r int) *Permutator {
	return &Permutator{roundSeed: RoundSeed(r)}
}

// Permutation returns the bit permutation this round uses for blockIndex.
func (p *Permutator) Permutation(blockIndex uint64) Permutation {
	return GeneratePermutation(p.roundSeed, blockIndex)
}

// Apply_F moves bit i of the block to bit bitPerm[i].
func (p *Permutator) Apply_F(blk *cryptors.Block, blockIndex uint64) *cryptors.Block {
	bitPerm := p.Permutation(blockIndex)
	*blk = permute(blk, &bitPerm)
	return blk
}

// Apply_G moves the bits back using the inverse of the permutation used by
// Apply_F for the same block index.
func (p *Permutator) Apply_G(blk *cryptors.Block, blockIndex uint64) *cryptors.Block {
	bitPerm := p.Permutation(blockIndex)
	invPerm := Inverse(&bitPerm)
	*blk = permute(blk, &invPerm)
	return blk
}

func permute(blk *cryptors.Block, perm *Permutation) cryptors.Block {
	var res cryptors.Block

	for i, v := range perm {
		if bitops.GetBit(blk[:], uint(i)) {
			bitops.SetBit(res[:], uint(v))
		}
	}

	return res
}
