// diffuser
package diffuser

import (
	"math/bits"

	"github.com/bgallie/spn/cryptors"
)

// Diffuse rotates each segment left by key[i] mod 16 and XORs it with key[i].
func Diffuse(blk *cryptors.Block, key *cryptors.RoundKey) *cryptors.Block {
	for i, k := range key {
		blk[i] = bits.RotateLeft16(blk[i], int(k%cryptors.BitsPerSegment)) ^ k
	}

	return blk
}

// Undiffuse undoes Diffuse.  A rotation amount of 0 stays 0, the rotation is
// never by the full segment width.
func Undiffuse(blk *cryptors.Block, key *cryptors.RoundKey) *cryptors.Block {
	for i, k := range key {
		blk[i] = bits.RotateLeft16(blk[i]^k, -int(k%cryptors.BitsPerSegment))
	}

	return blk
}

// Diffuser is the rotate and XOR layer of one round.
type Diffuser struct {
	key cryptors.RoundKey
}

func New(key cryptors.RoundKey) *Diffuser {
	return &Diffuser{key: key}
}

func (d *Diffuser) Apply_F(blk *cryptors.Block, _ uint64) *cryptors.Block {
	return Diffuse(blk, &d.key)
}

func (d *Diffuser) Apply_G(blk *cryptors.Block, _ uint64) *cryptors.Block {
	return Undiffuse(blk, &d.key)
}
