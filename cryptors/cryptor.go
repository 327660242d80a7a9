// cyptor
package cryptors

import (
	"encoding/binary"
)

const (
	BitsPerByte      = 8
	BitsPerSegment   = 16
	SegmentsPerBlock = 8
	CypherBlockSize  = SegmentsPerBlock * BitsPerSegment
	CypherBlockBytes = CypherBlockSize / BitsPerByte
	NumberOfRounds   = 10
)

// Block is the 128 bit unit processed by the crypters.  Segment i holds bits
// [16i, 16i+16) of the block, least significant bit first.
type Block [SegmentsPerBlock]uint16

// RoundKey is the key material for a single round.  It has the same shape as
// a Block.
type RoundKey [SegmentsPerBlock]uint16

// RoundKeys holds the round keys in encryption order.
type RoundKeys [NumberOfRounds]RoundKey

// CypherBlock is the data processed by the machines created by
// CreateEncryptMachine and CreateDecryptMachine.  It consists of the length
// in bytes of valid data, the block index used to select the permutation and
// the data to process.  A CypherBlock with a Length of zero shuts the machine
// down.
type CypherBlock struct {
	Length      int8
	Index       uint64
	CypherBlock Block
}

// Crypter is a single invertible layer of the cipher.  Apply_F is the
// forward (encrypting) transform and Apply_G is its inverse.
type Crypter interface {
	Apply_F(blk *Block, blockIndex uint64) *Block
	Apply_G(blk *Block, blockIndex uint64) *Block
}

func Encrypt(ecm Crypter, blk *Block, blockIndex uint64) *Block {
	return ecm.Apply_F(blk, blockIndex)
}

func Decrypt(ecm Crypter, blk *Block, blockIndex uint64) *Block {
	return ecm.Apply_G(blk, blockIndex)
}

// BlockFromBytes converts 16 bytes into a Block.  Segment i is taken from
// bytes 2i (low) and 2i+1 (high) so that bit b of the byte array is bit b of
// the block.
func BlockFromBytes(b *[CypherBlockBytes]byte) Block {
	var blk Block
	for i := range blk {
		blk[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return blk
}

// Bytes is the inverse of BlockFromBytes.
func (blk *Block) Bytes() [CypherBlockBytes]byte {
	var b [CypherBlockBytes]byte
	for i, v := range blk {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return b
}

func EncryptMachine(ecm Crypter, left chan CypherBlock) chan CypherBlock {
	right := make(chan CypherBlock)
	go func(ecm Crypter, left chan CypherBlock, right chan CypherBlock) {
		for {
			inp := <-left
			if inp.Length <= 0 {
				right <- inp
				break
			}

			ecm.Apply_F(&inp.CypherBlock, inp.Index)
			right <- inp
		}
	}(ecm, left, right)

	return right
}

func DecryptMachine(ecm Crypter, left chan CypherBlock) chan CypherBlock {
	right := make(chan CypherBlock)
	go func(ecm Crypter, left chan CypherBlock, right chan CypherBlock) {
		for {
			inp := <-left
			if inp.Length <= 0 {
				right <- inp
				break
			}

			ecm.Apply_G(&inp.CypherBlock, inp.Index)
			right <- inp
		}
	}(ecm, left, right)

	return right
}

// CreateEncryptMachine chains one goroutine per crypter, in the order given.
// Blocks sent to left come out of right fully encrypted.
func CreateEncryptMachine(ecms ...Crypter) (left chan CypherBlock, right chan CypherBlock) {
	if len(ecms) == 0 {
		panic("you must give at least one encryption device!")
	}

	left = make(chan CypherBlock)
	right = EncryptMachine(ecms[0], left)

	for idx := 1; idx < len(ecms); idx++ {
		right = EncryptMachine(ecms[idx], right)
	}

	return
}

// CreateDecryptMachine chains the inverse of each crypter in reverse order.
func CreateDecryptMachine(ecms ...Crypter) (left chan CypherBlock, right chan CypherBlock) {
	if len(ecms) == 0 {
		panic("you must give at least one decryption device!")
	}

	idx := len(ecms) - 1
	left = make(chan CypherBlock)
	right = DecryptMachine(ecms[idx], left)

	for idx--; idx >= 0; idx-- {
		right = DecryptMachine(ecms[idx], right)
	}

	return
}
