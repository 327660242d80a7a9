// Package spn is a 128 bit substitution-permutation network block cipher.
//
// Each of the ten rounds permutes the bits of the block with a permutation
// chosen by the round and the block index, multiplies the eight 16 bit
// segments together modulo 65537 under the round key, then rotates and XORs
// each segment with the round key.  Decryption runs the inverse layers in
// reverse order.
//
// This is a toy design.  Do not use it to protect anything.
package spn

import (
	"github.com/bgallie/spn/cryptors"
	"github.com/bgallie/spn/cryptors/diffuser"
	"github.com/bgallie/spn/cryptors/mixer"
	"github.com/bgallie/spn/cryptors/permutator"
)

// layers returns the crypters of every round in encryption order:
// permutator, mixer and diffuser for round 0, then round 1, and so on.
func layers(roundKeys *cryptors.RoundKeys) []cryptors.Crypter {
	ecms := make([]cryptors.Crypter, 0, 3*cryptors.NumberOfRounds)
	for r, rk := range roundKeys {
		ecms = append(ecms, permutator.New(r), mixer.New(rk), diffuser.New(rk))
	}
	return ecms
}

func encrypt(ecms []cryptors.Crypter, blk *cryptors.Block, blockIndex uint64) {
	for _, ecm := range ecms {
		cryptors.Encrypt(ecm, blk, blockIndex)
	}
}

func decrypt(ecms []cryptors.Crypter, blk *cryptors.Block, blockIndex uint64) {
	for idx := len(ecms) - 1; idx >= 0; idx-- {
		cryptors.Decrypt(ecms[idx], blk, blockIndex)
	}
}

// EncryptBlock encrypts a single block under roundKeys.
func EncryptBlock(block cryptors.Block, roundKeys cryptors.RoundKeys, blockIndex uint64) cryptors.Block {
	encrypt(layers(&roundKeys), &block, blockIndex)
	return block
}

// DecryptBlock undoes EncryptBlock for the same round keys and block index.
func DecryptBlock(block cryptors.Block, roundKeys cryptors.RoundKeys, blockIndex uint64) cryptors.Block {
	decrypt(layers(&roundKeys), &block, blockIndex)
	return block
}

// Engine is a cipher keyed with a single master key.  The round keys and
// round layers are built once by New and never changed, so an Engine may be
// used from any number of goroutines.
type Engine struct {
	roundKeys  cryptors.RoundKeys
	ecms       []cryptors.Crypter
	counterKey string
}

// New creates an Engine for masterKey.
func New(masterKey cryptors.Block) *Engine {
	e := &Engine{
		roundKeys:  ExpandKey(masterKey),
		counterKey: counterKey(&masterKey),
	}
	e.ecms = layers(&e.roundKeys)
	return e
}

// RoundKeys returns a copy of the expanded round keys.
func (e *Engine) RoundKeys() cryptors.RoundKeys {
	return e.roundKeys
}

// CounterKey returns a string identifying the master key without revealing
// it.
func (e *Engine) CounterKey() string {
	return e.counterKey
}

func (e *Engine) EncryptBlock(block cryptors.Block, blockIndex uint64) cryptors.Block {
	encrypt(e.ecms, &block, blockIndex)
	return block
}

func (e *Engine) DecryptBlock(block cryptors.Block, blockIndex uint64) cryptors.Block {
	decrypt(e.ecms, &block, blockIndex)
	return block
}

// EncryptMachine starts a goroutine per layer and returns the channel to
// send blocks to and the channel to read encrypted blocks from.  Each
// CypherBlock is encrypted with its own Index.  Sending a block with a
// Length of zero stops the machine; it comes out of right unchanged.
func (e *Engine) EncryptMachine() (left, right chan cryptors.CypherBlock) {
	return cryptors.CreateEncryptMachine(e.ecms...)
}

// DecryptMachine is the decrypting counterpart of EncryptMachine.
func (e *Engine) DecryptMachine() (left, right chan cryptors.CypherBlock) {
	return cryptors.CreateDecryptMachine(e.ecms...)
}
