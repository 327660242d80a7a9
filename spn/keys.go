package spn

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bgallie/spn/cryptors"
	"golang.org/x/crypto/blake2b"
)

// KeyScheduleConstant is the constant C of the key schedule.
const KeyScheduleConstant = 0x1F1F

const hexDigitsPerSegment = 4

var ErrKeyLength = errors.New("spn: key must be 32 hexadecimal digits")

// ExpandKey derives the round keys from masterKey.  For round r and segment
// i the round key is (masterKey[i] XOR (r+1)*C) + r, modulo 2^16.
func ExpandKey(masterKey cryptors.Block) cryptors.RoundKeys {
	var roundKeys cryptors.RoundKeys

	for r := range roundKeys {
		c := uint16((r + 1) * KeyScheduleConstant)
		for i, m := range masterKey {
			roundKeys[r][i] = (m ^ c) + uint16(r)
		}
	}

	return roundKeys
}

// ParseKey converts 32 hexadecimal digits into a master key.  Each group of
// four digits is one segment, most significant digit first, so
// "123456789abcdef0..." gives segments 0x1234, 0x5678, 0x9abc, 0xdef0, ...
// An optional "0x" prefix and surrounding white space are ignored.
func ParseKey(s string) (cryptors.Block, error) {
	var key cryptors.Block
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != cryptors.SegmentsPerBlock*hexDigitsPerSegment {
		return key, ErrKeyLength
	}

	for i := range key {
		seg := s[i*hexDigitsPerSegment : (i+1)*hexDigitsPerSegment]
		v, err := strconv.ParseUint(seg, 16, cryptors.BitsPerSegment)
		if err != nil {
			return key, fmt.Errorf("spn: invalid key segment %d [%s]: %w", i, seg, err)
		}
		key[i] = uint16(v)
	}

	return key, nil
}

// KeyFromSecret derives a master key from a passphrase using a 128 bit
// BLAKE2b digest.
func KeyFromSecret(secret []byte) (cryptors.Block, error) {
	h, err := blake2b.New(cryptors.CypherBlockBytes, nil)
	if err != nil {
		return cryptors.Block{}, fmt.Errorf("spn: creating key hash: %w", err)
	}
	h.Write(secret)

	var digest [cryptors.CypherBlockBytes]byte
	copy(digest[:], h.Sum(nil))
	return cryptors.BlockFromBytes(&digest), nil
}

// counterKey names a master key without revealing it.  It is used to look up
// the saved block counter for the key.
func counterKey(masterKey *cryptors.Block) string {
	b := masterKey.Bytes()
	sum := blake2b.Sum256(b[:])
	return hex.EncodeToString(sum[:cryptors.CypherBlockBytes])
}
