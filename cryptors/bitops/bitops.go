// bitops project bitops.go
//
// Bits are addressed across a slice of 16 bit segments: bit b lives in
// segment b/16 at offset b%16.
package bitops

const segmentBits = 16

func SetBit(ary []uint16, bit uint) []uint16 {
	ary[bit/segmentBits] |= 1 << (bit % segmentBits)
	return ary
}

func GetBit(ary []uint16, bit uint) bool {
	return ary[bit/segmentBits]&(1<<(bit%segmentBits)) != 0
}
