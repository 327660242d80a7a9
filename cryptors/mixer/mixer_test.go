package mixer

import (
	"math/rand"
	"testing"

	"github.com/bgallie/spn/cryptors"
)

// reference computes x*y mod 65537 with 0 standing for 2^16.
func reference(x, y uint16) uint16 {
	a, b := uint64(x), uint64(y)
	if a == 0 {
		a = 1 << 16
	}
	if b == 0 {
		b = 1 << 16
	}
	return uint16(a * b % Q) // 2^16 wraps to 0
}

func TestMulMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	edges := []uint16{0, 1, 2, 0x7FFF, 0x8000, 0xFFFF}
	for _, x := range edges {
		for _, y := range edges {
			if got, want := mul(x, y), reference(x, y); got != want {
				t.Errorf("mul(%#x, %#x) = %#x, want = %#x", x, y, got, want)
			}
		}
	}
	for i := 0; i < 100000; i++ {
		x, y := uint16(rng.Uint32()), uint16(rng.Uint32())
		if got, want := mul(x, y), reference(x, y); got != want {
			t.Fatalf("mul(%#x, %#x) = %#x, want = %#x", x, y, got, want)
		}
	}
}

func TestMulInvAllValues(t *testing.T) {
	for x := 0; x <= 0xFFFF; x++ {
		if got := mul(uint16(x), mulInv(uint16(x))); got != 1 {
			t.Fatalf("mul(%#x, mulInv(%#x)) = %#x, want = 1", x, x, got)
		}
	}
}

func TestMulByZeroFactorIsBijective(t *testing.T) {
	// The 16 bit factor 0 stands for 2^16 = -1 mod 65537, so it must not
	// collapse segments.
	seen := make(map[uint16]bool, 1<<16)
	for x := 0; x <= 0xFFFF; x++ {
		v := mul(uint16(x), 0)
		if seen[v] {
			t.Fatalf("mul(%#x, 0) = %#x collides", x, v)
		}
		seen[v] = true
	}
}

func TestMixRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for n := 0; n < 10000; n++ {
		var blk cryptors.Block
		var key cryptors.RoundKey
		for i := range blk {
			blk[i] = uint16(rng.Uint32())
			key[i] = uint16(rng.Uint32())
		}
		orig := blk

		Mix(&blk, &key)
		Unmix(&blk, &key)
		if blk != orig {
			t.Fatalf("Unmix(Mix(%v)) = %v", orig, blk)
		}
	}
}

func TestMixZeroFactor(t *testing.T) {
	// Every factor s[i+1] + k[i] is 0 modulo 2^16.
	blk := cryptors.Block{0x1234, 0x0001, 0x0002, 0x0003, 0x0004, 0x0005, 0x0006, 0x0007}
	var key cryptors.RoundKey
	for i := 0; i < cryptors.SegmentsPerBlock-1; i++ {
		key[i] = -blk[i+1]
	}
	orig := blk

	Mix(&blk, &key)
	if blk == orig {
		t.Fatal("Mix did not change the block")
	}
	Unmix(&blk, &key)
	if blk != orig {
		t.Errorf("Unmix(Mix(%v)) = %v", orig, blk)
	}
}

func TestMixZeroSegments(t *testing.T) {
	var blk cryptors.Block
	key := cryptors.RoundKey{1, 2, 3, 4, 5, 6, 7, 8}
	Mix(&blk, &key)
	Unmix(&blk, &key)
	if blk != (cryptors.Block{}) {
		t.Errorf("Unmix(Mix(0)) = %v", blk)
	}
}

func TestMixerCrypter(t *testing.T) {
	key := cryptors.RoundKey{0xFFFF, 0, 0x8000, 1, 2, 3, 4, 5}
	m := New(key)
	blk := cryptors.Block{0xAAAA, 0xBBBB, 0xCCCC, 0xDDDD, 0x1111, 0x2222, 0x3333, 0x4444}
	want := blk
	Mix(&want, &key)

	m.Apply_F(&blk, 0)
	if blk != want {
		t.Errorf("Apply_F = %v, want = %v", blk, want)
	}
	m.Apply_G(&blk, 0)
	if blk != (cryptors.Block{0xAAAA, 0xBBBB, 0xCCCC, 0xDDDD, 0x1111, 0x2222, 0x3333, 0x4444}) {
		t.Errorf("Apply_G(Apply_F(blk)) = %v", blk)
	}
}
