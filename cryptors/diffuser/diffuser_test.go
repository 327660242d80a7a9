package diffuser

import (
	"math/rand"
	"testing"

	"github.com/bgallie/spn/cryptors"
)

func TestDiffuseRoundTripAllRotations(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for rot := uint16(0); rot < cryptors.BitsPerSegment; rot++ {
		for n := 0; n < 1000; n++ {
			var key cryptors.RoundKey
			var blk cryptors.Block
			for i := range key {
				key[i] = uint16(rng.Uint32())&^0xF | rot
				blk[i] = uint16(rng.Uint32())
			}
			orig := blk

			Diffuse(&blk, &key)
			Undiffuse(&blk, &key)
			if blk != orig {
				t.Fatalf("rotation %d: Undiffuse(Diffuse(%v)) = %v", rot, orig, blk)
			}
		}
	}
}

func TestDiffuseZeroRotationIsXOR(t *testing.T) {
	key := cryptors.RoundKey{0x0010, 0x0020, 0xFFF0, 0, 0x1230, 0x4560, 0x7890, 0xABC0}
	blk := cryptors.Block{0xAAAA, 0xBBBB, 0xCCCC, 0xDDDD, 0x1111, 0x2222, 0x3333, 0x4444}
	want := blk
	for i := range want {
		want[i] ^= key[i]
	}

	if Diffuse(&blk, &key); blk != want {
		t.Errorf("Diffuse = %v, want = %v", blk, want)
	}
}

func TestDiffuseRotates(t *testing.T) {
	key := cryptors.RoundKey{0x0001, 0x000F, 0x0008, 0, 0, 0, 0, 0}
	blk := cryptors.Block{0x8001, 0x0001, 0x00FF, 0, 0, 0, 0, 0}
	want := cryptors.Block{0x0003 ^ 0x0001, 0x8000 ^ 0x000F, 0xFF00 ^ 0x0008, 0, 0, 0, 0, 0}

	if Diffuse(&blk, &key); blk != want {
		t.Errorf("Diffuse = %#04x, want = %#04x", blk, want)
	}
}

func TestDiffuserCrypter(t *testing.T) {
	key := cryptors.RoundKey{1, 2, 3, 4, 5, 6, 7, 8}
	d := New(key)
	blk := cryptors.Block{8, 7, 6, 5, 4, 3, 2, 1}
	orig := blk

	d.Apply_F(&blk, 0)
	if blk == orig {
		t.Fatal("Apply_F did not change the block")
	}
	if d.Apply_G(&blk, 0); blk != orig {
		t.Errorf("Apply_G(Apply_F(blk)) = %v, want = %v", blk, orig)
	}
}
