package permutator

import (
	"testing"

	mtwist "blitter.com/go/mtwist"
	"github.com/bgallie/spn/cryptors"
	"github.com/bgallie/spn/cryptors/bitops"
)

func checkBijection(t *testing.T, perm *Permutation) {
	t.Helper()
	var seen [cryptors.CypherBlockSize]bool
	for i, v := range perm {
		if int(v) >= len(seen) {
			t.Fatalf("perm[%d] = %d, out of range", i, v)
		}
		if seen[v] {
			t.Fatalf("perm[%d] = %d, value repeated", i, v)
		}
		seen[v] = true
	}
}

func TestGeneratePermutationIsBijection(t *testing.T) {
	for r := 0; r < cryptors.NumberOfRounds; r++ {
		for _, idx := range []uint64{0, 1, 2, 1000, 1 << 32, ^uint64(0)} {
			perm := GeneratePermutation(RoundSeed(r), idx)
			checkBijection(t, &perm)
		}
	}
}

func TestGeneratePermutationIsDeterministic(t *testing.T) {
	for r := 0; r < cryptors.NumberOfRounds; r++ {
		a := GeneratePermutation(RoundSeed(r), 42)
		b := GeneratePermutation(RoundSeed(r), 42)
		if a != b {
			t.Errorf("round %d: permutations differ for identical inputs", r)
		}
	}
}

func TestGeneratePermutationVaries(t *testing.T) {
	seen := make(map[Permutation]bool)
	for r := 0; r < cryptors.NumberOfRounds; r++ {
		for idx := uint64(0); idx < 10; idx++ {
			perm := GeneratePermutation(RoundSeed(r), idx)
			if seen[perm] {
				t.Errorf("round %d index %d: permutation repeated", r, idx)
			}
			seen[perm] = true
		}
	}

	var identity Permutation
	for i := range identity {
		identity[i] = byte(i)
	}
	if seen[identity] {
		t.Error("generated the identity permutation")
	}
}

func TestInverse(t *testing.T) {
	perm := GeneratePermutation(RoundSeed(3), 7)
	inv := Inverse(&perm)
	checkBijection(t, &inv)
	for b := range perm {
		if got := inv[perm[b]]; int(got) != b {
			t.Errorf("inv[perm[%d]] = %d, want = %d", b, got, b)
		}
	}
}

func TestApplyMovesBits(t *testing.T) {
	p := New(5)
	perm := p.Permutation(11)
	for bit := uint(0); bit < cryptors.CypherBlockSize; bit++ {
		var blk cryptors.Block
		bitops.SetBit(blk[:], bit)
		p.Apply_F(&blk, 11)

		var want cryptors.Block
		bitops.SetBit(want[:], uint(perm[bit]))
		if blk != want {
			t.Fatalf("bit %d moved to %v, want = %v", bit, blk, want)
		}

		p.Apply_G(&blk, 11)
		var orig cryptors.Block
		bitops.SetBit(orig[:], bit)
		if blk != orig {
			t.Fatalf("bit %d not restored: %v", bit, blk)
		}
	}
}

func TestApplyRoundTrip(t *testing.T) {
	blk := cryptors.Block{0xAAAA, 0xBBBB, 0xCCCC, 0xDDDD, 0x1111, 0x2222, 0x3333, 0x4444}
	orig := blk
	for r := 0; r < cryptors.NumberOfRounds; r++ {
		p := New(r)
		p.Apply_F(&blk, uint64(r))
		p.Apply_G(&blk, uint64(r))
		if blk != orig {
			t.Errorf("round %d: Apply_G(Apply_F(blk)) = %v, want = %v", r, blk, orig)
		}
	}
}

func TestInt63nRange(t *testing.T) {
	prng := mtwist.New()
	prng.SeedFullState(seedBytes(1, 2))
	for n := int64(1); n <= cryptors.CypherBlockSize; n++ {
		for i := 0; i < 100; i++ {
			if v := int63n(prng, n); v < 0 || v >= n {
				t.Fatalf("int63n(%d) = %d", n, v)
			}
		}
	}
}

func TestSeedBytes(t *testing.T) {
	if got, want := len(seedBytes(RoundSeed(0), 0)), seedLength; got != want {
		t.Errorf("len(seedBytes) = %d, want = %d", got, want)
	}
	if string(seedBytes(1, 2)) == string(seedBytes(2, 1)) {
		t.Error("seedBytes does not distinguish round seed from block index")
	}
}

func BenchmarkGeneratePermutation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = GeneratePermutation(RoundSeed(i%cryptors.NumberOfRounds), uint64(i))
	}
}
