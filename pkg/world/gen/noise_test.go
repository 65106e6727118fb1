package gen

import (
	"math"
	"slices"
	"testing"
)

func TestNoiseFieldDeterministic(t *testing.T) {
	a := NewNoiseField(42, saltHeat)
	b := NewNoiseField(42, saltHeat)

	for x := -50; x <= 50; x += 7 {
		for z := -50; z <= 50; z += 11 {
			fx, fz := float64(x)/30, float64(z)/30
			if a.Eval2(fx, fz) != b.Eval2(fx, fz) {
				t.Fatalf("Eval2(%v, %v) differs between identical fields", fx, fz)
			}
		}
	}
}

func TestNoiseFieldRange(t *testing.T) {
	f := NewNoiseField(7, saltWierdness)
	for x := 0; x < 200; x++ {
		for z := 0; z < 200; z += 3 {
			v := f.Eval2(float64(x)/13.7, float64(z)/9.1)
			if v < -1.01 || v > 1.01 {
				t.Fatalf("Eval2 = %f, want within [-1, 1]", v)
			}
		}
	}
}

func TestDeriveSeedDecorrelates(t *testing.T) {
	for _, seed := range []int64{0, 1, 42, -9001} {
		seen := make(map[int64]int64)
		for _, salt := range []int64{saltWierdness, saltHeat, saltMoisture, saltPlants} {
			s := DeriveSeed(seed, salt)
			if prev, dup := seen[s]; dup {
				t.Errorf("seed %d: salts %d and %d derive the same field seed %d", seed, prev, salt, s)
			}
			seen[s] = salt
		}
	}
}

func TestDeriveSeedLargeSeeds(t *testing.T) {
	seeds := []int64{3 << 50, 5 << 55, -(1 << 52), 1<<53 + 1, 1<<53 + 2, math.MaxInt64, math.MinInt64}
	for _, salt := range []int64{saltWierdness, saltHeat, saltPlants} {
		seen := make(map[int64]int64)
		for _, seed := range seeds {
			s := DeriveSeed(seed, salt)
			if prev, dup := seen[s]; dup {
				t.Errorf("salt %d: seeds %d and %d derive the same field seed %d", salt, prev, seed, s)
			}
			seen[s] = seed
			if again := DeriveSeed(seed, salt); again != s {
				t.Fatalf("DeriveSeed(%d, %d) not stable: %d then %d", seed, salt, s, again)
			}
		}
	}
}

func TestLargeSeedsGenerateDifferentTerrain(t *testing.T) {
	c1 := newTestGenerator(t, 3<<50).Generate(ChunkPos{})
	c2 := newTestGenerator(t, 5<<55).Generate(ChunkPos{})
	if slices.Equal(c1.Blocks, c2.Blocks) {
		t.Error("distinct large seeds produced identical chunks")
	}
}

func TestHashRangeAndPurity(t *testing.T) {
	h := NewHash(DeriveSeed(42, saltPlants))
	for x := -100; x <= 100; x += 3 {
		for z := -100; z <= 100; z += 5 {
			v := h.At(x, z)
			if v < 0 || v >= 1 {
				t.Fatalf("At(%d, %d) = %f, want [0, 1)", x, z, v)
			}
			if v != h.At(x, z) {
				t.Fatalf("At(%d, %d) not stable", x, z)
			}
		}
	}
}

func TestHashSaltedDiffers(t *testing.T) {
	h := NewHash(1)
	s := h.Salted(1)
	same := 0
	for i := range 100 {
		if h.At(i, -i) == s.At(i, -i) {
			same++
		}
	}
	if same > 0 {
		t.Errorf("salted hash matched the base hash %d times out of 100", same)
	}
}

func TestHashRoughlyUniform(t *testing.T) {
	h := NewHash(99)
	above := 0
	const n = 10000
	for i := range n {
		if h.At(i, i*7) > 0.5 {
			above++
		}
	}
	if above < n*4/10 || above > n*6/10 {
		t.Errorf("%d of %d samples above 0.5, want roughly half", above, n)
	}
}
