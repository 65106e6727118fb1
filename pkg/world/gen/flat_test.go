package gen

import (
	"testing"

	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
)

func TestFlatGeneratorLayers(t *testing.T) {
	reg := gamedata.DefaultBlocks()
	g, err := NewFlatGenerator(reg)
	if err != nil {
		t.Fatal(err)
	}
	c := g.Generate(ChunkPos{X: 5, Z: -5})

	tests := []struct {
		y    int
		name string
	}{
		{0, "stone"},
		{35, "stone"},
		{36, "dirt"},
		{39, "dirt"},
		{40, "grass"},
		{41, "air"},
	}
	for _, tt := range tests {
		want := reg.MustID(tt.name)
		for _, xz := range [][2]int{{0, 0}, {31, 31}, {12, 7}} {
			if got := c.Get(xz[0], tt.y, xz[1]); got != want {
				t.Errorf("block at (%d,%d,%d) = %d, want %d (%s)", xz[0], tt.y, xz[1], got, want, tt.name)
			}
		}
	}
	if g.HeightAt(100, -100) != 40 {
		t.Errorf("HeightAt = %d, want 40", g.HeightAt(100, -100))
	}
}
