package gen

import (
	"fmt"

	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
)

// Flat world layer heights.
const (
	flatGrassY = 40
	flatDirtY  = 36
)

// FlatGenerator generates a flat world: stone up to y=35, dirt y=36..39,
// grass at y=40.
type FlatGenerator struct {
	stone, dirt, grass uint16
}

// NewFlatGenerator creates a FlatGenerator.
func NewFlatGenerator(blocks gamedata.BlockRegistry) (*FlatGenerator, error) {
	p, err := newPalette(blocks)
	if err != nil {
		return nil, fmt.Errorf("resolve palette: %w", err)
	}
	return &FlatGenerator{stone: p.stone, dirt: p.dirt, grass: p.grass}, nil
}

func (g *FlatGenerator) Name() string { return "flat" }

func (g *FlatGenerator) Generate(pos ChunkPos) *Chunk {
	c := NewChunk(pos)
	for x := range ChunkWidth {
		for z := range ChunkWidth {
			for y := 0; y < flatDirtY; y++ {
				c.Blocks[index(x, y, z)] = g.stone
			}
			for y := flatDirtY; y < flatGrassY; y++ {
				c.Blocks[index(x, y, z)] = g.dirt
			}
			c.Blocks[index(x, flatGrassY, z)] = g.grass
		}
	}
	c.generated = true
	return c
}

func (g *FlatGenerator) HeightAt(_, _ int) int {
	return flatGrassY
}

func (g *FlatGenerator) BiomeAt(_, _ int) string {
	return BiomePlains
}
