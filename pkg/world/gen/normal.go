package gen

import (
	"fmt"

	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
)

// columnCeiling is the highest y a column rule is asked about.
const columnCeiling = 200

// NormalGenerator produces blended multi-biome terrain with trees and cacti.
type NormalGenerator struct {
	seed       int64
	blocks     palette
	classifier *Classifier
	plants     Hash
	trees      Hash
}

// NewNormalGenerator creates the generator for seed, resolving block ids
// from blocks. It fails only if blocks lacks a block the biomes place.
func NewNormalGenerator(seed int64, blocks gamedata.BlockRegistry) (*NormalGenerator, error) {
	p, err := newPalette(blocks)
	if err != nil {
		return nil, fmt.Errorf("resolve palette: %w", err)
	}
	plants := NewHash(DeriveSeed(seed, saltPlants))
	return &NormalGenerator{
		seed:       seed,
		blocks:     p,
		classifier: newClassifier(seed, newBiomes(seed, p)),
		plants:     plants,
		trees:      plants.Salted(saltMoisture),
	}, nil
}

func (g *NormalGenerator) Name() string { return "normal" }

// Generate fills one chunk in two passes: a blended density pass into a
// scratch buffer, then a materialize pass driven by each column's
// dominant biome.
func (g *NormalGenerator) Generate(pos ChunkPos) *Chunk {
	c := NewChunk(pos)
	ox, oz := pos.Origin()
	grid := g.classifier.gridFor(pos)
	solid := make([]bool, len(c.Blocks))

	for x := range ChunkWidth {
		for z := range ChunkWidth {
			wx, wz := ox+x, oz+z
			b := g.classifier.blend(wx, wz, grid.at)
			for y := 0; y <= b.MaxHeight && y < ChunkHeight; y++ {
				if float64(y) <= b.Density(wx, y, wz) {
					solid[index(x, y, z)] = true
				}
			}
		}
	}

	for x := range ChunkWidth {
		for z := range ChunkWidth {
			wx, wz := ox+x, oz+z
			biome := g.classifier.biomes[grid.at(wx, wz)]
			col := func(y int) bool {
				if y < 0 || y >= ChunkHeight {
					return false
				}
				return solid[index(x, y, z)]
			}
			for y := 0; y <= columnCeiling; y++ {
				r := biome.Column(wx, y, wz, col)
				switch r.Kind {
				case ResultBlock:
					c.Blocks[index(x, y, z)] = r.Block
				case ResultFeature:
					g.place(c, r.Feature, x, y, z, wx, wz)
				}
			}
		}
	}

	c.generated = true
	return c
}

// place materializes a feature at local (x, y, z). Templates are seeded
// from the world column so a tree looks the same whichever chunk asks.
func (g *NormalGenerator) place(c *Chunk, f FeatureKind, x, y, z, wx, wz int) {
	treeSeed := int(g.plants.At(wx, wz) * 1000)
	switch f {
	case FeatureOakTree:
		Paste(c, oakTree(treeSeed, g.trees, g.blocks), x, y, z)
	case FeatureBirchTree:
		Paste(c, birchTree(treeSeed, g.trees, g.blocks), x, y, z)
	case FeatureCactus:
		c.Set(x, y, z, g.blocks.cactus)
		c.Set(x, y+1, z, g.blocks.cactus)
		if g.plants.At(wx, wz) > 0.5 {
			c.Set(x, y+2, z, g.blocks.cactus)
		}
	}
}

// HeightAt returns the y of the highest solid terrain cell in a column,
// ignoring features.
func (g *NormalGenerator) HeightAt(x, z int) int {
	b := g.classifier.BlendAt(x, z)
	for y := min(b.MaxHeight, ChunkHeight-1); y >= 0; y-- {
		if float64(y) <= b.Density(x, y, z) {
			return y
		}
	}
	return 0
}

func (g *NormalGenerator) BiomeAt(x, z int) string {
	return g.classifier.Classify(x, z).ID()
}
