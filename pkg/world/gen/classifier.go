package gen

import (
	"fmt"

	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
)

// blendRadius is the radius of the disk of columns sampled by BlendAt.
const blendRadius = 10

type offset struct{ dx, dz int }

// blendDisk lists every (dx, dz) within Euclidean distance blendRadius.
var blendDisk = func() []offset {
	var out []offset
	for dx := -blendRadius; dx <= blendRadius; dx++ {
		for dz := -blendRadius; dz <= blendRadius; dz++ {
			if dx*dx+dz*dz <= blendRadius*blendRadius {
				out = append(out, offset{dx, dz})
			}
		}
	}
	return out
}()

// Classifier maps world columns to biomes.
type Classifier struct {
	wierdness NoiseField
	heat      NoiseField
	biomes    []Biome // plains, forest, mountains, desert
}

// NewClassifier builds the classifier and its biome set for a world seed.
func NewClassifier(seed int64, blocks gamedata.BlockRegistry) (*Classifier, error) {
	p, err := newPalette(blocks)
	if err != nil {
		return nil, fmt.Errorf("resolve palette: %w", err)
	}
	return newClassifier(seed, newBiomes(seed, p)), nil
}

func newClassifier(seed int64, biomes []Biome) *Classifier {
	c := &Classifier{
		wierdness: NewNoiseField(seed, saltWierdness),
		heat:      NewNoiseField(seed, saltHeat),
		biomes:    biomes,
	}
	return c
}

// Biomes returns the biome set in its fixed order.
func (c *Classifier) Biomes() []Biome { return c.biomes }

// classifyIndex returns the index into c.biomes for column (x, z).
// Every input lands in exactly one branch.
func (c *Classifier) classifyIndex(x, z int) int {
	wierdness := c.wierdness.Eval2(float64(x)/600, float64(z)/600)
	heat := c.heat.Eval2(float64(x)/300, float64(z)/300)

	if heat >= 0.2 {
		return 3
	}
	switch {
	case wierdness > 0.7:
		return 2
	case wierdness > 0.4:
		return 1
	default:
		return 0
	}
}

// Classify returns the dominant biome of column (x, z).
func (c *Classifier) Classify(x, z int) Biome {
	return c.biomes[c.classifyIndex(x, z)]
}

// Blend is the biome mix around one column.
type Blend struct {
	Main      Biome
	Counts    []int // aligned with Classifier.Biomes
	Size      int
	MaxHeight int

	biomes []Biome
}

// Histogram returns the sample count per biome id, omitting absent biomes.
func (b Blend) Histogram() map[string]int {
	out := make(map[string]int, len(b.Counts))
	for i, n := range b.Counts {
		if n > 0 {
			out[b.biomes[i].ID()] = n
		}
	}
	return out
}

// Density is the blended height threshold at (x, y, z). Biomes are
// summed in fixed order so the result is reproducible bit for bit.
func (b Blend) Density(x, y, z int) float64 {
	var sum float64
	for i, n := range b.Counts {
		if n == 0 {
			continue
		}
		sum += b.biomes[i].HeightAt(x, y, z) * float64(n)
	}
	return sum / float64(b.Size)
}

// BlendAt samples the radius-10 disk around (x, z).
func (c *Classifier) BlendAt(x, z int) Blend {
	return c.blend(x, z, c.classifyIndex)
}

func (c *Classifier) blend(x, z int, classify func(x, z int) int) Blend {
	b := Blend{
		Main:   c.biomes[classify(x, z)],
		Counts: make([]int, len(c.biomes)),
		biomes: c.biomes,
	}
	for _, o := range blendDisk {
		i := classify(x+o.dx, z+o.dz)
		b.Counts[i]++
		b.Size++
		if h := c.biomes[i].Height(); h > b.MaxHeight {
			b.MaxHeight = h
		}
	}
	return b
}

// biomeGrid caches classification over a chunk plus the blend margin.
type biomeGrid struct {
	x0, z0 int
	span   int
	cells  []int
}

func (c *Classifier) gridFor(pos ChunkPos) *biomeGrid {
	ox, oz := pos.Origin()
	g := &biomeGrid{
		x0:   ox - blendRadius,
		z0:   oz - blendRadius,
		span: ChunkWidth + 2*blendRadius,
	}
	g.cells = make([]int, g.span*g.span)
	for i := range g.span {
		for k := range g.span {
			g.cells[i*g.span+k] = c.classifyIndex(g.x0+i, g.z0+k)
		}
	}
	return g
}

func (g *biomeGrid) at(x, z int) int {
	return g.cells[(x-g.x0)*g.span+(z-g.z0)]
}
