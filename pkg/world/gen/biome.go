package gen

// Biome ids.
const (
	BiomePlains    = "plains"
	BiomeForest    = "forest"
	BiomeMountains = "mountains"
	BiomeDesert    = "desert"
)

// waterLevel is the highest y filled with water above submerged terrain.
const waterLevel = 60

// FeatureKind names a structure placed by a column rule.
type FeatureKind uint8

const (
	FeatureOakTree FeatureKind = iota + 1
	FeatureBirchTree
	FeatureCactus
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureOakTree:
		return "oak_tree"
	case FeatureBirchTree:
		return "birch_tree"
	case FeatureCactus:
		return "cactus"
	default:
		return "unknown"
	}
}

// ResultKind tags a ColumnResult.
type ResultKind uint8

const (
	ResultAir ResultKind = iota
	ResultBlock
	ResultFeature
)

// ColumnResult is what a biome's column rule decides for one cell.
type ColumnResult struct {
	Kind    ResultKind
	Block   uint16
	Feature FeatureKind
}

// Air leaves the cell untouched.
func Air() ColumnResult { return ColumnResult{} }

// BlockResult writes id into the cell.
func BlockResult(id uint16) ColumnResult { return ColumnResult{Kind: ResultBlock, Block: id} }

// FeatureResult places a feature anchored at the cell.
func FeatureResult(k FeatureKind) ColumnResult { return ColumnResult{Kind: ResultFeature, Feature: k} }

// ColumnAccessor reports whether the blended density pass marked y solid
// in the column being materialized. Out-of-range y is never solid.
type ColumnAccessor func(y int) bool

// Biome is one terrain archetype.
type Biome interface {
	ID() string
	// Height is the highest y HeightAt can mark solid. It bounds the
	// density scan.
	Height() int
	// HeightAt is the density threshold at (x, y, z): y is solid when
	// y <= HeightAt. Blending averages it across neighbouring biomes.
	HeightAt(x, y, z int) float64
	// Column materializes world cell (x, y, z).
	Column(x, y, z int, col ColumnAccessor) ColumnResult
}

// baseBiome carries what every biome needs to materialize columns.
type baseBiome struct {
	id     string
	height int
	blocks palette
	shape  NoiseField
	detail NoiseField
	plants Hash
}

func (b *baseBiome) ID() string  { return b.id }
func (b *baseBiome) Height() int { return b.height }

// aboveSurface reports whether y is the first open cell over dry land.
func aboveSurface(y int, col ColumnAccessor) bool {
	return y > waterLevel && !col(y) && col(y-1)
}

// fluid fills open cells at or below water level.
func (b *baseBiome) fluid(y int, col ColumnAccessor) (ColumnResult, bool) {
	if !col(y) && y > 0 && y <= waterLevel {
		return BlockResult(b.blocks.water), true
	}
	return ColumnResult{}, false
}

type plainsBiome struct{ baseBiome }

func (b *plainsBiome) HeightAt(x, _, z int) float64 {
	return 65 + b.shape.Eval2(float64(x)/150, float64(z)/150)*5 +
		b.detail.Eval2(float64(x)/40, float64(z)/40)*2
}

func (b *plainsBiome) Column(x, y, z int, col ColumnAccessor) ColumnResult {
	if col(y) {
		return b.soil(y, col)
	}
	if r, ok := b.fluid(y, col); ok {
		return r
	}
	if !aboveSurface(y, col) {
		return Air()
	}
	switch h := b.plants.At(x, z); {
	case h < 0.002:
		return FeatureResult(FeatureOakTree)
	case h < 0.08:
		return BlockResult(b.blocks.grassPlant)
	case h < 0.09:
		return BlockResult(b.blocks.redFlower)
	case h < 0.1:
		return BlockResult(b.blocks.yellowFlower)
	}
	return Air()
}

type forestBiome struct{ baseBiome }

func (b *forestBiome) HeightAt(x, _, z int) float64 {
	return 64 + b.shape.Eval2(float64(x)/120, float64(z)/120)*8 +
		b.detail.Eval2(float64(x)/35, float64(z)/35)*3
}

func (b *forestBiome) Column(x, y, z int, col ColumnAccessor) ColumnResult {
	if col(y) {
		return b.soil(y, col)
	}
	if r, ok := b.fluid(y, col); ok {
		return r
	}
	if !aboveSurface(y, col) {
		return Air()
	}
	switch h := b.plants.At(x, z); {
	case h < 0.02:
		return FeatureResult(FeatureOakTree)
	case h < 0.035:
		return FeatureResult(FeatureBirchTree)
	case h < 0.15:
		return BlockResult(b.blocks.grassPlant)
	case h < 0.155:
		return BlockResult(b.blocks.redFlower)
	}
	return Air()
}

type mountainsBiome struct {
	baseBiome
	ores Hash
}

func (b *mountainsBiome) HeightAt(x, y, z int) float64 {
	ridge := b.shape.Octave2(float64(x)/200, float64(z)/200, 3, 0.5)
	if ridge < 0 {
		ridge = -ridge
	}
	return 70 + ridge*50 + b.detail.Eval3(float64(x)/60, float64(y)/60, float64(z)/60)*12
}

func (b *mountainsBiome) Column(x, y, z int, col ColumnAccessor) ColumnResult {
	if col(y) {
		if depth(y, col) > 3 {
			return BlockResult(b.ore(x, y, z))
		}
		return b.rock(y, col)
	}
	if r, ok := b.fluid(y, col); ok {
		return r
	}
	if aboveSurface(y, col) && y < 95 && b.plants.At(x, z) < 0.05 {
		return BlockResult(b.blocks.grassPlant)
	}
	return Air()
}

type desertBiome struct{ baseBiome }

func (b *desertBiome) HeightAt(x, _, z int) float64 {
	return 64 + b.shape.Eval2(float64(x)/180, float64(z)/180)*4 +
		b.detail.Eval2(float64(x)/30, float64(z)/30)*1.5
}

func (b *desertBiome) Column(x, y, z int, col ColumnAccessor) ColumnResult {
	if col(y) {
		return b.dunes(y, col)
	}
	if r, ok := b.fluid(y, col); ok {
		return r
	}
	if !aboveSurface(y, col) {
		return Air()
	}
	switch h := b.plants.At(x, z); {
	case h < 0.004:
		return FeatureResult(FeatureCactus)
	case h < 0.012:
		return BlockResult(b.blocks.deadbush)
	}
	return Air()
}

// newBiomes builds the closed biome set in classification order.
func newBiomes(seed int64, p palette) []Biome {
	plants := NewHash(DeriveSeed(seed, saltPlants))
	base := func(id string, height int, salt int64) baseBiome {
		return baseBiome{
			id:     id,
			height: height,
			blocks: p,
			shape:  NewNoiseField(seed, salt*16+1),
			detail: NewNoiseField(seed, salt*16+2),
			plants: plants.Salted(salt),
		}
	}
	return []Biome{
		&plainsBiome{base(BiomePlains, 74, 1)},
		&forestBiome{base(BiomeForest, 80, 2)},
		&mountainsBiome{baseBiome: base(BiomeMountains, 160, 3), ores: plants.Salted(100)},
		&desertBiome{base(BiomeDesert, 72, 4)},
	}
}
