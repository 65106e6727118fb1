package gen

type oreConfig struct {
	block  func(p palette) uint16
	maxY   int
	chance float64
}

var ores = []oreConfig{
	{func(p palette) uint16 { return p.diamondOre }, 16, 0.002},
	{func(p palette) uint16 { return p.ironOre }, 64, 0.008},
	{func(p palette) uint16 { return p.coalOre }, 128, 0.012},
}

// ore returns the block for a buried mountain cell: stone, or an ore when
// the per-block hash falls under that ore's chance.
func (b *mountainsBiome) ore(x, y, z int) uint16 {
	if y == 0 {
		return b.blocks.bedrock
	}
	h := b.ores.At3(x, y, z)
	acc := 0.0
	for _, o := range ores {
		acc += o.chance
		if y < o.maxY && h < acc {
			return o.block(b.blocks)
		}
	}
	return b.blocks.stone
}
