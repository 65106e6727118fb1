package gen

// depth counts solid cells directly above y, capped at 6. Zero means y is
// the top of the column.
func depth(y int, col ColumnAccessor) int {
	d := 0
	for d < 6 && col(y+d+1) {
		d++
	}
	return d
}

// soil places grass on top with dirt below, stone deeper down and bedrock
// at y=0. Submerged tops get dirt instead of grass.
func (b *baseBiome) soil(y int, col ColumnAccessor) ColumnResult {
	if y == 0 {
		return BlockResult(b.blocks.bedrock)
	}
	switch d := depth(y, col); {
	case d == 0 && y >= waterLevel:
		return BlockResult(b.blocks.grass)
	case d == 0:
		return BlockResult(b.blocks.dirt)
	case d <= 3:
		return BlockResult(b.blocks.dirt)
	}
	return BlockResult(b.blocks.stone)
}

// rock caps mountains: snow above the snow line, bare stone on the upper
// slopes and ordinary soil lower down.
func (b *mountainsBiome) rock(y int, col ColumnAccessor) ColumnResult {
	if y == 0 {
		return BlockResult(b.blocks.bedrock)
	}
	d := depth(y, col)
	switch {
	case y >= 120 && d == 0:
		return BlockResult(b.blocks.snow)
	case y >= 110 && d == 0:
		return BlockResult(b.blocks.grassSnow)
	case y >= 100:
		return BlockResult(b.blocks.stone)
	}
	return b.soil(y, col)
}

// dunes puts sand over sandstone. The ocean floor in deserts is gravel.
func (b *desertBiome) dunes(y int, col ColumnAccessor) ColumnResult {
	if y == 0 {
		return BlockResult(b.blocks.bedrock)
	}
	d := depth(y, col)
	switch {
	case d == 0 && y < waterLevel-4:
		return BlockResult(b.blocks.gravel)
	case d <= 3:
		return BlockResult(b.blocks.sand)
	case d <= 5:
		return BlockResult(b.blocks.sandstone)
	}
	return BlockResult(b.blocks.stone)
}
