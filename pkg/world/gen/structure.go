package gen

// Template is a small prebuilt block pattern, indexed [x][y][z]. Zero
// cells are transparent when pasted.
type Template struct {
	SizeX, SizeY, SizeZ int
	Blocks              []uint16
}

// NewTemplate returns an empty template of the given size.
func NewTemplate(sx, sy, sz int) *Template {
	return &Template{SizeX: sx, SizeY: sy, SizeZ: sz, Blocks: make([]uint16, sx*sy*sz)}
}

func (t *Template) idx(x, y, z int) int {
	return x*t.SizeY*t.SizeZ + y*t.SizeZ + z
}

// Set writes a cell. Out-of-range writes are dropped.
func (t *Template) Set(x, y, z int, id uint16) {
	if x < 0 || x >= t.SizeX || y < 0 || y >= t.SizeY || z < 0 || z >= t.SizeZ {
		return
	}
	t.Blocks[t.idx(x, y, z)] = id
}

// Get reads a cell, returning air when out of range.
func (t *Template) Get(x, y, z int) uint16 {
	if x < 0 || x >= t.SizeX || y < 0 || y >= t.SizeY || z < 0 || z >= t.SizeZ {
		return 0
	}
	return t.Blocks[t.idx(x, y, z)]
}

// Paste stamps t into dst with its horizontal centre on local column
// (x, z) and its bottom layer at y. Cells landing outside the chunk are
// dropped, so structures crossing a chunk edge are cut off there.
// Returns the number of cells written.
func Paste(dst *Chunk, t *Template, x, y, z int) int {
	xm, zm := t.SizeX/2, t.SizeZ/2
	written := 0
	for i := range t.SizeX {
		x2 := x - xm + i
		if x2 < 0 || x2 >= ChunkWidth {
			continue
		}
		for k := range t.SizeZ {
			z2 := z - zm + k
			if z2 < 0 || z2 >= ChunkWidth {
				continue
			}
			for j := range t.SizeY {
				id := t.Blocks[t.idx(i, j, k)]
				if id == 0 || y+j < 0 || y+j >= ChunkHeight {
					continue
				}
				dst.Blocks[index(x2, y+j, z2)] = id
				written++
			}
		}
	}
	return written
}
