package gen

import (
	"encoding/binary"
	"time"
)

// Chunk dimensions for every generator in this package.
const (
	ChunkWidth  = 32
	ChunkHeight = 256
)

// ChunkPos identifies a chunk by its X and Z coordinates.
type ChunkPos struct{ X, Z int }

// ChunkOf returns the chunk containing world block column (x, z).
func ChunkOf(x, z int) ChunkPos {
	return ChunkPos{X: floorDiv(x, ChunkWidth), Z: floorDiv(z, ChunkWidth)}
}

// Origin returns the world coordinates of the chunk's (0, 0) column.
func (p ChunkPos) Origin() (x, z int) {
	return p.X * ChunkWidth, p.Z * ChunkWidth
}

// Chunk is a dense column of blocks, indexed [x][y][z].
// Index = x*ChunkHeight*ChunkWidth + y*ChunkWidth + z.
type Chunk struct {
	Pos    ChunkPos
	Blocks []uint16

	generated bool
	lastUsed  time.Time
}

// NewChunk returns an empty (all-air) chunk.
func NewChunk(pos ChunkPos) *Chunk {
	return &Chunk{Pos: pos, Blocks: make([]uint16, ChunkWidth*ChunkHeight*ChunkWidth)}
}

func index(x, y, z int) int {
	return x*ChunkHeight*ChunkWidth + y*ChunkWidth + z
}

func inChunk(x, y, z int) bool {
	return x >= 0 && x < ChunkWidth && z >= 0 && z < ChunkWidth && y >= 0 && y < ChunkHeight
}

// Set writes a block at local coordinates. Out-of-range writes are dropped.
func (c *Chunk) Set(x, y, z int, id uint16) {
	if !inChunk(x, y, z) {
		return
	}
	c.Blocks[index(x, y, z)] = id
}

// Get returns the block at local coordinates, or air when out of range.
func (c *Chunk) Get(x, y, z int) uint16 {
	if !inChunk(x, y, z) {
		return 0
	}
	return c.Blocks[index(x, y, z)]
}

// Generated reports whether the generator finished filling the chunk.
func (c *Chunk) Generated() bool { return c.generated }

// MarkGenerated flags the chunk as complete. Used when a chunk is
// restored from storage instead of generated.
func (c *Chunk) MarkGenerated() { c.generated = true }

// KeepAlive refreshes the chunk's last-access timestamp.
func (c *Chunk) KeepAlive(now time.Time) { c.lastUsed = now }

// LastUsed returns the last keep-alive timestamp.
func (c *Chunk) LastUsed() time.Time { return c.lastUsed }

// HighestBlock returns the y of the topmost non-air block in a column, or -1.
func (c *Chunk) HighestBlock(x, z int) int {
	for y := ChunkHeight - 1; y >= 0; y-- {
		if c.Get(x, y, z) != 0 {
			return y
		}
	}
	return -1
}

// Bytes encodes the block array as little-endian uint16 values.
func (c *Chunk) Bytes() []byte {
	out := make([]byte, len(c.Blocks)*2)
	for i, b := range c.Blocks {
		binary.LittleEndian.PutUint16(out[i*2:], b)
	}
	return out
}

// LoadBytes replaces the block array with data previously produced by Bytes.
func (c *Chunk) LoadBytes(data []byte) bool {
	if len(data) != len(c.Blocks)*2 {
		return false
	}
	for i := range c.Blocks {
		c.Blocks[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return true
}

// Generator produces chunks deterministically from a seed.
type Generator interface {
	Name() string
	Generate(pos ChunkPos) *Chunk
	HeightAt(x, z int) int
	BiomeAt(x, z int) string
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
