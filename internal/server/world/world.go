package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

// MaxChunkCoord bounds chunk coordinates on both axes. Block coordinates
// past it would overflow the client's float precision long before.
const MaxChunkCoord = 1 << 20

var (
	// ErrChunkNotLoaded is returned by GetChunk when the chunk is not
	// resident and generation was not requested.
	ErrChunkNotLoaded = errors.New("chunk not loaded")
	// ErrInvalidChunkPos is returned for coordinates outside the world.
	ErrInvalidChunkPos = errors.New("invalid chunk position")
	// ErrInvalidBlockPos is returned for block edits outside [0, ChunkHeight).
	ErrInvalidBlockPos = errors.New("invalid block position")
)

// BlockPos represents a block position in the world.
type BlockPos struct {
	X, Y, Z int
}

// Chunk returns the chunk containing the block.
func (p BlockPos) Chunk() gen.ChunkPos {
	return gen.ChunkOf(p.X, p.Z)
}

// local returns the block's coordinates inside its chunk.
func (p BlockPos) local() (x, y, z int) {
	ox, oz := p.Chunk().Origin()
	return p.X - ox, p.Y, p.Z - oz
}

// ChunkStore persists edited chunks. Implementations must be safe to call
// from the world's owner goroutine.
type ChunkStore interface {
	LoadChunk(ctx context.Context, pos gen.ChunkPos) ([]byte, bool, error)
	SaveChunk(ctx context.Context, pos gen.ChunkPos, data []byte) error
}

// Options configures a World.
type Options struct {
	// Border limits chunk coordinates to [-Border, Border]. Zero means
	// only MaxChunkCoord applies.
	Border int
	// TTL is how long a chunk may go without a keep-alive before Evict
	// drops it. Zero disables eviction.
	TTL time.Duration
	// Store, if set, is consulted before generating and receives edited
	// chunks on eviction and Flush.
	Store ChunkStore
	// Now overrides the clock; tests use it.
	Now func() time.Time
}

// World is a memoizing chunk cache in front of a generator, with block
// edits and keep-alive based eviction.
type World struct {
	mu        sync.Mutex
	log       *slog.Logger
	generator gen.Generator
	opts      Options
	chunks    map[gen.ChunkPos]*gen.Chunk
	dirty     map[gen.ChunkPos]struct{}
	generated int
}

// NewWorld creates a new World with the given generator.
func NewWorld(generator gen.Generator, log *slog.Logger, opts Options) *World {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &World{
		log:       log.With("component", "world"),
		generator: generator,
		opts:      opts,
		chunks:    make(map[gen.ChunkPos]*gen.Chunk),
		dirty:     make(map[gen.ChunkPos]struct{}),
	}
}

// Generator returns the world's terrain generator.
func (w *World) Generator() gen.Generator { return w.generator }

// ValidChunk reports whether pos lies inside the world.
func (w *World) ValidChunk(pos gen.ChunkPos) bool {
	limit := MaxChunkCoord
	if w.opts.Border > 0 {
		limit = w.opts.Border
	}
	return pos.X >= -limit && pos.X <= limit && pos.Z >= -limit && pos.Z <= limit
}

// GetChunk returns the chunk at pos. A resident chunk is returned as is.
// Otherwise, when generate is set, the chunk is restored from the store
// or generated, cached and returned; when it is not, ErrChunkNotLoaded
// is returned. Each position is generated at most once while resident.
func (w *World) GetChunk(ctx context.Context, pos gen.ChunkPos, generate bool) (*gen.Chunk, error) {
	if !w.ValidChunk(pos) {
		return nil, fmt.Errorf("chunk %d,%d: %w", pos.X, pos.Z, ErrInvalidChunkPos)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.chunks[pos]; ok {
		return c, nil
	}
	if !generate {
		return nil, ErrChunkNotLoaded
	}

	c, err := w.restore(ctx, pos)
	if err != nil {
		return nil, err
	}
	if c == nil {
		start := time.Now()
		c = w.generator.Generate(pos)
		w.generated++
		w.log.Debug("chunk generated", "x", pos.X, "z", pos.Z, "took", time.Since(start))
	}
	c.KeepAlive(w.opts.Now())
	w.chunks[pos] = c
	return c, nil
}

func (w *World) restore(ctx context.Context, pos gen.ChunkPos) (*gen.Chunk, error) {
	if w.opts.Store == nil {
		return nil, nil
	}
	data, ok, err := w.opts.Store.LoadChunk(ctx, pos)
	if err != nil {
		return nil, fmt.Errorf("load chunk %d,%d: %w", pos.X, pos.Z, err)
	}
	if !ok {
		return nil, nil
	}
	c := gen.NewChunk(pos)
	if !c.LoadBytes(data) {
		w.log.Warn("stored chunk has wrong size, regenerating", "x", pos.X, "z", pos.Z, "bytes", len(data))
		return nil, nil
	}
	c.MarkGenerated()
	return c, nil
}

// KeepAlive refreshes the chunk at pos if it is resident.
func (w *World) KeepAlive(pos gen.ChunkPos) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.chunks[pos]
	if ok {
		c.KeepAlive(w.opts.Now())
	}
	return ok
}

// Loaded reports whether the chunk at pos is resident.
func (w *World) Loaded(pos gen.ChunkPos) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.chunks[pos]
	return ok
}

// Len returns the number of resident chunks.
func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.chunks)
}

// GeneratedCount returns how many chunks this world has generated.
func (w *World) GeneratedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generated
}

// GetBlock returns the block id at pos, generating its chunk if needed.
// Positions above or below the world are air.
func (w *World) GetBlock(ctx context.Context, pos BlockPos) (uint16, error) {
	if pos.Y < 0 || pos.Y >= gen.ChunkHeight {
		return 0, nil
	}
	c, err := w.GetChunk(ctx, pos.Chunk(), true)
	if err != nil {
		return 0, err
	}
	x, y, z := pos.local()
	return c.Get(x, y, z), nil
}

// SetBlock writes a block id at pos and marks its chunk for saving.
func (w *World) SetBlock(ctx context.Context, pos BlockPos, id uint16) error {
	if pos.Y < 0 || pos.Y >= gen.ChunkHeight {
		return fmt.Errorf("block %d,%d,%d: %w", pos.X, pos.Y, pos.Z, ErrInvalidBlockPos)
	}
	c, err := w.GetChunk(ctx, pos.Chunk(), true)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	x, y, z := pos.local()
	c.Set(x, y, z, id)
	c.KeepAlive(w.opts.Now())
	w.dirty[c.Pos] = struct{}{}
	return nil
}

// Evict drops resident chunks whose last keep-alive is older than the
// configured TTL, saving edited ones first. It returns how many chunks
// were dropped.
func (w *World) Evict(ctx context.Context) (int, error) {
	if w.opts.TTL <= 0 {
		return 0, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.opts.Now().Add(-w.opts.TTL)
	var errs []error
	n := 0
	for pos, c := range w.chunks {
		if !c.LastUsed().Before(cutoff) {
			continue
		}
		if err := w.saveLocked(ctx, c); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(w.chunks, pos)
		n++
	}
	if n > 0 {
		w.log.Debug("chunks evicted", "count", n, "resident", len(w.chunks))
	}
	return n, errors.Join(errs...)
}

// Flush saves every edited chunk.
func (w *World) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for pos := range w.dirty {
		if c, ok := w.chunks[pos]; ok {
			if err := w.saveLocked(ctx, c); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (w *World) saveLocked(ctx context.Context, c *gen.Chunk) error {
	if _, ok := w.dirty[c.Pos]; !ok || w.opts.Store == nil {
		return nil
	}
	if err := w.opts.Store.SaveChunk(ctx, c.Pos, c.Bytes()); err != nil {
		return fmt.Errorf("save chunk %d,%d: %w", c.Pos.X, c.Pos.Z, err)
	}
	delete(w.dirty, c.Pos)
	return nil
}

// SpawnHeight returns the y a player should spawn at above column (x, z).
// A resident chunk is scanned so edits and restored chunks are honored;
// otherwise the generator's terrain height is used.
func (w *World) SpawnHeight(x, z int) int {
	pos := BlockPos{X: x, Z: z}
	w.mu.Lock()
	c, ok := w.chunks[pos.Chunk()]
	w.mu.Unlock()
	if ok {
		lx, _, lz := pos.local()
		if y := c.HighestBlock(lx, lz); y >= 0 {
			return y + 1
		}
	}
	return w.generator.HeightAt(x, z) + 1
}
