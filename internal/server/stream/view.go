package stream

import "github.com/OCharnyshevich/voxelsrv/pkg/world/gen"

// RequiredChunks returns every chunk within Chebyshev distance viewDistance
// of center. That is the union of the square rings w = 0..viewDistance,
// enumerated once as the outermost square.
func RequiredChunks(center gen.ChunkPos, viewDistance int) []gen.ChunkPos {
	if viewDistance < 0 {
		viewDistance = 0
	}
	side := 2*viewDistance + 1
	out := make([]gen.ChunkPos, 0, side*side)
	for dx := -viewDistance; dx <= viewDistance; dx++ {
		for dz := -viewDistance; dz <= viewDistance; dz++ {
			out = append(out, gen.ChunkPos{X: center.X + dx, Z: center.Z + dz})
		}
	}
	return out
}

// viewState is the set of chunks a player is considered to have loaded.
// A chunk enters the set when its delivery is queued.
type viewState struct {
	loaded map[gen.ChunkPos]struct{}
}

func newViewState() *viewState {
	return &viewState{loaded: make(map[gen.ChunkPos]struct{})}
}

func (v *viewState) has(pos gen.ChunkPos) bool {
	_, ok := v.loaded[pos]
	return ok
}
