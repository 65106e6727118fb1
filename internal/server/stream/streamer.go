package stream

import (
	"context"
	"log/slog"

	"github.com/OCharnyshevich/voxelsrv/internal/server/packet"
	"github.com/OCharnyshevich/voxelsrv/internal/server/player"
	"github.com/OCharnyshevich/voxelsrv/internal/server/world"
	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

// ChunkSource is the world as seen by the streamer.
type ChunkSource interface {
	ValidChunk(pos gen.ChunkPos) bool
	GetChunk(ctx context.Context, pos gen.ChunkPos, generate bool) (*gen.Chunk, error)
	KeepAlive(pos gen.ChunkPos) bool
}

// PlayerSource lists connected players.
type PlayerSource interface {
	Get(id string) (*player.Player, bool)
	Players() []*player.Player
}

// Options configures a Streamer.
type Options struct {
	ViewDistance  int
	Compression   bool
	QueueCapacity int
}

// Streamer keeps every player's loaded chunk set in line with their view
// and feeds chunk deliveries through the global queue.
type Streamer struct {
	log     *slog.Logger
	world   ChunkSource
	players PlayerSource
	queue   *Queue
	opts    Options
	views   map[string]*viewState
}

// NewStreamer creates a Streamer.
func NewStreamer(w ChunkSource, players PlayerSource, opts Options, log *slog.Logger) *Streamer {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = 4096
	}
	return &Streamer{
		log:     log.With("component", "stream"),
		world:   w,
		players: players,
		queue:   NewQueue(opts.QueueCapacity),
		opts:    opts,
		views:   make(map[string]*viewState),
	}
}

// Queue exposes the delivery queue.
func (s *Streamer) Queue() *Queue { return s.queue }

// ViewTick recomputes every player's required chunks. New chunks are
// marked loaded and queued; resident loaded chunks get a keep-alive; chunks
// that fell out of view are unloaded and the player is told right away.
// A chunk the full queue cannot take stays unloaded and is retried on the
// next tick.
func (s *Streamer) ViewTick(ctx context.Context) {
	online := make(map[string]struct{})
	for _, p := range s.players.Players() {
		online[p.ID] = struct{}{}
		s.updateView(p)
	}
	for id := range s.views {
		if _, ok := online[id]; !ok {
			delete(s.views, id)
		}
	}
}

func (s *Streamer) updateView(p *player.Player) {
	v, ok := s.views[p.ID]
	if !ok {
		v = newViewState()
		s.views[p.ID] = v
	}

	confirmed := make(map[gen.ChunkPos]struct{}, len(v.loaded))
	queued := 0
	for _, pos := range RequiredChunks(p.ChunkPos(), s.opts.ViewDistance) {
		if !s.world.ValidChunk(pos) {
			continue
		}
		if v.has(pos) {
			confirmed[pos] = struct{}{}
			s.world.KeepAlive(pos)
			continue
		}
		if s.queue.TryEnqueue(Entry{PlayerID: p.ID, Pos: pos}) {
			v.loaded[pos] = struct{}{}
			confirmed[pos] = struct{}{}
			queued++
		}
	}

	unloaded := 0
	for pos := range v.loaded {
		if _, ok := confirmed[pos]; ok {
			continue
		}
		delete(v.loaded, pos)
		unloaded++
		if err := p.Send(packet.WorldChunkUnload{X: pos.X, Z: pos.Z}); err != nil {
			s.log.Debug("send unload", "player", p.Username, "error", err)
		}
	}

	if queued > 0 || unloaded > 0 {
		s.log.Debug("view updated", "player", p.Username, "queued", queued, "unloaded", unloaded, "backlog", s.queue.Len())
	}
}

// DeliveryTick pops at most one queued entry and transmits that chunk,
// generating it if this is its first request. Entries for players who
// left, or for chunks unloaded since they were queued, are dropped.
// It reports whether a chunk was sent.
func (s *Streamer) DeliveryTick(ctx context.Context) bool {
	e, ok := s.queue.Pop()
	if !ok {
		return false
	}
	p, ok := s.players.Get(e.PlayerID)
	if !ok {
		return false
	}
	v := s.views[e.PlayerID]
	if v == nil || !v.has(e.Pos) {
		return false
	}

	c, err := s.world.GetChunk(ctx, e.Pos, true)
	if err != nil {
		s.log.Warn("resolve chunk", "x", e.Pos.X, "z", e.Pos.Z, "error", err)
		delete(v.loaded, e.Pos)
		return false
	}
	s.world.KeepAlive(e.Pos)

	data, err := world.EncodeChunk(c, s.opts.Compression)
	if err != nil {
		s.log.Error("encode chunk", "x", e.Pos.X, "z", e.Pos.Z, "error", err)
		delete(v.loaded, e.Pos)
		return false
	}
	msg := packet.WorldChunkLoad{X: e.Pos.X, Z: e.Pos.Z, Data: data, Compressed: s.opts.Compression}
	if err := p.Send(msg); err != nil {
		s.log.Debug("send chunk", "player", p.Username, "error", err)
		delete(v.loaded, e.Pos)
		return false
	}
	return true
}

// Forget drops a player's view state. Their queued entries become no-ops.
func (s *Streamer) Forget(playerID string) {
	delete(s.views, playerID)
}

// Loaded reports whether pos is in the player's loaded set.
func (s *Streamer) Loaded(playerID string, pos gen.ChunkPos) bool {
	v := s.views[playerID]
	return v != nil && v.has(pos)
}

// LoadedCount returns the size of the player's loaded set.
func (s *Streamer) LoadedCount(playerID string) int {
	if v := s.views[playerID]; v != nil {
		return len(v.loaded)
	}
	return 0
}
