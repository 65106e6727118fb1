package stream

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/OCharnyshevich/voxelsrv/internal/server/packet"
	"github.com/OCharnyshevich/voxelsrv/internal/server/player"
	"github.com/OCharnyshevich/voxelsrv/internal/server/world"
	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

const (
	// maxCoordinate is the furthest a player may travel on any axis.
	maxCoordinate = 120000
	// maxMoveDistance is the longest single move accepted.
	maxMoveDistance = 20
	// maxReach is how far from the player a block may be edited.
	maxReach = 16
)

// Timing configures the scheduler's periodic tasks.
type Timing struct {
	ViewTick      time.Duration
	DeliveryTick  time.Duration
	EvictInterval time.Duration // zero disables eviction
}

// Scheduler runs the view tick, the delivery tick, chunk eviction and
// player actions on one goroutine, so none of them ever overlap.
type Scheduler struct {
	log      *slog.Logger
	streamer *Streamer
	world    *world.World
	players  *player.Manager
	blocks   gamedata.BlockRegistry
	timing   Timing
	events   <-chan player.Event
	cmds     chan func(context.Context)
}

// NewScheduler wires a scheduler. It subscribes to players' lifecycle
// events immediately.
func NewScheduler(w *world.World, players *player.Manager, blocks gamedata.BlockRegistry, opts Options, timing Timing, log *slog.Logger) *Scheduler {
	return &Scheduler{
		log:      log.With("component", "scheduler"),
		streamer: NewStreamer(w, players, opts, log),
		world:    w,
		players:  players,
		blocks:   blocks,
		timing:   timing,
		events:   players.Subscribe(64),
		cmds:     make(chan func(context.Context), 256),
	}
}

// Streamer returns the scheduler's streamer.
func (s *Scheduler) Streamer() *Streamer { return s.streamer }

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	view := time.NewTicker(s.timing.ViewTick)
	defer view.Stop()
	delivery := time.NewTicker(s.timing.DeliveryTick)
	defer delivery.Stop()

	var evict <-chan time.Time
	if s.timing.EvictInterval > 0 {
		t := time.NewTicker(s.timing.EvictInterval)
		defer t.Stop()
		evict = t.C
	}

	s.log.Info("scheduler started", "viewTick", s.timing.ViewTick, "deliveryTick", s.timing.DeliveryTick)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-view.C:
			s.streamer.ViewTick(ctx)
		case <-delivery.C:
			s.streamer.DeliveryTick(ctx)
		case <-evict:
			if n, err := s.world.Evict(ctx); err != nil {
				s.log.Error("evict chunks", "error", err)
			} else if n > 0 {
				s.log.Debug("evicted chunks", "count", n)
			}
		case ev := <-s.events:
			s.handleEvent(ev)
		case cmd := <-s.cmds:
			cmd(ctx)
		}
	}
}

func (s *Scheduler) handleEvent(ev player.Event) {
	switch ev.Kind {
	case player.EventJoined:
		s.log.Info("player joined", "id", ev.PlayerID, "online", s.players.PlayerCount())
	case player.EventLeft:
		s.streamer.Forget(ev.PlayerID)
		s.log.Info("player left", "id", ev.PlayerID, "online", s.players.PlayerCount())
	}
}

func (s *Scheduler) submit(ctx context.Context, fn func(context.Context)) error {
	select {
	case s.cmds <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Move queues a movement update for the player.
func (s *Scheduler) Move(ctx context.Context, playerID string, pos player.Position) error {
	return s.submit(ctx, func(ctx context.Context) { s.handleMove(playerID, pos) })
}

// BreakBlock queues a block removal.
func (s *Scheduler) BreakBlock(ctx context.Context, playerID string, pos world.BlockPos) error {
	return s.submit(ctx, func(ctx context.Context) { s.handleBlock(ctx, playerID, pos, gamedata.AirID) })
}

// PlaceBlock queues a block placement.
func (s *Scheduler) PlaceBlock(ctx context.Context, playerID string, pos world.BlockPos, id uint16) error {
	return s.submit(ctx, func(ctx context.Context) { s.handleBlock(ctx, playerID, pos, id) })
}

// handleMove applies a movement update. A player standing in a chunk that
// is not resident, or moving outside the world, is teleported back to where
// the server has them. A jump of maxMoveDistance or more keeps the player in
// place but still applies the new look direction.
func (s *Scheduler) handleMove(playerID string, pos player.Position) {
	p, ok := s.players.Get(playerID)
	if !ok {
		return
	}
	old := p.GetPosition()

	reject := ""
	switch {
	case !s.world.Loaded(old.Chunk()):
		reject = "chunk not loaded"
	case math.Abs(pos.X) > maxCoordinate || math.Abs(pos.Y) > maxCoordinate || math.Abs(pos.Z) > maxCoordinate:
		reject = "out of bounds"
	}
	if reject != "" {
		s.log.Debug("move rejected", "player", p.Username, "reason", reject, "x", pos.X, "y", pos.Y, "z", pos.Z)
		_ = p.Send(packet.PlayerTeleport{X: old.X, Y: old.Y, Z: old.Z})
		return
	}
	if old.Distance(pos) >= maxMoveDistance {
		pos.X, pos.Y, pos.Z = old.X, old.Y, old.Z
	}
	p.SetPosition(pos)
}

// handleBlock applies a block edit and tells every player who has the
// chunk loaded. Invalid edits are answered with the block's real state.
func (s *Scheduler) handleBlock(ctx context.Context, playerID string, pos world.BlockPos, id uint16) {
	p, ok := s.players.Get(playerID)
	if !ok {
		return
	}

	if !s.canEdit(p, pos, id) {
		if s.streamer.Loaded(playerID, pos.Chunk()) && s.world.Loaded(pos.Chunk()) {
			if cur, err := s.world.GetBlock(ctx, pos); err == nil {
				_ = p.Send(packet.WorldBlockUpdate{ID: cur, X: pos.X, Y: pos.Y, Z: pos.Z})
			}
		}
		return
	}
	if err := s.world.SetBlock(ctx, pos, id); err != nil {
		s.log.Warn("set block", "player", p.Username, "error", err)
		return
	}

	chunk := pos.Chunk()
	s.players.Broadcast(packet.WorldBlockUpdate{ID: id, X: pos.X, Y: pos.Y, Z: pos.Z}, func(other *player.Player) bool {
		return s.streamer.Loaded(other.ID, chunk)
	})
}

func (s *Scheduler) canEdit(p *player.Player, pos world.BlockPos, id uint16) bool {
	if pos.Y < 0 || pos.Y >= gen.ChunkHeight {
		return false
	}
	if !s.streamer.Loaded(p.ID, pos.Chunk()) || !s.world.Loaded(pos.Chunk()) {
		return false
	}
	if id != gamedata.AirID {
		if _, ok := s.blocks.ByID(id); !ok {
			return false
		}
	}
	center := player.Position{X: float64(pos.X) + 0.5, Y: float64(pos.Y) + 0.5, Z: float64(pos.Z) + 0.5}
	return p.GetPosition().Distance(center) <= maxReach
}
