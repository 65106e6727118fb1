package stream

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/OCharnyshevich/voxelsrv/internal/server/packet"
	"github.com/OCharnyshevich/voxelsrv/internal/server/player"
	"github.com/OCharnyshevich/voxelsrv/internal/server/world"
	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
	"github.com/OCharnyshevich/voxelsrv/pkg/protocol"
	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// recorder collects messages sent to one player.
type recorder struct {
	mu   sync.Mutex
	msgs []protocol.Message
}

func (r *recorder) send(m protocol.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *recorder) loads() []packet.WorldChunkLoad {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []packet.WorldChunkLoad
	for _, m := range r.msgs {
		if l, ok := m.(packet.WorldChunkLoad); ok {
			out = append(out, l)
		}
	}
	return out
}

func (r *recorder) unloads() []packet.WorldChunkUnload {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []packet.WorldChunkUnload
	for _, m := range r.msgs {
		if u, ok := m.(packet.WorldChunkUnload); ok {
			out = append(out, u)
		}
	}
	return out
}

func (r *recorder) last() protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return nil
	}
	return r.msgs[len(r.msgs)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func flatWorld(t *testing.T) *world.World {
	t.Helper()
	g, err := gen.NewFlatGenerator(gamedata.DefaultBlocks())
	if err != nil {
		t.Fatal(err)
	}
	return world.NewWorld(g, testLog, world.Options{})
}

func addPlayer(t *testing.T, m *player.Manager, id string, x, y, z float64) (*player.Player, *recorder) {
	t.Helper()
	r := &recorder{}
	p := player.NewPlayer(id, "p_"+id, player.Position{X: x, Y: y, Z: z}, r.send)
	if err := m.Add(p); err != nil {
		t.Fatal(err)
	}
	return p, r
}

func chunkSet[T interface{ packet.WorldChunkLoad | packet.WorldChunkUnload }](msgs []T, pos func(T) gen.ChunkPos) map[gen.ChunkPos]int {
	out := make(map[gen.ChunkPos]int)
	for _, m := range msgs {
		out[pos(m)]++
	}
	return out
}

func loadPos(l packet.WorldChunkLoad) gen.ChunkPos     { return gen.ChunkPos{X: l.X, Z: l.Z} }
func unloadPos(u packet.WorldChunkUnload) gen.ChunkPos { return gen.ChunkPos{X: u.X, Z: u.Z} }

func TestRequiredChunksSquare(t *testing.T) {
	center := gen.ChunkPos{X: 3, Z: -2}
	got := RequiredChunks(center, 2)
	if len(got) != 25 {
		t.Fatalf("got %d chunks, want 25", len(got))
	}
	seen := make(map[gen.ChunkPos]bool)
	for _, p := range got {
		if seen[p] {
			t.Fatalf("duplicate chunk %v", p)
		}
		seen[p] = true
		if abs(p.X-center.X) > 2 || abs(p.Z-center.Z) > 2 {
			t.Fatalf("chunk %v outside view distance", p)
		}
	}
	if n := len(RequiredChunks(center, 0)); n != 1 {
		t.Errorf("view distance 0 gives %d chunks, want 1", n)
	}
}

func TestRequiredChunksEqualsRingUnion(t *testing.T) {
	center := gen.ChunkPos{X: -7, Z: 11}
	for vd := range 5 {
		want := make(map[gen.ChunkPos]bool)
		for w := 0; w <= vd; w++ {
			for dx := -w; dx <= w; dx++ {
				for dz := -w; dz <= w; dz++ {
					want[gen.ChunkPos{X: center.X + dx, Z: center.Z + dz}] = true
				}
			}
		}
		got := RequiredChunks(center, vd)
		if len(got) != len(want) {
			t.Fatalf("vd %d: got %d chunks, want %d", vd, len(got), len(want))
		}
		for _, p := range got {
			if !want[p] {
				t.Fatalf("vd %d: unexpected chunk %v", vd, p)
			}
		}
	}
}

func TestQueueAtMostOnceAndBounded(t *testing.T) {
	q := NewQueue(2)
	a := Entry{PlayerID: "a", Pos: gen.ChunkPos{X: 1}}
	b := Entry{PlayerID: "b", Pos: gen.ChunkPos{X: 1}}
	c := Entry{PlayerID: "a", Pos: gen.ChunkPos{X: 2}}

	if !q.TryEnqueue(a) {
		t.Fatal("first enqueue failed")
	}
	if q.TryEnqueue(a) {
		t.Error("duplicate entry accepted")
	}
	if !q.TryEnqueue(b) {
		t.Error("same chunk for another player rejected")
	}
	if q.TryEnqueue(c) {
		t.Error("enqueue into full queue succeeded")
	}

	got, ok := q.Pop()
	if !ok || got != a {
		t.Fatalf("Pop = %v, %v; want %v (FIFO)", got, ok, a)
	}
	if q.Outstanding(a) {
		t.Error("popped entry still outstanding")
	}
	if !q.TryEnqueue(a) {
		t.Error("re-enqueue after pop failed")
	}
}

func TestViewTickEnqueuesEachChunkOnce(t *testing.T) {
	ctx := context.Background()
	players := player.NewManager(4)
	p, rec := addPlayer(t, players, "a", 16, 41, 16)
	s := NewStreamer(flatWorld(t), players, Options{ViewDistance: 2}, testLog)

	s.ViewTick(ctx)
	if n := s.Queue().Len(); n != 25 {
		t.Fatalf("queued %d entries, want 25", n)
	}
	s.ViewTick(ctx)
	if n := s.Queue().Len(); n != 25 {
		t.Fatalf("second tick re-queued: %d entries, want 25", n)
	}

	for range 40 {
		s.DeliveryTick(ctx)
	}
	s.ViewTick(ctx)
	s.ViewTick(ctx)
	for range 10 {
		s.DeliveryTick(ctx)
	}

	loads := chunkSet(rec.loads(), loadPos)
	if len(loads) != 25 {
		t.Fatalf("delivered %d distinct chunks, want 25", len(loads))
	}
	for pos, n := range loads {
		if n != 1 {
			t.Errorf("chunk %v delivered %d times", pos, n)
		}
	}
	if s.LoadedCount(p.ID) != 25 {
		t.Errorf("LoadedCount = %d, want 25", s.LoadedCount(p.ID))
	}
	if len(rec.unloads()) != 0 {
		t.Errorf("stationary player got %d unloads", len(rec.unloads()))
	}
}

func TestDeliveryAtMostOnePerTick(t *testing.T) {
	ctx := context.Background()
	players := player.NewManager(4)
	_, rec := addPlayer(t, players, "a", 0, 41, 0)
	s := NewStreamer(flatWorld(t), players, Options{ViewDistance: 3}, testLog)

	s.ViewTick(ctx)
	ticks := 0
	for s.Queue().Len() > 0 {
		before := len(rec.loads())
		s.DeliveryTick(ctx)
		ticks++
		if sent := len(rec.loads()) - before; sent > 1 {
			t.Fatalf("tick %d sent %d chunks", ticks, sent)
		}
	}
	if got := len(rec.loads()); got != 49 {
		t.Fatalf("delivered %d chunks, want 49", got)
	}
	if ticks < 49 {
		t.Errorf("49 chunks delivered in %d ticks", ticks)
	}
}

func TestDeliveryDropsDisconnectedPlayer(t *testing.T) {
	ctx := context.Background()
	players := player.NewManager(4)
	p, rec := addPlayer(t, players, "a", 0, 41, 0)
	w := flatWorld(t)
	s := NewStreamer(w, players, Options{ViewDistance: 1}, testLog)

	s.ViewTick(ctx)
	players.Remove(p.ID)

	for s.Queue().Len() > 0 {
		if s.DeliveryTick(ctx) {
			t.Fatal("delivered a chunk to a departed player")
		}
	}
	if rec.count() != 0 {
		t.Errorf("departed player received %d messages", rec.count())
	}
	if w.GeneratedCount() != 0 {
		t.Errorf("generated %d chunks for a departed player", w.GeneratedCount())
	}
}

func TestUnloadBeforeDeliverySkipsLoad(t *testing.T) {
	ctx := context.Background()
	players := player.NewManager(4)
	p, rec := addPlayer(t, players, "a", 1, 41, 1)
	s := NewStreamer(flatWorld(t), players, Options{ViewDistance: 0}, testLog)

	s.ViewTick(ctx)
	p.SetPosition(player.Position{X: 5*gen.ChunkWidth + 1, Y: 41, Z: 1})
	s.ViewTick(ctx)

	if u := rec.unloads(); len(u) != 1 || unloadPos(u[0]) != (gen.ChunkPos{}) {
		t.Fatalf("unloads = %v, want [(0,0)]", u)
	}
	for range 3 {
		s.DeliveryTick(ctx)
	}
	loads := rec.loads()
	if len(loads) != 1 || loadPos(loads[0]) != (gen.ChunkPos{X: 5}) {
		t.Fatalf("loads = %v, want only chunk (5,0)", loads)
	}
}

func TestFullQueueRetriesNextTick(t *testing.T) {
	ctx := context.Background()
	players := player.NewManager(4)
	p, rec := addPlayer(t, players, "a", 0, 41, 0)
	s := NewStreamer(flatWorld(t), players, Options{ViewDistance: 1, QueueCapacity: 4}, testLog)

	s.ViewTick(ctx)
	if s.LoadedCount(p.ID) != 4 {
		t.Fatalf("LoadedCount = %d, want 4 (queue capacity)", s.LoadedCount(p.ID))
	}
	for range 5 {
		for range 5 {
			s.DeliveryTick(ctx)
		}
		s.ViewTick(ctx)
	}

	loads := chunkSet(rec.loads(), loadPos)
	if len(loads) != 9 {
		t.Fatalf("delivered %d distinct chunks, want 9", len(loads))
	}
	for pos, n := range loads {
		if n != 1 {
			t.Errorf("chunk %v delivered %d times", pos, n)
		}
	}
}

func TestDeliveryCompressed(t *testing.T) {
	ctx := context.Background()
	players := player.NewManager(4)
	_, rec := addPlayer(t, players, "a", 0, 41, 0)
	w := flatWorld(t)
	s := NewStreamer(w, players, Options{ViewDistance: 0, Compression: true}, testLog)

	s.ViewTick(ctx)
	if !s.DeliveryTick(ctx) {
		t.Fatal("nothing delivered")
	}
	l := rec.loads()[0]
	if !l.Compressed {
		t.Error("Compressed flag not set")
	}
	got, err := world.DecodeChunk(loadPos(l), l.Data, true)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	want, _ := w.GetChunk(ctx, gen.ChunkPos{}, false)
	if !slices.Equal(got.Blocks, want.Blocks) {
		t.Error("decoded payload differs from resident chunk")
	}
}

func TestViewTickRespectsWorldBorder(t *testing.T) {
	ctx := context.Background()
	g, _ := gen.NewFlatGenerator(gamedata.DefaultBlocks())
	w := world.NewWorld(g, testLog, world.Options{Border: 1})
	players := player.NewManager(4)
	p, _ := addPlayer(t, players, "a", gen.ChunkWidth+1, 41, 1)
	s := NewStreamer(w, players, Options{ViewDistance: 1}, testLog)

	s.ViewTick(ctx)
	// Centre (1,0): columns x=2 fall outside the border.
	if n := s.LoadedCount(p.ID); n != 6 {
		t.Errorf("LoadedCount = %d, want 6", n)
	}
}

func TestEndToEndSeed42(t *testing.T) {
	ctx := context.Background()
	reg := gamedata.DefaultBlocks()

	g1, err := gen.NewNormalGenerator(42, reg)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := gen.NewNormalGenerator(42, reg)
	if err != nil {
		t.Fatal(err)
	}
	w := world.NewWorld(g1, testLog, world.Options{})
	other := world.NewWorld(g2, testLog, world.Options{})

	a, err := w.GetChunk(ctx, gen.ChunkPos{}, true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := other.GetChunk(ctx, gen.ChunkPos{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Blocks, b.Blocks) {
		t.Fatal("chunk (0,0) differs between independent generations")
	}

	players := player.NewManager(4)
	p, rec := addPlayer(t, players, "a", 16, 100, 16)
	s := NewStreamer(w, players, Options{ViewDistance: 1}, testLog)

	s.ViewTick(ctx)
	ticks := 0
	for s.Queue().Len() > 0 {
		s.DeliveryTick(ctx)
		ticks++
	}
	if ticks < 9 {
		t.Errorf("delivery took %d ticks, want at least 9", ticks)
	}

	want := make(map[gen.ChunkPos]int)
	for _, pos := range RequiredChunks(gen.ChunkPos{}, 1) {
		want[pos] = 1
	}
	loads := chunkSet(rec.loads(), loadPos)
	if len(rec.loads()) != 9 || len(loads) != 9 {
		t.Fatalf("got %d loads (%d distinct), want 9", len(rec.loads()), len(loads))
	}
	for pos := range want {
		if loads[pos] != 1 {
			t.Errorf("chunk %v loaded %d times", pos, loads[pos])
		}
	}

	p.SetPosition(player.Position{X: 100 * gen.ChunkWidth, Y: 100, Z: 100 * gen.ChunkWidth})
	s.ViewTick(ctx)

	unloads := chunkSet(rec.unloads(), unloadPos)
	if len(rec.unloads()) != 9 || len(unloads) != 9 {
		t.Fatalf("got %d unloads (%d distinct), want 9", len(rec.unloads()), len(unloads))
	}
	for pos := range want {
		if unloads[pos] != 1 {
			t.Errorf("chunk %v unloaded %d times", pos, unloads[pos])
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
