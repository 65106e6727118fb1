package player

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/OCharnyshevich/voxelsrv/pkg/protocol"
	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

// messageCollector records messages sent to a player.
type messageCollector struct {
	mu   sync.Mutex
	msgs []protocol.Message
}

func (mc *messageCollector) send(m protocol.Message) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.msgs = append(mc.msgs, m)
	return nil
}

func (mc *messageCollector) count() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.msgs)
}

type ping struct{}

func (ping) MessageType() string { return "Ping" }

func newTestPlayer(id string, x, z float64) (*Player, *messageCollector) {
	mc := &messageCollector{}
	p := NewPlayer(id, "player_"+id, Position{X: x, Y: 64, Z: z}, mc.send)
	return p, mc
}

func TestAddRemovePlayer(t *testing.T) {
	m := NewManager(8)
	p1, _ := newTestPlayer("a", 0, 0)
	p2, _ := newTestPlayer("b", 0, 0)

	if err := m.Add(p1); err != nil {
		t.Fatal(err)
	}
	if m.PlayerCount() != 1 {
		t.Errorf("expected 1, got %d", m.PlayerCount())
	}
	if err := m.Add(p2); err != nil {
		t.Fatal(err)
	}
	if m.PlayerCount() != 2 {
		t.Errorf("expected 2, got %d", m.PlayerCount())
	}

	if !m.Remove(p1.ID) {
		t.Error("Remove(p1) = false")
	}
	if m.Remove(p1.ID) {
		t.Error("second Remove(p1) = true")
	}
	if m.Connected(p1.ID) || !m.Connected(p2.ID) {
		t.Error("Connected reports wrong state after Remove")
	}
}

func TestAddRejectsFullAndDuplicate(t *testing.T) {
	m := NewManager(2)
	p1, _ := newTestPlayer("a", 0, 0)
	dup := NewPlayer("x", "PLAYER_A", Position{}, nil)

	m.Add(p1)
	if err := m.Add(dup); !errors.Is(err, ErrNameTaken) {
		t.Errorf("duplicate name err = %v, want ErrNameTaken", err)
	}

	p2, _ := newTestPlayer("b", 0, 0)
	p3, _ := newTestPlayer("c", 0, 0)
	m.Add(p2)
	if err := m.Add(p3); !errors.Is(err, ErrServerFull) {
		t.Errorf("full server err = %v, want ErrServerFull", err)
	}
}

func TestSubscribeReceivesLifecycle(t *testing.T) {
	m := NewManager(4)
	events := m.Subscribe(4)
	p, _ := newTestPlayer("a", 0, 0)

	m.Add(p)
	m.Remove(p.ID)

	for _, want := range []Event{{EventJoined, "a"}, {EventLeft, "a"}} {
		select {
		case got := <-events:
			if got != want {
				t.Errorf("event = %+v, want %+v", got, want)
			}
		default:
			t.Fatalf("missing event %+v", want)
		}
	}
}

func TestSubscribeNeverBlocks(t *testing.T) {
	m := NewManager(100)
	m.Subscribe(1)
	for i := range 10 {
		p, _ := newTestPlayer(fmt.Sprint(i), 0, 0)
		m.Add(p) // would deadlock if publish blocked
	}
	if m.PlayerCount() != 10 {
		t.Errorf("PlayerCount = %d, want 10", m.PlayerCount())
	}
}

func TestForEachOrderedByID(t *testing.T) {
	m := NewManager(8)
	for _, id := range []string{"c", "a", "b"} {
		p, _ := newTestPlayer(id, 0, 0)
		m.Add(p)
	}
	var got []string
	m.ForEach(func(p *Player) { got = append(got, p.ID) })
	if fmt.Sprint(got) != "[a b c]" {
		t.Errorf("ForEach order = %v, want [a b c]", got)
	}
}

func TestBroadcast(t *testing.T) {
	m := NewManager(8)
	p1, c1 := newTestPlayer("a", 0, 0)
	p2, c2 := newTestPlayer("b", 0, 0)
	m.Add(p1)
	m.Add(p2)

	m.Broadcast(ping{}, nil)
	if c1.count() != 1 || c2.count() != 1 {
		t.Errorf("counts = %d, %d; want 1, 1", c1.count(), c2.count())
	}

	m.Broadcast(ping{}, func(p *Player) bool { return p.ID == "b" })
	if c1.count() != 1 || c2.count() != 2 {
		t.Errorf("filtered counts = %d, %d; want 1, 2", c1.count(), c2.count())
	}
}

func TestPlayerChunkPos(t *testing.T) {
	tests := []struct {
		x, z float64
		want gen.ChunkPos
	}{
		{0.5, 0.5, gen.ChunkPos{X: 0, Z: 0}},
		{31.9, 0, gen.ChunkPos{X: 0, Z: 0}},
		{32, -0.1, gen.ChunkPos{X: 1, Z: -1}},
		{-32.5, -64, gen.ChunkPos{X: -2, Z: -2}},
	}
	for _, tt := range tests {
		p, _ := newTestPlayer("a", tt.x, tt.z)
		if got := p.ChunkPos(); got != tt.want {
			t.Errorf("ChunkPos at (%v, %v) = %v, want %v", tt.x, tt.z, got, tt.want)
		}
	}
}

func TestPositionDistance(t *testing.T) {
	a := Position{X: 0, Y: 0, Z: 0}
	b := Position{X: 3, Y: 4, Z: 0}
	if d := a.Distance(b); d != 5 {
		t.Errorf("Distance = %v, want 5", d)
	}
}
