package player

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/OCharnyshevich/voxelsrv/pkg/protocol"
)

var (
	ErrServerFull = errors.New("server is full")
	ErrNameTaken  = errors.New("username already online")
)

// EventKind distinguishes lifecycle events.
type EventKind uint8

const (
	EventJoined EventKind = iota + 1
	EventLeft
)

// Event is a player lifecycle notification.
type Event struct {
	Kind     EventKind
	PlayerID string
}

// Manager tracks all connected players.
type Manager struct {
	mu         sync.RWMutex
	players    map[string]*Player // ID → Player
	byName     map[string]string  // lowercase username → ID
	maxPlayers int
	subs       []chan Event
}

// NewManager creates a new player manager admitting at most maxPlayers.
func NewManager(maxPlayers int) *Manager {
	return &Manager{
		players:    make(map[string]*Player),
		byName:     make(map[string]string),
		maxPlayers: maxPlayers,
	}
}

// Subscribe returns a channel receiving lifecycle events. Delivery never
// blocks the manager: when the buffer is full the event is dropped, so
// subscribers must also reconcile against Get/ForEach.
func (m *Manager) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) publish(ev Event) {
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Add registers a player. Usernames are unique case-insensitively.
func (m *Manager) Add(p *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.players) >= m.maxPlayers {
		return ErrServerFull
	}
	name := strings.ToLower(p.Username)
	if _, taken := m.byName[name]; taken {
		return ErrNameTaken
	}
	m.players[p.ID] = p
	m.byName[name] = p.ID
	m.publish(Event{Kind: EventJoined, PlayerID: p.ID})
	return nil
}

// Remove unregisters a player. It reports whether the player was present.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return false
	}
	delete(m.players, id)
	delete(m.byName, strings.ToLower(p.Username))
	m.publish(Event{Kind: EventLeft, PlayerID: id})
	return true
}

// Get returns the player with the given ID.
func (m *Manager) Get(id string) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	return p, ok
}

// Connected reports whether a player with the given ID is online.
func (m *Manager) Connected(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// PlayerCount returns the number of connected players.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// Players returns a snapshot of connected players ordered by ID.
func (m *Manager) Players() []*Player {
	m.mu.RLock()
	out := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Player) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// ForEach calls fn for each connected player, ordered by ID. fn runs
// without the manager lock held.
func (m *Manager) ForEach(fn func(*Player)) {
	for _, p := range m.Players() {
		fn(p)
	}
}

// Broadcast sends msg to every connected player accepted by filter. A nil
// filter accepts everyone. Send failures are left to each connection.
func (m *Manager) Broadcast(msg protocol.Message, filter func(*Player) bool) {
	m.ForEach(func(p *Player) {
		if filter == nil || filter(p) {
			_ = p.Send(msg)
		}
	})
}
