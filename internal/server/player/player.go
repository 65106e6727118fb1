package player

import (
	"math"
	"sync"

	"github.com/OCharnyshevich/voxelsrv/pkg/protocol"
	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

// Position holds a player's world position and orientation.
type Position struct {
	X, Y, Z         float64
	Rotation, Pitch float64
}

// Distance returns the Euclidean distance between two positions.
func (p Position) Distance(o Position) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Chunk returns the chunk containing the position.
func (p Position) Chunk() gen.ChunkPos {
	return gen.ChunkOf(int(math.Floor(p.X)), int(math.Floor(p.Z)))
}

// Player represents a connected player.
type Player struct {
	mu       sync.RWMutex
	ID       string // session uuid
	Username string

	pos Position

	// Send delivers a message to the player's connection. It must not block.
	Send func(protocol.Message) error
}

// NewPlayer creates a new Player at its spawn position.
func NewPlayer(id, username string, spawn Position, send func(protocol.Message) error) *Player {
	return &Player{
		ID:       id,
		Username: username,
		pos:      spawn,
		Send:     send,
	}
}

// GetPosition returns a copy of the player's current position.
func (p *Player) GetPosition() Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos
}

// SetPosition updates the player's position.
func (p *Player) SetPosition(pos Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = pos
}

// ChunkPos returns the chunk the player is standing in.
func (p *Player) ChunkPos() gen.ChunkPos {
	return p.GetPosition().Chunk()
}
