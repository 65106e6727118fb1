package conn

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/OCharnyshevich/voxelsrv/internal/server/packet"
	"github.com/OCharnyshevich/voxelsrv/internal/server/player"
	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

// login greets the client and waits for its LoginResponse. On success the
// player is registered with the manager and LoginSuccess has been written.
func (c *Connection) login() error {
	cfg := c.srv.cfg
	if err := c.writeDirect(packet.LoginRequest{
		Name:       cfg.Name,
		MOTD:       cfg.MOTD,
		Protocol:   packet.Version,
		MaxPlayers: cfg.MaxPlayers,
		Online:     c.srv.players.PlayerCount(),
	}); err != nil {
		return err
	}

	_ = c.ws.SetReadDeadline(time.Now().Add(loginTimeout))
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}
	msg, err := c.srv.codec.Unmarshal(raw)
	if err != nil {
		c.kick("Invalid login")
		return fmt.Errorf("decode login response: %w", err)
	}
	resp, ok := msg.(packet.LoginResponse)
	if !ok {
		c.kick("Expected LoginResponse")
		return fmt.Errorf("unexpected %s during login", msg.MessageType())
	}
	if resp.Protocol != packet.Version {
		c.kick(fmt.Sprintf("Unsupported protocol %d, server speaks %d", resp.Protocol, packet.Version))
		return fmt.Errorf("client protocol %d", resp.Protocol)
	}

	spawn := c.spawnPosition()
	p := player.NewPlayer(uuid.NewString(), resp.Username, spawn, c.Send)
	if err := c.srv.players.Add(p); err != nil {
		switch {
		case errors.Is(err, player.ErrServerFull):
			c.kick("Server is full")
		case errors.Is(err, player.ErrNameTaken):
			c.kick("Username is already online")
		default:
			c.kick("Login rejected")
		}
		return fmt.Errorf("admit %s: %w", resp.Username, err)
	}
	c.self = p

	if err := c.writeDirect(packet.LoginSuccess{
		ID:           p.ID,
		X:            spawn.X,
		Y:            spawn.Y,
		Z:            spawn.Z,
		ViewDistance: cfg.ViewDistance,
		ChunkWidth:   gen.ChunkWidth,
		ChunkHeight:  gen.ChunkHeight,
		Compressed:   cfg.ChunkCompression,
	}); err != nil {
		return err
	}

	c.log.Info("player logged in", "username", p.Username, "id", p.ID,
		"x", spawn.X, "y", spawn.Y, "z", spawn.Z)
	return nil
}

// spawnPosition puts new players at the configured spawn column, lifted
// above the terrain if it would bury them.
func (c *Connection) spawnPosition() player.Position {
	s := c.srv.cfg.Spawn
	y := s[1]
	if h := c.srv.world.SpawnHeight(s[0], s[2]); h > y {
		y = h
	}
	return player.Position{X: float64(s[0]) + 0.5, Y: float64(y), Z: float64(s[2]) + 0.5}
}
