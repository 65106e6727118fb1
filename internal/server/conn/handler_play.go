package conn

import (
	"errors"
	"fmt"

	"github.com/OCharnyshevich/voxelsrv/internal/server/packet"
	"github.com/OCharnyshevich/voxelsrv/internal/server/player"
	"github.com/OCharnyshevich/voxelsrv/internal/server/world"
)

var errRateLimited = errors.New("inbound rate limit exceeded")

// handleMessage decodes one inbound message and forwards it to the
// scheduler. Messages over the rate limit are dropped.
func (c *Connection) handleMessage(raw []byte) error {
	if !c.limiter.Allow() {
		return errRateLimited
	}
	msg, err := c.srv.codec.Unmarshal(raw)
	if err != nil {
		return err
	}

	id := c.self.ID
	switch m := msg.(type) {
	case packet.ActionMove:
		return c.srv.actions.Move(c.ctx, id, player.Position{
			X: m.X, Y: m.Y, Z: m.Z,
			Rotation: m.Rotation, Pitch: m.Pitch,
		})

	case packet.ActionBlockBreak:
		return c.srv.actions.BreakBlock(c.ctx, id, world.BlockPos{X: m.X, Y: m.Y, Z: m.Z})

	case packet.ActionBlockPlace:
		return c.srv.actions.PlaceBlock(c.ctx, id, world.BlockPos{X: m.X, Y: m.Y, Z: m.Z}, m.ID)

	case packet.LoginResponse:
		// already logged in
		return nil

	default:
		return fmt.Errorf("unhandled message %s", msg.MessageType())
	}
}
