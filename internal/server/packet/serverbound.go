package packet

import (
	"embed"

	"github.com/OCharnyshevich/voxelsrv/pkg/protocol"
)

// Version is the protocol version clients must announce.
const Version = 2

// Serverbound messages

// LoginResponse answers LoginRequest.
type LoginResponse struct {
	Username string `json:"username"`
	Protocol int    `json:"protocol"`
}

func (LoginResponse) MessageType() string { return "LoginResponse" }

// ActionMove reports the player's new position.
type ActionMove struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
	Pitch    float64 `json:"pitch"`
}

func (ActionMove) MessageType() string { return "ActionMove" }

// ActionBlockBreak asks to clear a block.
type ActionBlockBreak struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (ActionBlockBreak) MessageType() string { return "ActionBlockBreak" }

// ActionBlockPlace asks to place block ID.
type ActionBlockPlace struct {
	X  int    `json:"x"`
	Y  int    `json:"y"`
	Z  int    `json:"z"`
	ID uint16 `json:"id"`
}

func (ActionBlockPlace) MessageType() string { return "ActionBlockPlace" }

//go:embed schemas/*.json
var schemas embed.FS

// NewCodec returns a codec for every serverbound message.
func NewCodec() *protocol.Codec {
	c := protocol.NewCodec()
	for _, m := range []protocol.Message{
		LoginResponse{},
		ActionMove{},
		ActionBlockBreak{},
		ActionBlockPlace{},
	} {
		schema, err := schemas.ReadFile("schemas/" + m.MessageType() + ".json")
		if err != nil {
			panic(err)
		}
		c.MustRegister(m, string(schema))
	}
	return c
}
