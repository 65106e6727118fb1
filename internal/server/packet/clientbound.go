package packet

// Clientbound messages

// LoginRequest is the first message a client receives after connecting.
type LoginRequest struct {
	Name       string `json:"name"`
	MOTD       string `json:"motd"`
	Protocol   int    `json:"protocol"`
	MaxPlayers int    `json:"maxPlayers"`
	Online     int    `json:"online"`
}

func (LoginRequest) MessageType() string { return "LoginRequest" }

// LoginSuccess accepts a login and places the player in the world.
type LoginSuccess struct {
	ID           string  `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	ViewDistance int     `json:"viewDistance"`
	ChunkWidth   int     `json:"chunkWidth"`
	ChunkHeight  int     `json:"chunkHeight"`
	Compressed   bool    `json:"compressed"`
}

func (LoginSuccess) MessageType() string { return "LoginSuccess" }

// WorldChunkLoad carries one chunk's block array. Data is base64 in JSON.
type WorldChunkLoad struct {
	X          int    `json:"x"`
	Z          int    `json:"z"`
	Data       []byte `json:"data"`
	Compressed bool   `json:"compressed"`
}

func (WorldChunkLoad) MessageType() string { return "WorldChunkLoad" }

// WorldChunkUnload tells the client to drop a chunk.
type WorldChunkUnload struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func (WorldChunkUnload) MessageType() string { return "WorldChunkUnload" }

// WorldBlockUpdate announces a single block edit.
type WorldBlockUpdate struct {
	ID uint16 `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	Z  int    `json:"z"`
}

func (WorldBlockUpdate) MessageType() string { return "WorldBlockUpdate" }

// PlayerTeleport moves the player, typically back after a rejected move.
type PlayerTeleport struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (PlayerTeleport) MessageType() string { return "PlayerTeleport" }

// PlayerKick is sent right before the server closes the connection.
type PlayerKick struct {
	Reason string `json:"reason"`
}

func (PlayerKick) MessageType() string { return "PlayerKick" }
