package gamedata

// Block describes one block type known to the world.
type Block struct {
	ID          uint16 `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Transparent bool   `json:"transparent"`
	Fluid       bool   `json:"fluid,omitempty"`
}

// AirID is the id every registry reserves for empty space.
const AirID uint16 = 0

var defaultBlocks = []Block{
	{ID: 0, Name: "air", DisplayName: "Air", Transparent: true},
	{ID: 1, Name: "stone", DisplayName: "Stone"},
	{ID: 2, Name: "dirt", DisplayName: "Dirt"},
	{ID: 3, Name: "grass", DisplayName: "Grass block"},
	{ID: 4, Name: "grass_snow", DisplayName: "Snowy grass block"},
	{ID: 5, Name: "cobblestone", DisplayName: "Cobblestone"},
	{ID: 6, Name: "log", DisplayName: "Log"},
	{ID: 7, Name: "sand", DisplayName: "Sand"},
	{ID: 8, Name: "leaves", DisplayName: "Leaves", Transparent: true},
	{ID: 9, Name: "red_flower", DisplayName: "Poppy", Transparent: true},
	{ID: 10, Name: "grass_plant", DisplayName: "Grass", Transparent: true},
	{ID: 11, Name: "yellow_flower", DisplayName: "Dandelion", Transparent: true},
	{ID: 12, Name: "deadbush", DisplayName: "Dead bush", Transparent: true},
	{ID: 13, Name: "bricks", DisplayName: "Bricks"},
	{ID: 14, Name: "planks", DisplayName: "Planks"},
	{ID: 15, Name: "glass", DisplayName: "Glass", Transparent: true},
	{ID: 16, Name: "bookshelf", DisplayName: "Bookshelf"},
	{ID: 17, Name: "snow", DisplayName: "Snow block"},
	{ID: 18, Name: "coal_ore", DisplayName: "Coal ore"},
	{ID: 19, Name: "iron_ore", DisplayName: "Iron ore"},
	{ID: 20, Name: "cactus", DisplayName: "Cactus"},
	{ID: 21, Name: "stonebrick", DisplayName: "Stone brick"},
	{ID: 22, Name: "birch_leaves", DisplayName: "Birch leaves", Transparent: true},
	{ID: 23, Name: "birch_log", DisplayName: "Birch log"},
	{ID: 24, Name: "birch_planks", DisplayName: "Birch planks"},
	{ID: 25, Name: "spruce_leaves", DisplayName: "Spruce leaves", Transparent: true},
	{ID: 26, Name: "spruce_log", DisplayName: "Spruce log"},
	{ID: 27, Name: "spruce_planks", DisplayName: "Spruce planks"},
	{ID: 28, Name: "sandstone", DisplayName: "Sandstone"},
	{ID: 29, Name: "diamond_ore", DisplayName: "Diamond ore"},
	{ID: 30, Name: "lapis_ore", DisplayName: "Lapis ore"},
	{ID: 31, Name: "gravel", DisplayName: "Gravel"},
	{ID: 32, Name: "obsidian", DisplayName: "Obsidian"},
	{ID: 33, Name: "water", DisplayName: "Water", Transparent: true, Fluid: true},
	{ID: 34, Name: "bedrock", DisplayName: "Bedrock"},
}

// DefaultBlocks returns the built-in block palette.
func DefaultBlocks() *Blocks {
	b, err := NewBlocks(defaultBlocks)
	if err != nil {
		panic("gamedata: invalid built-in palette: " + err.Error())
	}
	return b
}
