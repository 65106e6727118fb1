package gamedata

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

var palettes = map[string]func() *Blocks{
	"default": DefaultBlocks,
}

// Register makes a named palette available to Load.
func Register(name string, factory func() *Blocks) {
	palettes[name] = factory
}

// Load returns a registered palette by name.
func Load(name string) (*Blocks, error) {
	f, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette: %s", name)
	}
	return f(), nil
}

// RegisteredPalettes returns the names of all registered palettes, sorted.
func RegisteredPalettes() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile reads a JSON array of blocks, the format written by fetchdata.
func LoadFile(path string) (*Blocks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block data: %w", err)
	}
	var list []Block
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse block data %s: %w", path, err)
	}
	b, err := NewBlocks(list)
	if err != nil {
		return nil, fmt.Errorf("block data %s: %w", path, err)
	}
	return b, nil
}
