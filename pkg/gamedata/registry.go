package gamedata

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownBlock is returned when a block name or id is not registered.
var ErrUnknownBlock = errors.New("unknown block")

// BlockRegistry is a read-only name/id lookup for blocks.
type BlockRegistry interface {
	ByID(id uint16) (Block, bool)
	ByName(name string) (Block, bool)
	ID(name string) (uint16, error)
	All() []Block
}

// Blocks is an immutable BlockRegistry. It is built once at startup and
// shared by the generator, the world and the transport.
type Blocks struct {
	byID   map[uint16]Block
	byName map[string]Block
	all    []Block
}

// NewBlocks validates list and builds a registry from it. Id 0 must be "air"
// and both ids and names must be unique.
func NewBlocks(list []Block) (*Blocks, error) {
	b := &Blocks{
		byID:   make(map[uint16]Block, len(list)),
		byName: make(map[string]Block, len(list)),
	}
	for _, blk := range list {
		if blk.Name == "" {
			return nil, fmt.Errorf("block %d: empty name", blk.ID)
		}
		if _, dup := b.byID[blk.ID]; dup {
			return nil, fmt.Errorf("block %q: duplicate id %d", blk.Name, blk.ID)
		}
		if _, dup := b.byName[blk.Name]; dup {
			return nil, fmt.Errorf("block %d: duplicate name %q", blk.ID, blk.Name)
		}
		b.byID[blk.ID] = blk
		b.byName[blk.Name] = blk
		b.all = append(b.all, blk)
	}
	if air, ok := b.byID[AirID]; !ok || air.Name != "air" {
		return nil, errors.New("id 0 must be registered as air")
	}
	slices.SortFunc(b.all, func(x, y Block) int { return int(x.ID) - int(y.ID) })
	return b, nil
}

func (b *Blocks) ByID(id uint16) (Block, bool) {
	blk, ok := b.byID[id]
	return blk, ok
}

func (b *Blocks) ByName(name string) (Block, bool) {
	blk, ok := b.byName[name]
	return blk, ok
}

// ID resolves a block name to its numeric id.
func (b *Blocks) ID(name string) (uint16, error) {
	blk, ok := b.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBlock, name)
	}
	return blk.ID, nil
}

// MustID is like ID but panics on unknown names. Intended for palettes
// resolved once at construction time.
func (b *Blocks) MustID(name string) uint16 {
	id, err := b.ID(name)
	if err != nil {
		panic(err)
	}
	return id
}

// All returns every block sorted by id. The returned slice must not be modified.
func (b *Blocks) All() []Block {
	return b.all
}

// Len returns the number of registered blocks.
func (b *Blocks) Len() int {
	return len(b.all)
}
