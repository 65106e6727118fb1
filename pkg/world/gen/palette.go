package gen

import (
	"errors"

	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
)

// palette holds the block ids the generators place, resolved once from the
// injected registry.
type palette struct {
	bedrock, stone, dirt, gravel uint16

	grass, grassSnow, snow uint16

	sand, sandstone, water uint16

	log, leaves, birchLog, birchLeaves, cactus uint16

	grassPlant, redFlower, yellowFlower, deadbush uint16

	coalOre, ironOre, diamondOre uint16
}

func newPalette(blocks gamedata.BlockRegistry) (palette, error) {
	var (
		p    palette
		errs []error
	)
	id := func(name string) uint16 {
		v, err := blocks.ID(name)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	p.bedrock = id("bedrock")
	p.stone = id("stone")
	p.dirt = id("dirt")
	p.grass = id("grass")
	p.grassSnow = id("grass_snow")
	p.snow = id("snow")
	p.sand = id("sand")
	p.sandstone = id("sandstone")
	p.gravel = id("gravel")
	p.water = id("water")
	p.log = id("log")
	p.leaves = id("leaves")
	p.birchLog = id("birch_log")
	p.birchLeaves = id("birch_leaves")
	p.cactus = id("cactus")
	p.grassPlant = id("grass_plant")
	p.redFlower = id("red_flower")
	p.yellowFlower = id("yellow_flower")
	p.deadbush = id("deadbush")
	p.coalOre = id("coal_ore")
	p.ironOre = id("iron_ore")
	p.diamondOre = id("diamond_ore")
	return p, errors.Join(errs...)
}
