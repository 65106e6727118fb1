package gen

// treeSpec describes one tree family.
type treeSpec struct {
	minTrunk, trunkVariance int
	log, leaves             uint16
	roundCorners            bool
}

// oakTree builds an oak: 4-6 block trunk under a two-layer wide canopy
// with a narrow crown. Corner leaves are dropped at random.
func oakTree(seed int, h Hash, p palette) *Template {
	return buildTree(seed, h, treeSpec{
		minTrunk:      4,
		trunkVariance: 3,
		log:           p.log,
		leaves:        p.leaves,
	})
}

// birchTree builds a taller, slimmer birch with fully rounded corners.
func birchTree(seed int, h Hash, p palette) *Template {
	return buildTree(seed, h, treeSpec{
		minTrunk:      5,
		trunkVariance: 2,
		log:           p.birchLog,
		leaves:        p.birchLeaves,
		roundCorners:  true,
	})
}

func buildTree(seed int, h Hash, spec treeSpec) *Template {
	trunk := spec.minTrunk + int(h.At(seed, 0)*float64(spec.trunkVariance))
	t := NewTemplate(5, trunk+2, 5)
	const c = 2

	for y := range trunk {
		t.Set(c, y, c, spec.log)
	}

	leafBase := trunk - 2
	for dy := range 4 {
		y := leafBase + dy
		radius := 2
		if dy >= 2 {
			radius = 1
		}
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				if dx == 0 && dz == 0 && y < trunk {
					continue
				}
				if radius == 2 && abs(dx) == 2 && abs(dz) == 2 {
					if spec.roundCorners || h.At3(seed, y, dx*5+dz) < 0.5 {
						continue
					}
				}
				if radius == 1 && dy == 3 && abs(dx)+abs(dz) == 2 {
					continue
				}
				t.Set(c+dx, y, c+dz, spec.leaves)
			}
		}
	}
	return t
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
