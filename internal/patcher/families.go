package patcher

import (
	"strings"

	"modres/pkg/blockmodel"
)

func pathIs(blockID, name string) bool {
	_, p := blockmodel.SplitID(blockID)
	return p == name
}

var (
	beltSlopes  = []string{"horizontal", "upward", "downward", "vertical", "sideways"}
	beltParts   = []string{"start", "middle", "end", "pulley"}
	beltFacings = []string{"north", "east", "south", "west"}
)

var facingYaw = map[string]int{"north": 0, "east": 90, "south": 180, "west": 270}

// beltPatch replaces the belt's particle-only descriptor with one entry per
// slope/part/facing combination, plus casing entries guarded by casing=true.
func beltPatch() Patch {
	return Patch{
		Name:  "belt",
		Match: func(id string) bool { return pathIs(id, "belt") },
		Apply: func(id string, _ *blockmodel.BlockState) *blockmodel.BlockState {
			ns, _ := blockmodel.SplitID(id)
			bs := &blockmodel.BlockState{}
			for _, slope := range beltSlopes {
				for _, part := range beltParts {
					for _, facing := range beltFacings {
						for _, v := range beltModels(ns, slope, part, facing) {
							when := map[string]string{"slope": slope, "part": part, "facing": facing}
							bs.Multipart = append(bs.Multipart, blockmodel.Part{
								When:  &blockmodel.Condition{Props: when},
								Apply: blockmodel.BlockStateVariants{v},
							})
						}
						if c, ok := beltCasing(ns, slope, part, facing); ok {
							cw := map[string]string{"slope": slope, "part": part, "facing": facing, "casing": "true"}
							bs.Multipart = append(bs.Multipart, blockmodel.Part{
								When:  &blockmodel.Condition{Props: cw},
								Apply: blockmodel.BlockStateVariants{c},
							})
						}
					}
				}
			}
			return bs
		},
	}
}

func beltSegment(part string) string {
	if part == "pulley" {
		return "middle"
	}
	return part
}

func beltModels(ns, slope, part, facing string) []blockmodel.Variant {
	seg := beltSegment(part)
	y := facingYaw[facing]
	var out []blockmodel.Variant
	switch slope {
	case "upward":
		out = append(out, blockmodel.Variant{Model: ns + ":block/belt/diagonal_" + seg, Y: y})
	case "downward":
		out = append(out, blockmodel.Variant{Model: ns + ":block/belt/diagonal_" + seg, Y: (y + 180) % 360})
	case "vertical":
		out = append(out, blockmodel.Variant{Model: ns + ":block/belt/" + seg, X: 90, Y: y})
	case "sideways":
		out = append(out, blockmodel.Variant{Model: ns + ":block/belt/" + seg + "_bottom", Y: y})
	default:
		out = append(out, blockmodel.Variant{Model: ns + ":block/belt/" + seg, Y: y})
	}
	if part == "pulley" || part == "start" || part == "end" {
		out = append(out, blockmodel.Variant{Model: ns + ":block/belt_pulley", Y: y})
	}
	return out
}

// beltCasing returns the casing for a belt segment. Vertical belts have none.
func beltCasing(ns, slope, part, facing string) (blockmodel.Variant, bool) {
	var kind string
	switch slope {
	case "horizontal":
		kind = "horizontal"
	case "upward", "downward":
		kind = "diagonal"
	case "sideways":
		kind = "sideways"
	default:
		return blockmodel.Variant{}, false
	}
	y := facingYaw[facing]
	if slope == "downward" {
		y = (y + 180) % 360
	}
	return blockmodel.Variant{Model: ns + ":block/belt_casing/" + kind + "_" + part, Y: y}, true
}

// encasedPipeAppend adds the pipe core in all three orientations; the
// descriptor only covers the casing.
func encasedPipeAppend() Patch {
	return Patch{
		Name:  "encased-fluid-pipe",
		Match: func(id string) bool { return strings.Contains(id, "encased_fluid_pipe") },
		Apply: func(id string, bs *blockmodel.BlockState) *blockmodel.BlockState {
			ns, _ := blockmodel.SplitID(id)
			core := ns + ":block/fluid_pipe/core"
			return appendAlways(bs,
				blockmodel.Variant{Model: core},
				blockmodel.Variant{Model: core, X: 90},
				blockmodel.Variant{Model: core, X: 90, Y: 90},
			)
		},
	}
}

// spoutAppend adds the nozzle stack below the spout body.
func spoutAppend() Patch {
	return Patch{
		Name:  "spout",
		Match: func(id string) bool { return pathIs(id, "spout") },
		Apply: func(id string, bs *blockmodel.BlockState) *blockmodel.BlockState {
			ns, _ := blockmodel.SplitID(id)
			return appendAlways(bs,
				blockmodel.Variant{Model: ns + ":block/spout/top"},
				blockmodel.Variant{Model: ns + ":block/spout/middle"},
				blockmodel.Variant{Model: ns + ":block/spout/bottom"},
			)
		},
	}
}

// appendAlways adds unconditional entries, skipping any already present.
func appendAlways(bs *blockmodel.BlockState, vs ...blockmodel.Variant) *blockmodel.BlockState {
	if bs == nil {
		bs = &blockmodel.BlockState{}
	}
	present := map[string]bool{}
	for _, part := range bs.Multipart {
		if part.When != nil {
			continue
		}
		for _, v := range part.Apply {
			present[entryKey(blockmodel.NormalizeModelID(v.Model, blockmodel.DefaultNamespace), v, nil)] = true
		}
	}
	for _, v := range vs {
		if present[entryKey(v.Model, v, nil)] {
			continue
		}
		bs.Multipart = append(bs.Multipart, blockmodel.Part{Apply: blockmodel.BlockStateVariants{v}})
	}
	return bs
}
