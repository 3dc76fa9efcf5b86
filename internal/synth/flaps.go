package synth

import (
	"fmt"
	"strings"

	"modres/pkg/blockmodel"
)

const (
	funnelFlapSegments = 4
	funnelFlapStep     = 3

	tunnelFlapWidth = 3.5
	tunnelFlapCount = 4
)

func isFlap(id string) bool {
	return strings.HasPrefix(blockmodel.Base(id), "flap")
}

// funnelFlapRule expands the single authored funnel flap into four
// segments spaced along X.
func funnelFlapRule() Rule {
	return Rule{
		Name: "funnel-flap",
		Match: func(id string) bool {
			return strings.Contains(id, "funnel") && isFlap(id)
		},
		Apply: func(_ Env, _ string, m *blockmodel.Model) bool {
			if len(m.Elements) != 1 {
				return false
			}
			base := m.Elements[0]
			for k := 1; k < funnelFlapSegments; k++ {
				e := base.Clone()
				e.Translate([3]float32{float32(k * funnelFlapStep), 0, 0})
				if e.Name != "" {
					e.Name = fmt.Sprintf("%s_%d", e.Name, k)
				}
				m.Elements = append(m.Elements, e)
			}
			return true
		},
	}
}

// tunnelFlapsRule generates the two mirrored rows of tunnel flaps, which
// tunnels never author. Vertical tunnels have no flaps.
func tunnelFlapsRule() Rule {
	return Rule{
		Name: "tunnel-flaps",
		Match: func(id string) bool {
			return strings.Contains(id, "tunnel") && isFlap(id) && !strings.Contains(id, "vertical")
		},
		Apply: func(_ Env, _ string, m *blockmodel.Model) bool {
			if len(m.Elements) != 0 {
				return false
			}
			if m.Textures == nil {
				m.Textures = map[string]string{}
			}
			if _, ok := m.Textures["flap"]; !ok {
				m.Textures["flap"] = "#particle"
			}
			m.Elements = append(m.Elements, tunnelFlapRow(0, false)...)
			m.Elements = append(m.Elements, tunnelFlapRow(15, true)...)
			return true
		},
	}
}

func tunnelFlapRow(z float32, mirrored bool) []blockmodel.Element {
	front := [4]float32{0, 0, tunnelFlapWidth, 10}
	if mirrored {
		front = [4]float32{tunnelFlapWidth, 0, 0, 10}
	}
	side := [4]float32{0, 0, 1, 10}
	edge := [4]float32{0, 0, tunnelFlapWidth, 1}
	face := func(uv [4]float32) blockmodel.Face {
		return blockmodel.Face{Texture: "#flap", UV: &uv}
	}
	row := make([]blockmodel.Element, 0, tunnelFlapCount)
	for k := 0; k < tunnelFlapCount; k++ {
		x := 1 + float32(k)*tunnelFlapWidth
		row = append(row, blockmodel.Element{
			Name: fmt.Sprintf("flap_%d_%d", int(z), k),
			From: [3]float32{x, 3, z},
			To:   [3]float32{x + tunnelFlapWidth, 13, z + 1},
			Faces: map[string]blockmodel.Face{
				"north": face(front),
				"south": face(front),
				"east":  face(side),
				"west":  face(side),
				"up":    face(edge),
				"down":  face(edge),
			},
		})
	}
	return row
}
