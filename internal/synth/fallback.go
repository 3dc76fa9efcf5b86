package synth

import (
	"regexp"

	"modres/pkg/blockmodel"
)

var (
	// "create:block/brass_funnel/block_extended" -> shared funnel model
	funnelVariant = regexp.MustCompile(`^([a-z0-9_.-]+):block/([a-z0-9_]+)_funnel/([a-z0-9_/]+)$`)
	// "create:block/andesite_tunnel/flap"
	tunnelFlap = regexp.MustCompile(`^([a-z0-9_.-]+):block/([a-z0-9_]+)_tunnel/(flap[a-z0-9_]*)$`)
)

// funnelFallback points material-specific funnel variants at the shared
// funnel geometry and swaps in the material's textures.
func funnelFallback() FallbackRule {
	return FallbackRule{
		Name: "funnel-variant",
		Build: func(id string) (*blockmodel.Model, bool) {
			m := funnelVariant.FindStringSubmatch(id)
			if m == nil {
				return nil, false
			}
			ns, material, variant := m[1], m[2], m[3]
			return &blockmodel.Model{
				Parent: ns + ":block/funnel/" + variant,
				Textures: map[string]string{
					"particle": ns + ":block/" + material + "_casing",
					"base":     ns + ":block/" + material + "_funnel_plating",
				},
			}, true
		},
	}
}

// tunnelFlapFallback gives tunnel flaps an empty descriptor; tunnelFlapsRule
// fills in the geometry.
func tunnelFlapFallback() FallbackRule {
	return FallbackRule{
		Name: "tunnel-flap",
		Build: func(id string) (*blockmodel.Model, bool) {
			m := tunnelFlap.FindStringSubmatch(id)
			if m == nil {
				return nil, false
			}
			ns, material := m[1], m[2]
			return &blockmodel.Model{
				Textures: map[string]string{
					"particle": ns + ":block/" + material + "_tunnel_flap",
					"flap":     "#particle",
				},
			}, true
		},
	}
}
